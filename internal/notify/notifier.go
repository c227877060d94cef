package notify

import "context"

// ParkingLogUpdate 出入场事件，推送给前端大屏/运维侧。
type ParkingLogUpdate struct {
	Type               string `json:"type"` // 固定 "parking_log_update"
	LogID              string `json:"log_id"`
	VehiclePlate       string `json:"vehicle_plate"`
	PartnerName        string `json:"partner_name"`
	Direction          string `json:"direction"`
	Time               string `json:"time"`
	IsAnomaly          bool   `json:"is_anomaly"`
	ParkingTimeDisplay string `json:"parking_time_display"`
	PhotoURL           string `json:"photo_url,omitempty"`
}

// OperatorAlert 异常告警（连续同向进出等），提示运维人员人工核查。
type OperatorAlert struct {
	Type         string `json:"type"` // 固定 "operator_alert"
	LogID        string `json:"log_id"`
	VehiclePlate string `json:"vehicle_plate"`
	Reason       string `json:"reason"`
	Time         string `json:"time"`
}

// Notifier 事件发布接口。发布失败由调用方记日志吞掉，不参与业务成败。
type Notifier interface {
	PublishParkingLogUpdate(ctx context.Context, ev ParkingLogUpdate) error
	PublishOperatorAlert(ctx context.Context, alert OperatorAlert) error
	Close() error
}
