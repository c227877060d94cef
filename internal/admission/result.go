package admission

import "github.com/NonStopParking/NonStopParking/internal/parkinglog"

// BatchResult 批量操作结果。
// 注意：success 表示“至少一条成功”，调用方需要逐条看 Data。
type BatchResult struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      []PerTagResult `json:"data"`
	ErrorCode string         `json:"error_code"`
}

// PerTagResult 单张车辆标签的处理结果。
type PerTagResult struct {
	TagID              string              `json:"tag_id"`
	VehiclePlateNumber string              `json:"vehicle_plate_number,omitempty"`
	VehicleOwner       string              `json:"vehicle_owner,omitempty"`
	Success            bool                `json:"success"`
	Message            string              `json:"message"`
	Data               *parkinglog.LogData `json:"data,omitempty"`
	ErrorCode          string              `json:"error_code"`
	Billing            *BillingSummary     `json:"billing,omitempty"`
}

// BillingSummary 出场计费摘要（仅 check-out 成功路径）。
type BillingSummary struct {
	BillID         string `json:"bill_id"`
	BasePrice      int64  `json:"base_price"`
	OvernightPrice int64  `json:"overnight_price"`
	TotalPrice     int64  `json:"total_price"`
	Paid           bool   `json:"paid"`
}

func reject(code, message string) BatchResult {
	return BatchResult{
		Success:   false,
		Message:   message,
		Data:      []PerTagResult{},
		ErrorCode: code,
	}
}
