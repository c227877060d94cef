package parkinglog

import (
	"fmt"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/vehicle"
)

// TimeLayout 出入场时间在消息和事件里的展示格式。
const TimeLayout = "02/01/2006 15:04:05"

// VehicleLog 是 vehicle_logs 表的 GORM 模型。
// 只追加，不修改不删除；异常字段在创建时一次性确定。
type VehicleLog struct {
	ID string `gorm:"primaryKey;size:36"`

	// 关联（都是必填）
	VehicleID string `gorm:"index;size:36;not null"`
	PartnerID string `gorm:"index;size:36;not null"`
	TagID     string `gorm:"index;size:36;not null"` // tags 表主键

	// 冗余快照字段，避免历史记录跟着主数据变
	TagCode     string `gorm:"size:64"` // RFID TID
	PlateNumber string `gorm:"size:20"`
	PartnerName string `gorm:"size:128"`

	Direction vehicle.Direction `gorm:"type:varchar(8);not null"`

	PhotoURL string `gorm:"size:512"`
	Notes    string `gorm:"type:text"`

	// 仅出场记录有值
	ParkingTime        float64 `gorm:"not null;default:0"` // 小时
	ParkingTimeDisplay string  `gorm:"size:64"`
	EntryLogID         string  `gorm:"size:36"` // 对应的入场记录

	// 异常标记（连续两次同向）
	IsAnomaly     bool   `gorm:"not null;default:false"`
	AnomalyReason string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index;autoCreateTime"`
}

// DisplayName 记录的展示名。
func (l VehicleLog) DisplayName() string {
	return fmt.Sprintf("%s - %s (%s)", l.PlateNumber, l.Direction, l.CreatedAt.Format(TimeLayout))
}
