package billing

import (
	"time"

	"github.com/NonStopParking/NonStopParking/internal/vehicle"
)

// MinPrice 价目表最低单价（VND）。
const MinPrice = 1000

// VehiclePrice 按车型的日/夜价目（VND）。
type VehiclePrice struct {
	ID          string       `gorm:"primaryKey;size:36"`
	VehicleType vehicle.Type `gorm:"type:varchar(16);uniqueIndex;not null"`
	DayPrice    int64        `gorm:"not null"`
	NightPrice  int64        `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Bill 出场账单，创建后不再修改。每条出场日志最多一张账单。
type Bill struct {
	ID    string `gorm:"primaryKey;size:36"`
	LogID string `gorm:"uniqueIndex;size:36;not null"` // 出场日志

	PartnerID   string       `gorm:"index;size:36;not null"`
	VehicleID   string       `gorm:"index;size:36;not null"`
	VehicleType vehicle.Type `gorm:"type:varchar(16)"`

	// 冗余快照
	PlateNumber        string `gorm:"size:20"`
	PartnerName        string `gorm:"size:128"`
	TagCode            string `gorm:"size:64"`
	ParkingTimeDisplay string `gorm:"size:64"`

	// 金额（VND）
	BasePrice      int64 `gorm:"not null"`
	OvernightPrice int64 `gorm:"not null;default:0"`
	TotalPrice     int64 `gorm:"not null"`

	// 扣款是否成功（余额不足且策略禁止负余额时为 false）
	Paid bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
