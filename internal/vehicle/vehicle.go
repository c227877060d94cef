package vehicle

import (
	"time"
)

// Direction 出入方向。
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// CurrentStatus 车辆在场状态，由 LastDirection 推导。
type CurrentStatus string

const (
	StatusInside  CurrentStatus = "inside"
	StatusOutside CurrentStatus = "outside"
	StatusUnknown CurrentStatus = "unknown"
)

// Type 车辆类型。
type Type string

const (
	TypeCar        Type = "car"
	TypeMotorcycle Type = "motorcycle"
	TypeBicycle    Type = "bicycle"
	TypeTruck      Type = "truck"
	TypeOther      Type = "other"
)

// Vehicle 是 vehicles 表的 GORM 模型。
type Vehicle struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:128;not null"`
	Brand       string `gorm:"size:64"`
	Color       string `gorm:"size:32"`
	PlateNumber string `gorm:"uniqueIndex;size:20;not null"`
	VehicleType Type   `gorm:"type:varchar(16);not null;default:'motorcycle'"`

	// 归属与标签（每辆车最多绑定一张标签）
	OwnerPartnerID string `gorm:"index;size:36"`
	TagID          string `gorm:"index;size:36"`

	// 最近一次出入方向；在场状态由它推导
	LastDirection Direction `gorm:"type:varchar(8);not null;default:'in'"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// CurrentStatus 推导在场状态：in -> inside，out -> outside，其余 unknown。
func (v Vehicle) CurrentStatus() CurrentStatus {
	switch v.LastDirection {
	case DirectionIn:
		return StatusInside
	case DirectionOut:
		return StatusOutside
	default:
		return StatusUnknown
	}
}
