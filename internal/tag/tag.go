package tag

import (
	"time"
)

// Status 标签状态枚举（持久化为字符串）。
type Status string

const (
	StatusPending  Status = "pending"  // 未激活
	StatusActive   Status = "active"   // 使用中
	StatusInactive Status = "inactive" // 已停用/已回收
	StatusLost     Status = "lost"     // 挂失
)

// SyncStatus 云端同步状态。
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// Class 标签归属分类。
type Class string

const (
	ClassPerson     Class = "person"     // 只绑定了人
	ClassVehicle    Class = "vehicle"    // 只绑定了车
	ClassUnassigned Class = "unassigned" // 两者皆无
	ClassMixed      Class = "mixed"      // 两者皆有（数据异常，只做防御处理）
)

// Tag 是 tags 表的 GORM 模型。
// 约束：一张标签最多绑定一个人或一辆车，不能同时绑定两者。
type Tag struct {
	ID     string `gorm:"primaryKey;size:36"`
	TagID  string `gorm:"uniqueIndex;size:64;not null"` // RFID TID
	EPC    string `gorm:"size:128"`                     // Electronic Product Code
	Status Status `gorm:"type:varchar(16);index;not null"`

	// 有效期（可选）
	ValidFrom *time.Time
	ValidTo   *time.Time

	// 归属（最多其一）
	PartnerID string `gorm:"index;size:36"` // 持卡人
	VehicleID string `gorm:"index;size:36"` // 绑定车辆

	// 云端同步
	LastSyncDate  *time.Time
	SyncFromCloud bool       `gorm:"not null;default:false"`
	SyncStatus    SyncStatus `gorm:"type:varchar(16);not null;default:'pending'"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Classify 返回标签的归属分类。
func (t Tag) Classify() Class {
	switch {
	case t.PartnerID != "" && t.VehicleID != "":
		return ClassMixed
	case t.PartnerID != "":
		return ClassPerson
	case t.VehicleID != "":
		return ClassVehicle
	default:
		return ClassUnassigned
	}
}

// IsActive 标签是否处于可用状态。
func (t Tag) IsActive() bool {
	return t.Status == StatusActive
}
