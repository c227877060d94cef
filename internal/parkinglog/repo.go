package parkinglog

import (
	"context"
	"fmt"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, l *VehicleLog) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(l).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*VehicleLog, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l VehicleLog
	if err := db.Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// LastByVehicleTag 返回某车+某标签在 before 之前最近的一条记录（排除 excludeID）。
// 用于连续同向异常检测。
func (r *Repo) LastByVehicleTag(ctx context.Context, vehicleID, tagID string, before time.Time, excludeID string) (*VehicleLog, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l VehicleLog
	q := db.Where("vehicle_id = ? AND tag_id = ? AND created_at < ?", vehicleID, tagID, before)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("created_at DESC").First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// LastEntryLog 返回某车在 before 之前最近的一条入场记录，用于计算停车时长。
func (r *Repo) LastEntryLog(ctx context.Context, vehicleID string, before time.Time) (*VehicleLog, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l VehicleLog
	err := db.Where("vehicle_id = ? AND direction = ? AND created_at < ?", vehicleID, vehicle.DirectionIn, before).
		Order("created_at DESC").First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LastByVehicle 返回某车最近的一条记录（查询在场状态用）。
func (r *Repo) LastByVehicle(ctx context.Context, vehicleID string) (*VehicleLog, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var l VehicleLog
	if err := db.Where("vehicle_id = ?", vehicleID).Order("created_at DESC").First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByVehicle 按时间倒序分页返回某车的出入记录。
func (r *Repo) ListByVehicle(ctx context.Context, vehicleID string, offset, limit int) ([]VehicleLog, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := db.Model(&VehicleLog{}).Where("vehicle_id = ?", vehicleID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []VehicleLog
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
