package billing

import (
	"context"
	"fmt"

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

// UpsertPrice 新建/更新价目；日夜价都有 1000 VND 下限。
func (r *Repo) UpsertPrice(ctx context.Context, p *VehiclePrice) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if p.DayPrice < MinPrice || p.NightPrice < MinPrice {
		return fmt.Errorf("price must be at least %d VND", MinPrice)
	}
	return db.Save(p).Error
}

// FindPriceByType 按车型取价目行。
func (r *Repo) FindPriceByType(ctx context.Context, vt vehicle.Type) (*VehiclePrice, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p VehiclePrice
	if err := db.Where("vehicle_type = ?", vt).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreateBill(ctx context.Context, b *Bill) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(b).Error
}

func (r *Repo) FindBillByLogID(ctx context.Context, logID string) (*Bill, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var b Bill
	if err := db.Where("log_id = ?", logID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
