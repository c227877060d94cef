package partner

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrInsufficientFunds 余额不足且策略不允许负余额。
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrCitizenIDTaken 证件号已被其他账户占用。
	ErrCitizenIDTaken = errors.New("citizen id already registered")
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

func (r *Repo) Create(ctx context.Context, p *Partner) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if err := ValidateCitizenID(p.CitizenID); err != nil {
		return err
	}
	if err := r.checkCitizenIDFree(ctx, p.CitizenID, p.ID); err != nil {
		return err
	}
	return db.Create(p).Error
}

func (r *Repo) Update(ctx context.Context, p *Partner) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	if err := ValidateCitizenID(p.CitizenID); err != nil {
		return err
	}
	if err := r.checkCitizenIDFree(ctx, p.CitizenID, p.ID); err != nil {
		return err
	}
	return db.Save(p).Error
}

// checkCitizenIDFree 证件号填写后不允许与其他账户重复。
func (r *Repo) checkCitizenIDFree(ctx context.Context, citizenID, selfID string) error {
	if citizenID == "" {
		return nil
	}
	var count int64
	err := r.withCtx(ctx).Model(&Partner{}).
		Where("citizen_id = ? AND id <> ?", citizenID, selfID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCitizenIDTaken
	}
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Partner, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Partner
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// AdjustFunds 原子调整余额（delta 为正表示充值，为负表示扣费）。
// allowNegative 为 false 时，扣费不得使余额为负，违反则返回 ErrInsufficientFunds。
func (r *Repo) AdjustFunds(ctx context.Context, id string, delta int64, allowNegative bool) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}

	q := db.Model(&Partner{}).Where("id = ?", id)
	if delta < 0 && !allowNegative {
		q = q.Where("current_funds >= ?", -delta)
	}
	res := q.UpdateColumn("current_funds", gorm.Expr("current_funds + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// 行不存在，或余额不足够扣
		var count int64
		if err := db.Model(&Partner{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}
