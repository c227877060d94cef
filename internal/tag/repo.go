package tag

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrTagActive 使用中的标签不允许删除，需要先回收。
var ErrTagActive = errors.New("tag is still active, revoke it before deleting")

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

func (r *Repo) Create(ctx context.Context, t *Tag) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(t).Error
}

func (r *Repo) Update(ctx context.Context, t *Tag) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(t).Error
}

// FindByTagID 按 RFID TID 查找标签。
func (r *Repo) FindByTagID(ctx context.Context, tagID string) (*Tag, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var t Tag
	if err := db.Where("tag_id = ?", tagID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByTagIDs 批量按 RFID TID 查找，只返回命中的行。
func (r *Repo) FindByTagIDs(ctx context.Context, tagIDs []string) ([]Tag, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if len(tagIDs) == 0 {
		return nil, nil
	}
	var tags []Tag
	if err := db.Where("tag_id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Tag, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var t Tag
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete 删除标签；使用中的标签必须先回收。
func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	var t Tag
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		return err
	}
	if t.Status == StatusActive {
		return ErrTagActive
	}
	return db.Delete(&Tag{}, "id = ?", id).Error
}
