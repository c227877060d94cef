package tag

import (
	"context"
	"errors"

	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTagExists TID 已存在，不允许重复登记。
	ErrTagExists = errors.New("tag id already exists")
	// ErrTagInUse 标签处于 active 且已绑定其他归属。
	ErrTagInUse = errors.New("tag is already in use")
	// ErrTagDangling 标签 active 但没有任何归属，属于数据异常，拒绝复用。
	ErrTagDangling = errors.New("tag is active but not assigned, check tag data")
)

// Service 标签生命周期：登记、绑定、回收。
//
// 复用规则：active 且绑定在别处的标签拒绝改绑；
// inactive/pending/lost 的标签可以直接改绑并重新激活；
// 系统中不存在的 TID 在绑定时就地创建并激活。
type Service struct {
	db       *gorm.DB
	tags     *Repo
	vehicles *vehicle.Repo
	partners *partner.Repo
	log      logger.Logger
}

func NewService(db *gorm.DB, log logger.Logger) *Service {
	return &Service{
		db:       db,
		tags:     NewRepo(db),
		vehicles: vehicle.NewRepo(db),
		partners: partner.NewRepo(db),
		log:      log,
	}
}

// CheckTag 按 TID 查标签，不存在返回 gorm.ErrRecordNotFound。
func (s *Service) CheckTag(ctx context.Context, tagID string) (*Tag, error) {
	return s.tags.FindByTagID(ctx, tagID)
}

// CreateTag 登记一张新标签，status 为空时默认 pending。
func (s *Service) CreateTag(ctx context.Context, tagID, epc string, status Status) (*Tag, error) {
	if status == "" {
		status = StatusPending
	}

	if _, err := s.tags.FindByTagID(ctx, tagID); err == nil {
		return nil, ErrTagExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	t := &Tag{
		ID:     uuid.NewString(),
		TagID:  tagID,
		EPC:    epc,
		Status: status,
	}
	if err := s.tags.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AssignToVehicle 把标签绑定到车辆。
func (s *Service) AssignToVehicle(ctx context.Context, vehicleID, tagID string) (*Tag, error) {
	veh, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	t, err := s.prepareTag(ctx, tagID, func(existing *Tag) bool {
		// 已经绑在这辆车上视为幂等
		return existing.VehicleID == veh.ID && existing.PartnerID == ""
	})
	if err != nil {
		return nil, err
	}

	t.VehicleID = veh.ID
	t.PartnerID = ""
	t.Status = StatusActive

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		return tx.Model(&vehicle.Vehicle{}).Where("id = ?", veh.ID).
			Update("tag_id", t.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("tag %s assigned to vehicle %s (%s)", t.TagID, veh.Name, veh.PlateNumber)
	return t, nil
}

// AssignToPartner 把标签绑定到持卡人。
func (s *Service) AssignToPartner(ctx context.Context, partnerID, tagID string) (*Tag, error) {
	p, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	t, err := s.prepareTag(ctx, tagID, func(existing *Tag) bool {
		return existing.PartnerID == p.ID && existing.VehicleID == ""
	})
	if err != nil {
		return nil, err
	}

	t.PartnerID = p.ID
	t.VehicleID = ""
	t.Status = StatusActive

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		return tx.Model(&partner.Partner{}).Where("id = ?", p.ID).
			Update("tag_id", t.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("tag %s assigned to partner %s", t.TagID, p.Name)
	return t, nil
}

// Revoke 回收标签：解除全部归属并置 inactive，同时清掉归属方的引用。
func (s *Service) Revoke(ctx context.Context, tagID string) (*Tag, error) {
	t, err := s.tags.FindByTagID(ctx, tagID)
	if err != nil {
		return nil, err
	}

	prevVehicleID := t.VehicleID
	prevPartnerID := t.PartnerID

	t.VehicleID = ""
	t.PartnerID = ""
	t.Status = StatusInactive

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(t).Error; err != nil {
			return err
		}
		if prevVehicleID != "" {
			if err := tx.Model(&vehicle.Vehicle{}).Where("id = ?", prevVehicleID).
				Update("tag_id", "").Error; err != nil {
				return err
			}
		}
		if prevPartnerID != "" {
			if err := tx.Model(&partner.Partner{}).Where("id = ?", prevPartnerID).
				Update("tag_id", "").Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("tag %s revoked", t.TagID)
	return t, nil
}

// prepareTag 取出可改绑的标签；不存在就地创建。
// alreadyBound 用来判断标签是否已绑定在目标对象上（幂等放行）。
func (s *Service) prepareTag(ctx context.Context, tagID string, alreadyBound func(*Tag) bool) (*Tag, error) {
	existing, err := s.tags.FindByTagID(ctx, tagID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Tag{ID: uuid.NewString(), TagID: tagID}, nil
	}
	if err != nil {
		return nil, err
	}

	if existing.Status == StatusActive && !alreadyBound(existing) {
		switch existing.Classify() {
		case ClassUnassigned:
			return nil, ErrTagDangling
		default:
			return nil, ErrTagInUse
		}
	}
	return existing, nil
}
