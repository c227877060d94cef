package partner

import (
	"context"
	"errors"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MinPackagePrice 充值套餐最低金额。
const MinPackagePrice = 2000

var (
	// ErrPackageTooCheap 套餐金额低于下限。
	ErrPackageTooCheap = errors.New("package price must be at least 2000")
	// ErrInvalidTopUpAmount 充值金额必须为正数。
	ErrInvalidTopUpAmount = errors.New("top-up amount must be positive")
)

// FundPackage 充值套餐。
type FundPackage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:64" json:"name"`
	Price     int64     `gorm:"not null" json:"price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"create_date"`
}

// Service 账户服务：建档、充值。
type Service struct {
	db       *gorm.DB
	partners *Repo
	log      logger.Logger
}

func NewService(db *gorm.DB, log logger.Logger) *Service {
	return &Service{db: db, partners: NewRepo(db), log: log}
}

// CreatePackage 新建充值套餐，金额不得低于 MinPackagePrice。
func (s *Service) CreatePackage(ctx context.Context, name string, price int64) (*FundPackage, error) {
	if price < MinPackagePrice {
		return nil, ErrPackageTooCheap
	}
	p := &FundPackage{ID: uuid.NewString(), Name: name, Price: price}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ListPackages 返回全部套餐，按金额升序。
func (s *Service) ListPackages(ctx context.Context) ([]FundPackage, error) {
	var out []FundPackage
	if err := s.db.WithContext(ctx).Order("price asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// TopUp 给账户充值，返回充值后的账户。
// packageID 非空时金额取套餐价，忽略 amount。
func (s *Service) TopUp(ctx context.Context, partnerID, packageID string, amount int64) (*Partner, error) {
	if packageID != "" {
		var pkg FundPackage
		if err := s.db.WithContext(ctx).Where("id = ?", packageID).First(&pkg).Error; err != nil {
			return nil, err
		}
		amount = pkg.Price
	}
	if amount <= 0 {
		return nil, ErrInvalidTopUpAmount
	}

	// 充值永远是加钱，无需余额护栏
	if err := s.partners.AdjustFunds(ctx, partnerID, amount, true); err != nil {
		return nil, err
	}

	p, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	s.log.Infof("partner %s topped up %d, balance now %d", p.Name, amount, p.CurrentFunds)
	return p, nil
}
