package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/parkinglog"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoPriceConfigured 该车型没有配置价目。
var ErrNoPriceConfigured = errors.New("no price configured for vehicle type")

// Calculator 计费器：出场成功后按入场时段定日/夜价，按整天数收过夜费，扣账户余额。
type Calculator struct {
	db       *gorm.DB
	repo     *Repo
	logs     *parkinglog.Repo
	vehicles *vehicle.Repo
	cfg      config.PricingConfig
	log      logger.Logger
}

func NewCalculator(db *gorm.DB, cfg config.PricingConfig, log logger.Logger) *Calculator {
	return &Calculator{
		db:       db,
		repo:     NewRepo(db),
		logs:     parkinglog.NewRepo(db),
		vehicles: vehicle.NewRepo(db),
		cfg:      cfg,
		log:      log,
	}
}

// ChargeForExit 按出场日志计费并扣款：
// - 日/夜价取决于入场时刻是否达到夜间阈值（默认 15:00）
// - 停车时长满 N 整天加收 N 天过夜费
// - 余额不足且策略禁止负余额时返回 ErrInsufficientFunds，账单照开（未支付）
func (c *Calculator) ChargeForExit(ctx context.Context, exitLog *parkinglog.VehicleLog) (*Bill, error) {
	if exitLog == nil {
		return nil, fmt.Errorf("exit log is nil")
	}
	if exitLog.Direction != vehicle.DirectionOut {
		return nil, fmt.Errorf("log %s is not an exit log", exitLog.ID)
	}

	veh, err := c.vehicles.FindByID(ctx, exitLog.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("resolve vehicle: %w", err)
	}

	price, err := c.repo.FindPriceByType(ctx, veh.VehicleType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPriceConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("resolve price: %w", err)
	}

	// 入场时刻决定日/夜价；找不到对应入场记录时退回出场时刻
	entryTime := exitLog.CreatedAt
	if exitLog.EntryLogID != "" {
		if entry, err := c.logs.FindByID(ctx, exitLog.EntryLogID); err == nil {
			entryTime = entry.CreatedAt
		} else {
			c.log.Warnf("entry log %s lookup failed: %v", exitLog.EntryLogID, err)
		}
	}

	base := price.DayPrice
	if c.isNight(entryTime) {
		base = price.NightPrice
	}

	days := int(exitLog.ParkingTime / 24)
	overnight := int64(days) * c.cfg.OvernightPerDay
	total := base + overnight

	b := &Bill{
		ID:                 uuid.NewString(),
		LogID:              exitLog.ID,
		PartnerID:          exitLog.PartnerID,
		VehicleID:          exitLog.VehicleID,
		VehicleType:        veh.VehicleType,
		PlateNumber:        exitLog.PlateNumber,
		PartnerName:        exitLog.PartnerName,
		TagCode:            exitLog.TagCode,
		ParkingTimeDisplay: exitLog.ParkingTimeDisplay,
		BasePrice:          base,
		OvernightPrice:     overnight,
		TotalPrice:         total,
	}

	// 扣款和开账单在同一事务里，开账单失败时扣款一并回滚
	paid := true
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debitErr := partner.NewRepo(tx).AdjustFunds(ctx, exitLog.PartnerID, -total, c.cfg.AllowNegativeBalance)
		if errors.Is(debitErr, partner.ErrInsufficientFunds) {
			paid = false
			c.log.Warnf("partner %s has insufficient funds for bill on log %s (total=%d)", exitLog.PartnerID, exitLog.ID, total)
		} else if debitErr != nil {
			return fmt.Errorf("debit funds: %w", debitErr)
		}

		b.Paid = paid
		if err := NewRepo(tx).CreateBill(ctx, b); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !paid {
		return b, partner.ErrInsufficientFunds
	}
	return b, nil
}

// isNight 入场时刻（当天时分）达到阈值按夜间价。
func (c *Calculator) isNight(t time.Time) bool {
	threshold := c.cfg.NightThreshold
	if threshold == "" {
		threshold = "15:00"
	}
	parsed, err := time.Parse("15:04", threshold)
	if err != nil {
		c.log.Warnf("invalid night_threshold %q, falling back to 15:00", threshold)
		parsed, _ = time.Parse("15:04", "15:00")
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= parsed.Hour()*60+parsed.Minute()
}
