package billing

import (
	"context"
	"testing"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/db"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/parkinglog"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func defaultPricing() config.PricingConfig {
	return config.PricingConfig{
		NightThreshold:       "15:00",
		OvernightPerDay:      5000,
		AllowNegativeBalance: false,
	}
}

func newBillingDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := db.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&partner.Partner{}, &vehicle.Vehicle{}, &parkinglog.VehicleLog{},
		&VehiclePrice{}, &Bill{},
	))

	require.NoError(t, gormDB.Create(&partner.Partner{
		ID: "u-1", Name: "An", CurrentFunds: 100000,
	}).Error)
	require.NoError(t, gormDB.Create(&vehicle.Vehicle{
		ID: "v-1", Name: "Wave", PlateNumber: "29A-11111",
		VehicleType: vehicle.TypeMotorcycle, OwnerPartnerID: "u-1",
	}).Error)
	require.NoError(t, gormDB.Create(&VehiclePrice{
		ID: "p-1", VehicleType: vehicle.TypeMotorcycle, DayPrice: 20000, NightPrice: 30000,
	}).Error)
	return gormDB
}

// seedExit 写入一对入场/出场日志并返回出场日志。
func seedExit(t *testing.T, gormDB *gorm.DB, entry, exit time.Time) *parkinglog.VehicleLog {
	t.Helper()
	entryLog := &parkinglog.VehicleLog{
		ID: "log-in-" + entry.Format("040506"), VehicleID: "v-1", PartnerID: "u-1", TagID: "t-1",
		Direction: vehicle.DirectionIn, CreatedAt: entry,
	}
	require.NoError(t, gormDB.Create(entryLog).Error)

	exitLog := &parkinglog.VehicleLog{
		ID: "log-out-" + exit.Format("040506"), VehicleID: "v-1", PartnerID: "u-1", TagID: "t-1",
		PlateNumber: "29A-11111", PartnerName: "An",
		Direction: vehicle.DirectionOut, CreatedAt: exit,
		ParkingTime: exit.Sub(entry).Hours(),
		EntryLogID:  entryLog.ID,
	}
	require.NoError(t, gormDB.Create(exitLog).Error)
	return exitLog
}

func TestChargeForExitDayRate(t *testing.T) {
	gormDB := newBillingDB(t)
	calc := NewCalculator(gormDB, defaultPricing(), logger.Nop())

	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(4 * time.Hour) // 14:00 当天
	bill, err := calc.ChargeForExit(context.Background(), seedExit(t, gormDB, entry, exit))
	require.NoError(t, err)

	require.EqualValues(t, 20000, bill.BasePrice)
	require.Zero(t, bill.OvernightPrice)
	require.EqualValues(t, 20000, bill.TotalPrice)
	require.True(t, bill.Paid)

	var p partner.Partner
	require.NoError(t, gormDB.First(&p, "id = ?", "u-1").Error)
	require.EqualValues(t, 80000, p.CurrentFunds)
}

func TestChargeForExitNightRate(t *testing.T) {
	gormDB := newBillingDB(t)
	calc := NewCalculator(gormDB, defaultPricing(), logger.Nop())

	// 入场 16:00，过了 15:00 阈值，按夜间价
	entry := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	bill, err := calc.ChargeForExit(context.Background(), seedExit(t, gormDB, entry, entry.Add(2*time.Hour)))
	require.NoError(t, err)
	require.EqualValues(t, 30000, bill.BasePrice)
	require.EqualValues(t, 30000, bill.TotalPrice)
}

func TestChargeForExitOvernight(t *testing.T) {
	gormDB := newBillingDB(t)
	calc := NewCalculator(gormDB, defaultPricing(), logger.Nop())

	// 停满 24 小时加收 1 天过夜费
	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	bill, err := calc.ChargeForExit(context.Background(), seedExit(t, gormDB, entry, entry.Add(24*time.Hour)))
	require.NoError(t, err)
	require.EqualValues(t, 20000, bill.BasePrice)
	require.EqualValues(t, 5000, bill.OvernightPrice)
	require.EqualValues(t, 25000, bill.TotalPrice)
}

func TestChargeForExitInsufficientFunds(t *testing.T) {
	gormDB := newBillingDB(t)
	calc := NewCalculator(gormDB, defaultPricing(), logger.Nop())

	require.NoError(t, gormDB.Model(&partner.Partner{}).
		Where("id = ?", "u-1").Update("current_funds", 1000).Error)

	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	bill, err := calc.ChargeForExit(context.Background(), seedExit(t, gormDB, entry, entry.Add(time.Hour)))
	require.ErrorIs(t, err, partner.ErrInsufficientFunds)
	require.NotNil(t, bill, "bill is still issued, unpaid")
	require.False(t, bill.Paid)

	var p partner.Partner
	require.NoError(t, gormDB.First(&p, "id = ?", "u-1").Error)
	require.EqualValues(t, 1000, p.CurrentFunds, "refused debit must not touch the balance")
}

func TestChargeForExitNegativeBalanceAllowed(t *testing.T) {
	gormDB := newBillingDB(t)
	cfg := defaultPricing()
	cfg.AllowNegativeBalance = true
	calc := NewCalculator(gormDB, cfg, logger.Nop())

	require.NoError(t, gormDB.Model(&partner.Partner{}).
		Where("id = ?", "u-1").Update("current_funds", 1000).Error)

	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	bill, err := calc.ChargeForExit(context.Background(), seedExit(t, gormDB, entry, entry.Add(time.Hour)))
	require.NoError(t, err)
	require.True(t, bill.Paid)

	var p partner.Partner
	require.NoError(t, gormDB.First(&p, "id = ?", "u-1").Error)
	require.EqualValues(t, -19000, p.CurrentFunds)
}

func TestChargeForExitBillFailureRollsBackDebit(t *testing.T) {
	gormDB := newBillingDB(t)
	calc := NewCalculator(gormDB, defaultPricing(), logger.Nop())

	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	exitLog := seedExit(t, gormDB, entry, entry.Add(time.Hour))

	// 同一条出场日志已有账单，重复计费时开账单会撞唯一索引
	require.NoError(t, gormDB.Create(&Bill{
		ID: "b-dup", LogID: exitLog.ID, PartnerID: "u-1", VehicleID: "v-1",
		BasePrice: 20000, TotalPrice: 20000, Paid: true,
	}).Error)

	_, err := calc.ChargeForExit(context.Background(), exitLog)
	require.Error(t, err)

	var p partner.Partner
	require.NoError(t, gormDB.First(&p, "id = ?", "u-1").Error)
	require.EqualValues(t, 100000, p.CurrentFunds, "failed bill must not leave the partner charged")
}

func TestChargeForExitNoPrice(t *testing.T) {
	gormDB := newBillingDB(t)
	calc := NewCalculator(gormDB, defaultPricing(), logger.Nop())

	require.NoError(t, gormDB.Where("1 = 1").Delete(&VehiclePrice{}).Error)

	entry := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	_, err := calc.ChargeForExit(context.Background(), seedExit(t, gormDB, entry, entry.Add(time.Hour)))
	require.ErrorIs(t, err, ErrNoPriceConfigured)
}

func TestUpsertPriceFloor(t *testing.T) {
	gormDB := newBillingDB(t)
	repo := NewRepo(gormDB)

	err := repo.UpsertPrice(context.Background(), &VehiclePrice{
		ID: "p-low", VehicleType: vehicle.TypeCar, DayPrice: 500, NightPrice: 20000,
	})
	require.Error(t, err)
}
