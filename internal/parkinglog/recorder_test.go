package parkinglog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/db"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorderFixture struct {
	db       *gorm.DB
	recorder *Recorder
	clock    *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time            { return c.now }
func (c *fakeClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }
func (c *fakeClock) Set(t time.Time)           { c.now = t }

func newRecorderFixture(t *testing.T) *recorderFixture {
	t.Helper()
	gormDB, err := db.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&tag.Tag{}, &partner.Partner{}, &vehicle.Vehicle{}, &VehicleLog{},
	))

	clock := &fakeClock{now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	rec := NewRecorder(gormDB, nil, logger.Nop(), WithClock(clock.Now))
	return &recorderFixture{db: gormDB, recorder: rec, clock: clock}
}

// seedVehicle 建一个持卡人 + 一辆车 + 一张车卡。
func (f *recorderFixture) seedVehicle(t *testing.T, suffix string) (tagID string) {
	t.Helper()
	require.NoError(t, f.db.Create(&partner.Partner{
		ID: "u-" + suffix, Name: "Owner " + suffix, CurrentFunds: 100000,
	}).Error)
	require.NoError(t, f.db.Create(&vehicle.Vehicle{
		ID: "v-" + suffix, Name: "Bike " + suffix, PlateNumber: "29A-" + suffix,
		VehicleType: vehicle.TypeMotorcycle, OwnerPartnerID: "u-" + suffix,
		TagID: "t-" + suffix, LastDirection: vehicle.DirectionOut,
	}).Error)
	require.NoError(t, f.db.Create(&tag.Tag{
		ID: "t-" + suffix, TagID: "TV" + suffix, Status: tag.StatusActive,
		VehicleID: "v-" + suffix,
	}).Error)
	return "TV" + suffix
}

func TestCreateLogEntryRoundTrip(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()
	tagID := f.seedVehicle(t, "001")

	res := f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionIn, "", "")
	require.True(t, res.Success, res.Message)
	require.False(t, res.Data.IsAnomaly)
	require.Equal(t, "in", res.Data.Direction)

	var veh vehicle.Vehicle
	require.NoError(t, f.db.First(&veh, "id = ?", "v-001").Error)
	require.Equal(t, vehicle.StatusInside, veh.CurrentStatus())

	f.clock.Advance(4 * time.Hour)

	res = f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionOut, "", "")
	require.True(t, res.Success, res.Message)
	require.False(t, res.Data.IsAnomaly)
	require.InDelta(t, 4.0, res.Data.ParkingTime, 0.001)
	require.Equal(t, "4h", res.Data.ParkingTimeDisplay)
	require.NotEmpty(t, res.Log.EntryLogID)

	require.NoError(t, f.db.First(&veh, "id = ?", "v-001").Error)
	require.Equal(t, vehicle.StatusOutside, veh.CurrentStatus())
}

func TestCreateLogEntryAnomaly(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()
	tagID := f.seedVehicle(t, "002")

	first := f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionIn, "", "")
	require.True(t, first.Success)
	firstTime := f.clock.Now().Format(TimeLayout)

	f.clock.Advance(30 * time.Minute)

	second := f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionIn, "", "")
	require.True(t, second.Success, "anomaly must not block the log")
	require.True(t, second.Data.IsAnomaly)
	require.True(t, strings.Contains(second.Log.AnomalyReason, firstTime),
		"anomaly reason %q should reference previous event time %s", second.Log.AnomalyReason, firstTime)

	var count int64
	require.NoError(t, f.db.Model(&VehicleLog{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestCreateLogEntryExitWithoutEntry(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()
	tagID := f.seedVehicle(t, "003")

	res := f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionOut, "", "")
	require.True(t, res.Success)
	require.Zero(t, res.Data.ParkingTime, "no prior entry means zero duration")
	require.Empty(t, res.Log.EntryLogID)
}

func TestCreateLogEntryValidation(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	// 未知标签
	res := f.recorder.CreateLogEntry(ctx, "GHOST", vehicle.DirectionIn, "", "")
	require.False(t, res.Success)
	require.Equal(t, CodeTagNotFound, res.ErrorCode)

	// 未激活标签
	require.NoError(t, f.db.Create(&tag.Tag{ID: "t-p", TagID: "PENDING", Status: tag.StatusPending}).Error)
	res = f.recorder.CreateLogEntry(ctx, "PENDING", vehicle.DirectionIn, "", "")
	require.False(t, res.Success)
	require.Equal(t, CodeTagNotActive, res.ErrorCode)

	// 激活但未绑定
	require.NoError(t, f.db.Create(&tag.Tag{ID: "t-u", TagID: "UNBOUND", Status: tag.StatusActive}).Error)
	res = f.recorder.CreateLogEntry(ctx, "UNBOUND", vehicle.DirectionIn, "", "")
	require.False(t, res.Success)
	require.Equal(t, CodeTagNotAssigned, res.ErrorCode)

	// 人卡但名下无车
	require.NoError(t, f.db.Create(&partner.Partner{ID: "u-nocar", Name: "Walker"}).Error)
	require.NoError(t, f.db.Create(&tag.Tag{ID: "t-w", TagID: "WALKER", Status: tag.StatusActive, PartnerID: "u-nocar"}).Error)
	res = f.recorder.CreateLogEntry(ctx, "WALKER", vehicle.DirectionIn, "", "")
	require.False(t, res.Success)
	require.Equal(t, CodeNoVehicleRegistered, res.ErrorCode)

	// 车卡但车没有登记车主
	require.NoError(t, f.db.Create(&vehicle.Vehicle{ID: "v-orphan", Name: "Orphan", PlateNumber: "30B-00001"}).Error)
	require.NoError(t, f.db.Create(&tag.Tag{ID: "t-o", TagID: "ORPHAN", Status: tag.StatusActive, VehicleID: "v-orphan"}).Error)
	res = f.recorder.CreateLogEntry(ctx, "ORPHAN", vehicle.DirectionIn, "", "")
	require.False(t, res.Success)
	require.Equal(t, CodeVehicleNotAssigned, res.ErrorCode)

	// 校验失败不落库
	var count int64
	require.NoError(t, f.db.Model(&VehicleLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateLogEntryPersonTagFallback(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()
	f.seedVehicle(t, "004")

	// 给车主发一张人卡；人卡应落到名下第一辆车上
	require.NoError(t, f.db.Create(&tag.Tag{
		ID: "t-person", TagID: "TP004", Status: tag.StatusActive, PartnerID: "u-004",
	}).Error)

	res := f.recorder.CreateLogEntry(ctx, "TP004", vehicle.DirectionIn, "", "")
	require.True(t, res.Success, res.Message)
	require.Equal(t, "29A-004", res.Data.Vehicle)
	require.Equal(t, "Owner 004", res.Data.Partner)
}

func TestGetVehicleStatus(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()
	tagID := f.seedVehicle(t, "005")

	st, err := f.recorder.GetVehicleStatus(ctx, "v-005")
	require.NoError(t, err)
	require.Equal(t, "unknown", st.Status)

	res := f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionIn, "", "")
	require.True(t, res.Success)

	f.clock.Advance(90 * time.Minute)

	st, err = f.recorder.GetVehicleStatus(ctx, "v-005")
	require.NoError(t, err)
	require.Equal(t, "inside", st.Status)
	require.InDelta(t, 1.5, st.CurrentParkingTime, 0.001)
	require.Equal(t, "1h 30m", st.CurrentParkingTimeDisplay)

	f.recorder.CreateLogEntry(ctx, tagID, vehicle.DirectionOut, "", "")
	st, err = f.recorder.GetVehicleStatus(ctx, "v-005")
	require.NoError(t, err)
	require.Equal(t, "outside", st.Status)
	require.Zero(t, st.CurrentParkingTime)
}
