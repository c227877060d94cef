package parkinglog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/notify"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 单条日志创建的错误码（稳定字符串，透传给调用方）。
const (
	CodeTagNotFound          = "TAG_NOT_FOUND"
	CodeTagNotActive         = "TAG_NOT_ACTIVE"
	CodeTagNotAssigned       = "TAG_NOT_ASSIGNED"
	CodeNoVehicleRegistered  = "NO_VEHICLE_REGISTERED"
	CodeVehicleNotAssigned   = "VEHICLE_NOT_ASSIGNED"
	CodeInvalidTagAssignment = "INVALID_TAG_ASSIGNMENT"
	CodeCreateLogFailed      = "CREATE_LOG_FAILED"
)

// Result 单条日志创建的结果。
type Result struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	ErrorCode string   `json:"error_code,omitempty"`
	Data      *LogData `json:"data,omitempty"`

	// 已落库的日志行，计费用；不序列化
	Log *VehicleLog `json:"-"`
}

// LogData 成功结果携带的数据。
type LogData struct {
	LogID              string  `json:"log_id"`
	Vehicle            string  `json:"vehicle"`
	Partner            string  `json:"partner"`
	Direction          string  `json:"direction"`
	Time               string  `json:"time"`
	IsAnomaly          bool    `json:"is_anomaly"`
	ParkingTime        float64 `json:"parking_time"`
	ParkingTimeDisplay string  `json:"parking_time_display"`
}

// Recorder 出入日志记录器：
// 解析标签 -> 确定车与人 -> 在同一事务里写日志并更新车辆方向 -> 异常检测 -> 发通知。
// 同一辆车的写入用 keyLock 串行化。
type Recorder struct {
	db       *gorm.DB
	logs     *Repo
	tags     *tag.Repo
	vehicles *vehicle.Repo
	partners *partner.Repo
	notifier notify.Notifier
	log      logger.Logger
	locks    *keyLock
	now      func() time.Time
}

// Option Recorder 可选配置。
type Option func(*Recorder)

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRecorder(db *gorm.DB, notifier notify.Notifier, log logger.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		db:       db,
		logs:     NewRepo(db),
		tags:     tag.NewRepo(db),
		vehicles: vehicle.NewRepo(db),
		partners: partner.NewRepo(db),
		notifier: notifier,
		log:      log,
		locks:    newKeyLock(),
		now:      time.Now,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(r)
		}
	}
	if r.notifier == nil {
		r.notifier = notify.NewNopNotifier()
	}
	return r
}

func fail(code, format string, args ...interface{}) *Result {
	return &Result{
		Success:   false,
		Message:   fmt.Sprintf(format, args...),
		ErrorCode: code,
	}
}

// CreateLogEntry 根据 TID 创建一条出入日志。
func (r *Recorder) CreateLogEntry(ctx context.Context, tagCode string, direction vehicle.Direction, photoURL, notes string) *Result {
	if r == nil || r.db == nil {
		return fail(CodeCreateLogFailed, "recorder is not initialized")
	}

	t, err := r.tags.FindByTagID(ctx, tagCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(CodeTagNotFound, "tag %s does not exist", tagCode)
	}
	if err != nil {
		return fail(CodeCreateLogFailed, "failed to resolve tag %s: %v", tagCode, err)
	}

	if !t.IsActive() {
		return fail(CodeTagNotActive, "tag %s is not active", tagCode)
	}

	veh, per, res := r.resolveOwners(ctx, t)
	if res != nil {
		return res
	}

	// 同一辆车的写入串行化，覆盖 建日志 -> 更新方向 -> 异常检测 全程
	mu := r.locks.lock(veh.ID)
	defer mu.Unlock()

	now := r.now()

	l := &VehicleLog{
		ID:          uuid.NewString(),
		VehicleID:   veh.ID,
		PartnerID:   per.ID,
		TagID:       t.ID,
		TagCode:     t.TagID,
		PlateNumber: veh.PlateNumber,
		PartnerName: per.Name,
		Direction:   direction,
		PhotoURL:    photoURL,
		Notes:       notes,
		CreatedAt:   now,
	}

	// 异常检测：同车同标签的上一条记录与本条同向，标记但不拦截
	var prev *VehicleLog
	if last, err := r.logs.LastByVehicleTag(ctx, veh.ID, t.ID, now, ""); err == nil {
		if last.Direction == direction {
			prev = last
			l.IsAnomaly = true
			l.AnomalyReason = fmt.Sprintf(
				"vehicle %s recorded direction '%s' twice in a row; previous event at %s",
				veh.PlateNumber, direction, last.CreatedAt.Format(TimeLayout),
			)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Warnf("anomaly lookup failed for vehicle %s: %v", veh.ID, err)
	}

	// 出场记录：回找最近一次入场，算时长
	if direction == vehicle.DirectionOut {
		if entry, err := r.logs.LastEntryLog(ctx, veh.ID, now); err == nil {
			l.ParkingTime = now.Sub(entry.CreatedAt).Hours()
			l.ParkingTimeDisplay = FormatParkingTime(l.ParkingTime)
			l.EntryLogID = entry.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warnf("entry log lookup failed for vehicle %s: %v", veh.ID, err)
		}
	}

	// 日志写入和方向更新放在同一个事务里
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		return tx.Model(&vehicle.Vehicle{}).
			Where("id = ?", veh.ID).
			Update("last_direction", direction).Error
	})
	if err != nil {
		return fail(CodeCreateLogFailed, "failed to create log entry: %v", err)
	}

	if l.IsAnomaly && prev != nil {
		r.log.Warnf("inconsistent vehicle log detected: vehicle %s direction '%s' twice in a row, last=%s current=%s",
			veh.PlateNumber, direction, prev.CreatedAt.Format(TimeLayout), now.Format(TimeLayout))
		if err := r.notifier.PublishOperatorAlert(ctx, notify.OperatorAlert{
			LogID:        l.ID,
			VehiclePlate: veh.PlateNumber,
			Reason:       l.AnomalyReason,
			Time:         now.Format(TimeLayout),
		}); err != nil {
			r.log.Errorf("failed to publish operator alert: %v", err)
		}
	}

	// 通知尽力而为，失败只记日志
	if err := r.notifier.PublishParkingLogUpdate(ctx, notify.ParkingLogUpdate{
		LogID:              l.ID,
		VehiclePlate:       veh.PlateNumber,
		PartnerName:        per.Name,
		Direction:          string(direction),
		Time:               now.Format(TimeLayout),
		IsAnomaly:          l.IsAnomaly,
		ParkingTimeDisplay: l.ParkingTimeDisplay,
		PhotoURL:           photoURL,
	}); err != nil {
		r.log.Errorf("failed to publish parking log update: %v", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("recorded: %s - %s", veh.PlateNumber, direction),
		Data: &LogData{
			LogID:              l.ID,
			Vehicle:            veh.PlateNumber,
			Partner:            per.Name,
			Direction:          string(direction),
			Time:               now.Format(TimeLayout),
			IsAnomaly:          l.IsAnomaly,
			ParkingTime:        l.ParkingTime,
			ParkingTimeDisplay: l.ParkingTimeDisplay,
		},
		Log: l,
	}
}

// resolveOwners 由标签确定车与人：
// - 人卡：取持卡人名下第一辆登记车
// - 车卡：取车辆登记的所有人
func (r *Recorder) resolveOwners(ctx context.Context, t *tag.Tag) (*vehicle.Vehicle, *partner.Partner, *Result) {
	var veh *vehicle.Vehicle
	var per *partner.Partner
	var err error

	if t.VehicleID != "" {
		veh, err = r.vehicles.FindByID(ctx, t.VehicleID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(CodeCreateLogFailed, "failed to resolve vehicle: %v", err)
		}
	}
	if t.PartnerID != "" {
		per, err = r.partners.FindByID(ctx, t.PartnerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(CodeCreateLogFailed, "failed to resolve partner: %v", err)
		}
	}

	if veh == nil && per == nil {
		return nil, nil, fail(CodeTagNotAssigned, "tag %s is not assigned to a vehicle or a person", t.TagID)
	}

	if per != nil && veh == nil {
		veh, err = r.vehicles.FirstByOwner(ctx, per.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(CodeNoVehicleRegistered, "person %s has no registered vehicle", per.Name)
		}
		if err != nil {
			return nil, nil, fail(CodeCreateLogFailed, "failed to resolve vehicle for person %s: %v", per.Name, err)
		}
	}

	if veh != nil && per == nil {
		if veh.OwnerPartnerID == "" {
			return nil, nil, fail(CodeVehicleNotAssigned, "vehicle %s is not assigned to a person", veh.Name)
		}
		per, err = r.partners.FindByID(ctx, veh.OwnerPartnerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fail(CodeVehicleNotAssigned, "vehicle %s is not assigned to a person", veh.Name)
		}
		if err != nil {
			return nil, nil, fail(CodeCreateLogFailed, "failed to resolve owner for vehicle %s: %v", veh.Name, err)
		}
	}

	if veh == nil || per == nil {
		return nil, nil, fail(CodeInvalidTagAssignment, "cannot determine vehicle or person for tag %s", t.TagID)
	}
	return veh, per, nil
}

// VehicleStatus 车辆当前在场状态查询结果。
type VehicleStatus struct {
	VehicleID                 string  `json:"vehicle_id"`
	PlateNumber               string  `json:"plate_number"`
	Status                    string  `json:"status"`
	LastDirection             string  `json:"last_direction,omitempty"`
	LastTime                  string  `json:"last_time,omitempty"`
	CurrentParkingTime        float64 `json:"current_parking_time"`
	CurrentParkingTimeDisplay string  `json:"current_parking_time_display"`
}

// GetVehicleStatus 按最近一条日志推导车辆状态；在场时带实时停车时长。
func (r *Recorder) GetVehicleStatus(ctx context.Context, vehicleID string) (*VehicleStatus, error) {
	veh, err := r.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	st := &VehicleStatus{
		VehicleID:   veh.ID,
		PlateNumber: veh.PlateNumber,
		Status:      string(vehicle.StatusUnknown),
	}

	last, err := r.logs.LastByVehicle(ctx, vehicleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}

	st.LastDirection = string(last.Direction)
	st.LastTime = last.CreatedAt.Format(TimeLayout)
	if last.Direction == vehicle.DirectionIn {
		st.Status = string(vehicle.StatusInside)
		st.CurrentParkingTime = r.now().Sub(last.CreatedAt).Hours()
		st.CurrentParkingTimeDisplay = FormatParkingTime(st.CurrentParkingTime)
	} else {
		st.Status = string(vehicle.StatusOutside)
	}
	return st, nil
}
