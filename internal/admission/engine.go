package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NonStopParking/NonStopParking/internal/billing"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/parkinglog"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"gorm.io/gorm"
)

// CheckRequest 出入场请求。
type CheckRequest struct {
	TagIDs   []string `json:"tag_ids"`
	PhotoURL string   `json:"photo_url"`
	Notes    string   `json:"notes"`
}

// Engine 出入场判定引擎。
//
// 入场宽松：未知/人卡静默忽略，逐张车卡独立落日志，单张失败不影响其他。
// 出场严格：人卡+车卡双重确认，任何一项结构性校验失败整批拒绝，不碰存储；
// 校验全过后再逐车落日志并触发计费。
type Engine struct {
	classifier *tag.Classifier
	vehicles   *vehicle.Repo
	partners   *partner.Repo
	recorder   *parkinglog.Recorder
	calculator *billing.Calculator
	log        logger.Logger
}

func NewEngine(db *gorm.DB, recorder *parkinglog.Recorder, calculator *billing.Calculator, log logger.Logger) *Engine {
	return &Engine{
		classifier: tag.NewClassifier(tag.NewRepo(db)),
		vehicles:   vehicle.NewRepo(db),
		partners:   partner.NewRepo(db),
		recorder:   recorder,
		calculator: calculator,
		log:        log,
	}
}

// CheckIn 入场：只处理车卡，人卡和未知 TID 静默忽略。
func (e *Engine) CheckIn(ctx context.Context, req CheckRequest) BatchResult {
	if len(req.TagIDs) == 0 {
		return reject(CodeMissingParams, "tag_ids is required")
	}

	tagIDs := filterEmpty(req.TagIDs)

	p, err := e.classifier.Resolve(ctx, tagIDs)
	if err != nil {
		e.log.Errorf("check-in tag resolve failed: %v", err)
		return reject(CodeSystemError, "internal error")
	}

	results := make([]PerTagResult, 0, len(p.Vehicle))
	for _, vt := range p.Vehicle {
		res := e.recorder.CreateLogEntry(ctx, vt.TagID, vehicle.DirectionIn, req.PhotoURL, req.Notes)
		results = append(results, e.perTagResult(ctx, vt, res, nil))
	}

	return BatchResult{
		Success:   anySuccess(results),
		Message:   "processed",
		Data:      results,
		ErrorCode: CodeSuccess,
	}
}

// CheckOut 出场：整批校验（短路），全部通过后逐车落日志并计费。
func (e *Engine) CheckOut(ctx context.Context, req CheckRequest) BatchResult {
	if len(req.TagIDs) == 0 {
		return reject(CodeMissingParams, "tag_ids is required")
	}
	if len(req.TagIDs) < 2 {
		return reject(CodeInsufficientTags, "at least 2 tags are required to check out")
	}

	tagIDs := filterEmpty(req.TagIDs)

	p, err := e.classifier.Resolve(ctx, tagIDs)
	if err != nil {
		e.log.Errorf("check-out tag resolve failed: %v", err)
		return reject(CodeSystemError, "internal error")
	}

	// 1. 所有 TID 必须存在
	if len(p.Missing) > 0 {
		return reject(CodeTagsNotFound,
			fmt.Sprintf("tags %s do not exist", strings.Join(p.Missing, ", ")))
	}

	// 2. 所有标签必须 active
	if inactive := p.Inactive(); len(inactive) > 0 {
		return reject(CodeTagsNotActive,
			fmt.Sprintf("tags %s are not active", strings.Join(tag.TagIDs(inactive), ", ")))
	}

	// 3. 不允许未绑定/双绑定的标签
	if len(p.Unassigned) > 0 {
		return reject(CodeTagsNotAssigned,
			fmt.Sprintf("tags %s are not assigned to a vehicle or a person", strings.Join(tag.TagIDs(p.Unassigned), ", ")))
	}
	if len(p.Mixed) > 0 {
		return reject(CodeTagsMixedAssigned,
			fmt.Sprintf("tags %s are assigned to both a vehicle and a person", strings.Join(tag.TagIDs(p.Mixed), ", ")))
	}

	// 4. 人卡车卡都要有
	if len(p.Person) == 0 {
		return reject(CodeNoPersonTag, "at least 1 person tag is required")
	}
	if len(p.Vehicle) == 0 {
		return reject(CodeNoVehicleTag, "at least 1 vehicle tag is required")
	}

	// 出示的人集合
	persons := make(map[string]struct{}, len(p.Person))
	for _, pt := range p.Person {
		persons[pt.PartnerID] = struct{}{}
	}

	vehicles, sysErr := e.resolveVehicles(ctx, p.Vehicle)
	if sysErr != nil {
		e.log.Errorf("check-out vehicle resolve failed: %v", sysErr)
		return reject(CodeSystemError, "internal error")
	}

	// 5. 归属校验：每辆车的登记车主必须在出示的人里
	var ownershipErrors []string
	for _, veh := range vehicles {
		if veh.OwnerPartnerID == "" {
			ownershipErrors = append(ownershipErrors, fmt.Sprintf("vehicle %s has no owner", veh.Name))
			continue
		}
		if _, ok := persons[veh.OwnerPartnerID]; !ok {
			ownershipErrors = append(ownershipErrors, fmt.Sprintf("vehicle %s does not belong to any presented person", veh.Name))
		}
	}
	if len(ownershipErrors) > 0 {
		return reject(CodeInvalidOwnership, strings.Join(ownershipErrors, ";\n"))
	}

	// 6. 在场校验：车必须在场内
	var statusErrors []string
	for _, veh := range vehicles {
		if veh.CurrentStatus() != vehicle.StatusInside {
			statusErrors = append(statusErrors, fmt.Sprintf("vehicle %s - %s is not inside the parking lot", veh.Name, veh.PlateNumber))
		}
	}
	if len(statusErrors) > 0 {
		return reject(CodeInvalidStatus, strings.Join(statusErrors, ";\n"))
	}

	// 校验全部通过，逐车落日志；单车失败不回滚其他车
	results := make([]PerTagResult, 0, len(p.Vehicle))
	for _, vt := range p.Vehicle {
		res := e.recorder.CreateLogEntry(ctx, vt.TagID, vehicle.DirectionOut, req.PhotoURL, req.Notes)

		var bill *BillingSummary
		if res.Success && e.calculator != nil && res.Log != nil {
			bill = e.chargeExit(ctx, res.Log)
		}
		results = append(results, e.perTagResult(ctx, vt, res, bill))
	}

	return BatchResult{
		Success:   anySuccess(results),
		Message:   "processed",
		Data:      results,
		ErrorCode: CodeSuccess,
	}
}

// chargeExit 出场计费；计费失败不影响已落库的日志，只记进结果。
func (e *Engine) chargeExit(ctx context.Context, l *parkinglog.VehicleLog) *BillingSummary {
	bill, err := e.calculator.ChargeForExit(ctx, l)
	if err != nil && !errors.Is(err, partner.ErrInsufficientFunds) {
		e.log.Errorf("fee calculation failed for log %s: %v", l.ID, err)
		return nil
	}
	if bill == nil {
		return nil
	}
	return &BillingSummary{
		BillID:         bill.ID,
		BasePrice:      bill.BasePrice,
		OvernightPrice: bill.OvernightPrice,
		TotalPrice:     bill.TotalPrice,
		Paid:           bill.Paid,
	}
}

// perTagResult 补齐车牌/车主信息（尽力而为）。
func (e *Engine) perTagResult(ctx context.Context, vt tag.Tag, res *parkinglog.Result, bill *BillingSummary) PerTagResult {
	out := PerTagResult{
		TagID:     vt.TagID,
		Success:   res.Success,
		Message:   res.Message,
		Data:      res.Data,
		ErrorCode: res.ErrorCode,
		Billing:   bill,
	}
	if out.ErrorCode == "" {
		out.ErrorCode = CodeSuccess
	}

	if vt.VehicleID != "" {
		if veh, err := e.vehicles.FindByID(ctx, vt.VehicleID); err == nil {
			out.VehiclePlateNumber = veh.PlateNumber
			if veh.OwnerPartnerID != "" {
				if owner, err := e.partners.FindByID(ctx, veh.OwnerPartnerID); err == nil {
					out.VehicleOwner = owner.Name
				}
			}
		}
	}
	return out
}

func (e *Engine) resolveVehicles(ctx context.Context, vehicleTags []tag.Tag) ([]*vehicle.Vehicle, error) {
	out := make([]*vehicle.Vehicle, 0, len(vehicleTags))
	seen := make(map[string]struct{}, len(vehicleTags))
	for _, vt := range vehicleTags {
		if _, dup := seen[vt.VehicleID]; dup {
			continue
		}
		seen[vt.VehicleID] = struct{}{}
		veh, err := e.vehicles.FindByID(ctx, vt.VehicleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 车卡指向的车不存在，按无归属处理
				out = append(out, &vehicle.Vehicle{Name: vt.TagID})
				continue
			}
			return nil, err
		}
		out = append(out, veh)
	}
	return out, nil
}

func filterEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}

func anySuccess(results []PerTagResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}
