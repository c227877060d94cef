package gateway

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"
)

type vehicleListRequest struct {
	OwnerPartnerID string `json:"owner_partner_id"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
}

type vehicleStatusRequest struct {
	VehicleID string `json:"vehicle_id"`
}

// VehicleList 按车主分页列车辆。
func (h *Handler) VehicleList(w http.ResponseWriter, r *http.Request) {
	var req vehicleListRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OwnerPartnerID == "" {
		fail(w, "owner_partner_id is required", "MISSING_PARAMS")
		return
	}

	vehicles, total, err := h.vehicles.List(r.Context(), req.OwnerPartnerID, req.Offset, req.Limit)
	if err != nil {
		h.log.Errorf("vehicle list failed: %v", err)
		systemError(w)
		return
	}

	items := make([]map[string]interface{}, 0, len(vehicles))
	for _, v := range vehicles {
		items = append(items, map[string]interface{}{
			"id":               v.ID,
			"name":             v.Name,
			"plate_number":     v.PlateNumber,
			"color":            v.Color,
			"vehicle_type":     v.VehicleType,
			"owner_partner_id": v.OwnerPartnerID,
			"tag_id":           v.TagID,
			"status":           v.CurrentStatus(),
			"create_date":      v.CreatedAt.Format(time.RFC3339),
		})
	}
	ok(w, map[string]interface{}{
		"vehicles": items,
		"total":    total,
		"limit":    req.Limit,
		"offset":   req.Offset,
	}, "vehicle list")
}

// VehicleStatus 查车辆实时在场状态。
func (h *Handler) VehicleStatus(w http.ResponseWriter, r *http.Request) {
	var req vehicleStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.VehicleID == "" {
		fail(w, "vehicle_id is required", "MISSING_PARAMS")
		return
	}

	st, err := h.recorder.GetVehicleStatus(r.Context(), req.VehicleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(w, "vehicle not found", "VEHICLE_NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Errorf("vehicle status failed: %v", err)
		systemError(w)
		return
	}
	ok(w, st, "vehicle status")
}
