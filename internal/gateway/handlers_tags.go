package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/tag"
	"gorm.io/gorm"
)

type tagRequest struct {
	TagID  string `json:"tag_id"`
	EPC    string `json:"epc"`
	Status string `json:"status"`
}

type assignRequest struct {
	TagID     string `json:"tag_id"`
	VehicleID string `json:"vehicle_id"`
	PartnerID string `json:"partner_id"`
}

// TagCheck 查询标签是否登记过。
func (h *Handler) TagCheck(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TagID == "" {
		fail(w, "tag_id is required", "MISSING_PARAMS")
		return
	}

	t, err := h.tags.CheckTag(r.Context(), req.TagID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(w, "tag does not exist", "TAG_NOT_FOUND")
		return
	}
	if err != nil {
		h.log.Errorf("tag check failed: %v", err)
		systemError(w)
		return
	}
	ok(w, tagView(t), "tag exists")
}

// TagCreate 登记新标签，状态默认 pending。
func (h *Handler) TagCreate(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TagID == "" {
		fail(w, "tag_id is required", "MISSING_PARAMS")
		return
	}

	t, err := h.tags.CreateTag(r.Context(), req.TagID, req.EPC, tag.Status(req.Status))
	switch {
	case errors.Is(err, tag.ErrTagExists):
		fail(w, "tag id already exists", "TAG_EXISTS")
	case err != nil:
		h.log.Errorf("tag create failed: %v", err)
		systemError(w)
	default:
		ok(w, tagView(t), "tag created")
	}
}

// AssignTagToVehicle 把标签绑定到车辆。
func (h *Handler) AssignTagToVehicle(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.VehicleID == "" || req.TagID == "" {
		fail(w, "vehicle_id and tag_id are required", "MISSING_PARAMS")
		return
	}

	t, err := h.tags.AssignToVehicle(r.Context(), req.VehicleID, req.TagID)
	h.writeAssignResult(w, t, err, "vehicle not found", "VEHICLE_NOT_FOUND")
}

// AssignTagToPartner 把标签绑定到持卡人。
func (h *Handler) AssignTagToPartner(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PartnerID == "" || req.TagID == "" {
		fail(w, "partner_id and tag_id are required", "MISSING_PARAMS")
		return
	}

	t, err := h.tags.AssignToPartner(r.Context(), req.PartnerID, req.TagID)
	h.writeAssignResult(w, t, err, "partner not found", "USER_NOT_FOUND")
}

// TagRevoke 回收标签。
func (h *Handler) TagRevoke(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TagID == "" {
		fail(w, "tag_id is required", "MISSING_PARAMS")
		return
	}

	t, err := h.tags.Revoke(r.Context(), req.TagID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(w, "tag does not exist", "TAG_NOT_FOUND")
	case err != nil:
		h.log.Errorf("tag revoke failed: %v", err)
		systemError(w)
	default:
		ok(w, tagView(t), "tag revoked")
	}
}

func (h *Handler) writeAssignResult(w http.ResponseWriter, t *tag.Tag, err error, notFoundMsg, notFoundCode string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(w, notFoundMsg, notFoundCode)
	case errors.Is(err, tag.ErrTagInUse):
		fail(w, "tag is already in use", "INVALID_TAG_ASSIGNMENT")
	case errors.Is(err, tag.ErrTagDangling):
		fail(w, "tag is active but not assigned, check tag data", "INVALID_TAG_ASSIGNMENT")
	case err != nil:
		h.log.Errorf("tag assign failed: %v", err)
		systemError(w)
	default:
		ok(w, tagView(t), "tag assigned")
	}
}

func tagView(t *tag.Tag) map[string]interface{} {
	return map[string]interface{}{
		"id":          t.ID,
		"tag_id":      t.TagID,
		"epc":         t.EPC,
		"status":      t.Status,
		"partner_id":  t.PartnerID,
		"vehicle_id":  t.VehicleID,
		"create_date": t.CreatedAt.Format(time.RFC3339),
	}
}
