package gateway

import (
	"errors"
	"net/http"

	"github.com/NonStopParking/NonStopParking/internal/partner"
	"gorm.io/gorm"
)

type topUpRequest struct {
	PartnerID string `json:"partner_id"`
	PackageID string `json:"package_id"`
	Amount    int64  `json:"amount"`
}

// PartnerTopUp 给账户充值：选套餐或直接给金额。
func (h *Handler) PartnerTopUp(w http.ResponseWriter, r *http.Request) {
	var req topUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PartnerID == "" {
		fail(w, "partner_id is required", "MISSING_PARAMS")
		return
	}

	p, err := h.partners.TopUp(r.Context(), req.PartnerID, req.PackageID, req.Amount)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fail(w, "partner not found", "USER_NOT_FOUND")
	case errors.Is(err, partner.ErrInvalidTopUpAmount):
		fail(w, "top-up amount must be positive", "INVALID_PARAMS")
	case err != nil:
		h.log.Errorf("top-up failed: %v", err)
		systemError(w)
	default:
		ok(w, map[string]interface{}{
			"partner_id":    p.ID,
			"name":          p.Name,
			"current_funds": p.CurrentFunds,
			"funds_display": p.DisplayFunds(),
		}, "top-up successful")
	}
}

// PartnerPackages 列出可选充值套餐。
func (h *Handler) PartnerPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.partners.ListPackages(r.Context())
	if err != nil {
		h.log.Errorf("list packages failed: %v", err)
		systemError(w)
		return
	}
	ok(w, map[string]interface{}{"packages": pkgs}, "fund packages")
}
