package gateway

import (
	"net/http"

	"github.com/NonStopParking/NonStopParking/internal/admission"
)

// CheckIn 车辆入场：读卡器上报的一批 TID。
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req admission.CheckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := h.engine.CheckIn(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}

// CheckOut 车辆出场：人卡+车卡一并上报。
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req admission.CheckRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := h.engine.CheckOut(r.Context(), req)
	writeJSON(w, http.StatusOK, res)
}

// Healthz 健康检查，同时给 consul 的 HTTP check 用。
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	ok(w, map[string]string{"status": "ok"}, "healthy")
}
