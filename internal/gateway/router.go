package gateway

import (
	"net/http"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/common/middleware"
	"github.com/NonStopParking/NonStopParking/internal/common/server"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter 组装全部路由和中间件。
// 出入场接口公开但限流；管理接口走 JWT。
func NewRouter(cfg *config.Config, h *Handler, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(server.Recovery(log))
	r.Use(server.AccessLog(log))
	r.Use(server.Tracing(cfg.Server.Name))
	r.Use(server.RateLimit(
		middleware.NewTokenBucket(200, 100),
		"/api/v1/check/",
	))
	r.Use(server.JWTAuth(cfg.Auth))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", h.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/check/in", h.CheckIn)
		r.Post("/check/out", h.CheckOut)

		r.Post("/tag/check", h.TagCheck)
		r.Post("/tag/create", h.TagCreate)
		r.Post("/tag/revoke", h.TagRevoke)
		r.Post("/assign-tag/vehicle", h.AssignTagToVehicle)
		r.Post("/assign-tag/partner", h.AssignTagToPartner)

		r.Post("/vehicle/list", h.VehicleList)
		r.Post("/vehicle/status", h.VehicleStatus)

		r.Post("/partner/topup", h.PartnerTopUp)
		r.Post("/partner/packages", h.PartnerPackages)
	})

	return r
}
