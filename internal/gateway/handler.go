package gateway

import (
	"github.com/NonStopParking/NonStopParking/internal/admission"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/parkinglog"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"gorm.io/gorm"
)

// Handler 聚合所有 HTTP 入口，业务都在下层服务里，这里只做参数搬运。
type Handler struct {
	engine   *admission.Engine
	tags     *tag.Service
	partners *partner.Service
	vehicles *vehicle.Repo
	recorder *parkinglog.Recorder
	log      logger.Logger
}

func NewHandler(
	db *gorm.DB,
	engine *admission.Engine,
	tags *tag.Service,
	partners *partner.Service,
	recorder *parkinglog.Recorder,
	log logger.Logger,
) *Handler {
	return &Handler{
		engine:   engine,
		tags:     tags,
		partners: partners,
		vehicles: vehicle.NewRepo(db),
		recorder: recorder,
		log:      log,
	}
}
