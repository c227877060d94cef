package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/NonStopParking/NonStopParking/internal/admission"
	"github.com/NonStopParking/NonStopParking/internal/billing"
	"github.com/NonStopParking/NonStopParking/internal/cloudsync"
	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/db"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/common/server"
	"github.com/NonStopParking/NonStopParking/internal/common/tracing"
	"github.com/NonStopParking/NonStopParking/internal/gateway"
	"github.com/NonStopParking/NonStopParking/internal/notify"
	"github.com/NonStopParking/NonStopParking/internal/parkinglog"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
)

var (
	configPath = flag.String("config", "configs/parking-service.json", "配置文件路径")
	consulKey  = flag.String("consul-key", "", "从 Consul KV 加载配置的 key（优先于 -config）")
)

func main() {
	flag.Parse()

	// 加载配置
	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		bootstrap, bErr := config.LoadConfig(*configPath)
		if bErr != nil {
			panic(fmt.Sprintf("failed to load bootstrap config: %v", bErr))
		}
		cfg, err = config.LoadConfigFromConsulKV(bootstrap.Consul.Host, bootstrap.Consul.Port, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&tag.Tag{},
		&partner.Partner{},
		&partner.FundPackage{},
		&vehicle.Vehicle{},
		&parkinglog.VehicleLog{},
		&billing.VehiclePrice{},
		&billing.Bill{},
		&cloudsync.QueueItem{},
	); err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 通知发布：配了 kafka 就推 kafka，否则空实现
	var notifier notify.Notifier
	if len(cfg.Kafka.Brokers) > 0 {
		kn, err := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Warnf("failed to init kafka notifier: %v", err)
			notifier = notify.NewNopNotifier()
		} else {
			notifier = kn
			defer kn.Close()
		}
	} else {
		notifier = notify.NewNopNotifier()
	}

	// 业务装配
	recorder := parkinglog.NewRecorder(gormDB, notifier, log)
	calculator := billing.NewCalculator(gormDB, cfg.Pricing, log)
	engine := admission.NewEngine(gormDB, recorder, calculator, log)
	tagSvc := tag.NewService(gormDB, log)
	partnerSvc := partner.NewService(gormDB, log)

	// 云端同步
	if cfg.Sync.Enabled {
		pusher := cloudsync.NewPusher(gormDB, cloudsync.NewClient(cfg.Sync), cfg.Sync, log)
		syncCtx, cancelSync := context.WithCancel(context.Background())
		defer cancelSync()
		go pusher.Run(syncCtx)
	}

	handler := gateway.NewHandler(gormDB, engine, tagSvc, partnerSvc, recorder, log)
	router := gateway.NewRouter(cfg, handler, log)

	if err := server.RunHTTPServer(cfg, log, router); err != nil {
		log.Fatalf("parking-service exited with error: %v", err)
	}
}
