package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NonStopParking/NonStopParking/internal/admission"
	"github.com/NonStopParking/NonStopParking/internal/billing"
	"github.com/NonStopParking/NonStopParking/internal/common/auth"
	"github.com/NonStopParking/NonStopParking/internal/common/config"
	"github.com/NonStopParking/NonStopParking/internal/common/db"
	"github.com/NonStopParking/NonStopParking/internal/common/logger"
	"github.com/NonStopParking/NonStopParking/internal/parkinglog"
	"github.com/NonStopParking/NonStopParking/internal/partner"
	"github.com/NonStopParking/NonStopParking/internal/tag"
	"github.com/NonStopParking/NonStopParking/internal/vehicle"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	gormDB, err := db.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(
		&tag.Tag{}, &partner.Partner{}, &partner.FundPackage{}, &vehicle.Vehicle{},
		&parkinglog.VehicleLog{}, &billing.VehiclePrice{}, &billing.Bill{},
	))

	require.NoError(t, gormDB.Create(&partner.Partner{ID: "u-1", Name: "An", CurrentFunds: 50000}).Error)
	require.NoError(t, gormDB.Create(&vehicle.Vehicle{
		ID: "v-1", Name: "Wave", PlateNumber: "29A-00001",
		VehicleType: vehicle.TypeMotorcycle, OwnerPartnerID: "u-1",
		TagID: "t-v1", LastDirection: vehicle.DirectionOut,
	}).Error)
	require.NoError(t, gormDB.Create(&tag.Tag{ID: "t-v1", TagID: "TV1", Status: tag.StatusActive, VehicleID: "v-1"}).Error)
	require.NoError(t, gormDB.Create(&billing.VehiclePrice{
		ID: "p-1", VehicleType: vehicle.TypeMotorcycle, DayPrice: 20000, NightPrice: 30000,
	}).Error)

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "parking-service-test"},
		Auth:   config.AuthConfig{Enabled: false},
	}
	log := logger.Nop()
	recorder := parkinglog.NewRecorder(gormDB, nil, log)
	calculator := billing.NewCalculator(gormDB, config.PricingConfig{
		NightThreshold: "15:00", OvernightPerDay: 5000, AllowNegativeBalance: true,
	}, log)
	engine := admission.NewEngine(gormDB, recorder, calculator, log)
	handler := NewHandler(gormDB, engine, tag.NewService(gormDB, log), partner.NewService(gormDB, log), recorder, log)
	return NewRouter(cfg, handler, log)
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckInEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/check/in", map[string]interface{}{
		"tag_ids": []string{"TV1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Success bool `json:"success"`
		Data    []struct {
			TagID   string `json:"tag_id"`
			Success bool   `json:"success"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Len(t, res.Data, 1)
	require.Equal(t, "TV1", res.Data[0].TagID)
	require.True(t, res.Data[0].Success)
}

func TestCheckOutEndpointValidation(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/check/out", map[string]interface{}{
		"tag_ids": []string{"TV1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Success)
	require.Equal(t, "INSUFFICIENT_TAGS", res.ErrorCode)
}

func TestTagLifecycleEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/tag/create", map[string]string{"tag_id": "T900", "epc": "epc-900"})
	var res Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success, res.Message)

	// 重复创建
	rec = postJSON(t, router, "/api/v1/tag/create", map[string]string{"tag_id": "T900"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Success)
	require.Equal(t, "TAG_EXISTS", res.ErrorCode)

	// 查询
	rec = postJSON(t, router, "/api/v1/tag/check", map[string]string{"tag_id": "T900"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)

	rec = postJSON(t, router, "/api/v1/tag/check", map[string]string{"tag_id": "GHOST"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.False(t, res.Success)
	require.Equal(t, "TAG_NOT_FOUND", res.ErrorCode)

	// 绑定到车，再回收
	rec = postJSON(t, router, "/api/v1/assign-tag/vehicle", map[string]string{"tag_id": "T900", "vehicle_id": "v-1"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success, res.Message)

	rec = postJSON(t, router, "/api/v1/tag/revoke", map[string]string{"tag_id": "T900"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success, res.Message)
}

func TestVehicleEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/vehicle/list", map[string]interface{}{
		"owner_partner_id": "u-1",
	})
	var res struct {
		Success bool `json:"success"`
		Data    struct {
			Vehicles []map[string]interface{} `json:"vehicles"`
			Total    int64                    `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.EqualValues(t, 1, res.Data.Total)

	rec = postJSON(t, router, "/api/v1/vehicle/status", map[string]string{"vehicle_id": "v-1"})
	var statusRes Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusRes))
	require.True(t, statusRes.Success)

	rec = postJSON(t, router, "/api/v1/vehicle/list", map[string]interface{}{})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statusRes))
	require.False(t, statusRes.Success)
	require.Equal(t, "MISSING_PARAMS", statusRes.ErrorCode)
}

func TestTopUpEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/partner/topup", map[string]interface{}{
		"partner_id": "u-1",
		"amount":     20000,
	})
	var res struct {
		Success bool `json:"success"`
		Data    struct {
			CurrentFunds int64 `json:"current_funds"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.EqualValues(t, 70000, res.Data.CurrentFunds)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	gormDB, err := db.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&tag.Tag{}, &partner.Partner{}, &partner.FundPackage{}, &vehicle.Vehicle{}, &parkinglog.VehicleLog{}))

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "parking-service-test"},
		Auth: config.AuthConfig{
			Enabled:     true,
			JWTSecret:   "test-secret",
			AdminRole:   "admin",
			PublicPaths: []string{"/api/v1/check/", "/healthz"},
		},
	}
	log := logger.Nop()
	recorder := parkinglog.NewRecorder(gormDB, nil, log)
	engine := admission.NewEngine(gormDB, recorder, nil, log)
	handler := NewHandler(gormDB, engine, tag.NewService(gormDB, log), partner.NewService(gormDB, log), recorder, log)
	router := NewRouter(cfg, handler, log)

	// 出入场是公开路径
	rec := postJSON(t, router, "/api/v1/check/in", map[string]interface{}{"tag_ids": []string{"TV1"}})
	require.Equal(t, http.StatusOK, rec.Code)

	// 管理接口要求 token
	rec = postJSON(t, router, "/api/v1/tag/create", map[string]string{"tag_id": "T1"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// 带合法 admin token 放行
	token, _, err := auth.GenerateAccessToken(cfg.Auth, "operator-1", []string{"admin"}, time.Hour)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]string{"tag_id": "T1"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tag/create", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthWithoutPublicPathsLocksEverything(t *testing.T) {
	gormDB, err := db.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&tag.Tag{}, &partner.Partner{}, &partner.FundPackage{}, &vehicle.Vehicle{}, &parkinglog.VehicleLog{}))

	// 没配 public_paths 时所有路径都要 token，不能反向放行全部
	cfg := &config.Config{
		Server: config.ServerConfig{Name: "parking-service-test"},
		Auth: config.AuthConfig{
			Enabled:   true,
			JWTSecret: "test-secret",
			AdminRole: "admin",
		},
	}
	log := logger.Nop()
	recorder := parkinglog.NewRecorder(gormDB, nil, log)
	engine := admission.NewEngine(gormDB, recorder, nil, log)
	handler := NewHandler(gormDB, engine, tag.NewService(gormDB, log), partner.NewService(gormDB, log), recorder, log)
	router := NewRouter(cfg, handler, log)

	rec := postJSON(t, router, "/api/v1/tag/create", map[string]string{"tag_id": "T1"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, router, "/api/v1/check/in", map[string]interface{}{"tag_ids": []string{"TV1"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := auth.GenerateAccessToken(cfg.Auth, "operator-1", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]string{"tag_id": "T1"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tag/create", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
