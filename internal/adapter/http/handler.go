package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"emergencyworldwide/internal/adapter/origin"
	"emergencyworldwide/internal/app/dispatch"
	"emergencyworldwide/internal/app/ledger"
	"emergencyworldwide/internal/app/pool"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/app/replay"
	"emergencyworldwide/internal/app/scheduler"
	"emergencyworldwide/internal/app/status"
	"emergencyworldwide/internal/domain/catalog"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Handler struct {
	LedgerUC       ledger.UseCase
	PoolUC         pool.UseCase
	Dispatch       *dispatch.Coordinator
	Scheduler      *scheduler.Scheduler
	StatusUC       status.UseCase
	ReplayUC       replay.UseCase
	Catalog        *catalog.Catalog
	KPI            kpiSnapshotProvider
	// DevRoutes exposes POST /api/dev/spawn for manual mission generation.
	DevRoutes      bool
	Limiter        *IPRateLimiter
	// AllowedOrigins get CORS headers. Empty means no cross-origin access.
	AllowedOrigins origin.Allowlist
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowedOrigins))
	if h.Limiter != nil {
		s.Use(h.Limiter.Middleware())
	}

	api := s.Group("/api")
	api.GET("/state", h.state)
	api.POST("/season-pass", h.purchaseSeasonPass)
	api.GET("/catalog", h.catalog)

	api.GET("/buildings", h.listBuildings)
	api.POST("/buildings", h.purchaseBuilding)
	api.GET("/buildings/:id/vehicles", h.listBuildingVehicles)
	api.POST("/buildings/:id/refund", h.refundBuilding)

	api.GET("/vehicles", h.listVehicles)
	api.POST("/vehicles", h.purchaseVehicle)
	api.POST("/vehicles/:id/refund", h.refundVehicle)

	api.GET("/missions", h.listMissions)
	api.POST("/missions/:id/dispatch", h.dispatch)
	api.POST("/missions/:id/complete", h.complete)

	api.GET("/events", h.events)
	if h.DevRoutes {
		api.POST("/dev/spawn", h.spawn)
	}

	s.GET("/ops/kpi", h.kpi)
	s.GET("/healthz", h.healthz)
}

type dispatchRequest struct {
	VehicleIDs []string `json:"vehicle_ids"`
	// VehicleID is accepted for single-vehicle clients.
	VehicleID string `json:"vehicle_id,omitempty"`
}

func (h Handler) state(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) purchaseSeasonPass(c context.Context, ctx *app.RequestContext) {
	p, err := h.LedgerUC.PurchaseSeasonPass(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, p)
}

func (h Handler) catalog(_ context.Context, ctx *app.RequestContext) {
	if h.Catalog == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "catalog not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.Catalog.View())
}

func (h Handler) listBuildings(c context.Context, ctx *app.RequestContext) {
	out, err := h.PoolUC.ListBuildings(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"buildings": out})
}

func (h Handler) purchaseBuilding(c context.Context, ctx *app.RequestContext) {
	var body pool.PurchaseBuildingRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.PoolUC.PurchaseBuilding(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) refundBuilding(c context.Context, ctx *app.RequestContext) {
	resp, err := h.PoolUC.RefundBuilding(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listBuildingVehicles(c context.Context, ctx *app.RequestContext) {
	out, err := h.PoolUC.ListVehiclesByBuilding(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"vehicles": out})
}

func (h Handler) listVehicles(c context.Context, ctx *app.RequestContext) {
	var (
		out []fleet.Vehicle
		err error
	)
	if buildingID := strings.TrimSpace(string(ctx.Query("building_id"))); buildingID != "" {
		out, err = h.PoolUC.ListVehiclesByBuilding(c, buildingID)
	} else {
		out, err = h.PoolUC.ListVehicles(c)
	}
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"vehicles": out})
}

func (h Handler) purchaseVehicle(c context.Context, ctx *app.RequestContext) {
	var body pool.PurchaseVehicleRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.PoolUC.PurchaseVehicle(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) refundVehicle(c context.Context, ctx *app.RequestContext) {
	resp, err := h.PoolUC.RefundVehicle(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listMissions(c context.Context, ctx *app.RequestContext) {
	filter := strings.TrimSpace(string(ctx.Query("status")))
	out, err := h.Dispatch.ListMissions(c, filter)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"missions": out})
}

func (h Handler) dispatch(c context.Context, ctx *app.RequestContext) {
	var body dispatchRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ids := body.VehicleIDs
	if len(ids) == 0 && body.VehicleID != "" {
		ids = []string{body.VehicleID}
	}
	resp, err := h.Dispatch.Dispatch(c, dispatch.Request{MissionID: ctx.Param("id"), VehicleIDs: ids})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) complete(c context.Context, ctx *app.RequestContext) {
	resp, err := h.Dispatch.Complete(c, ctx.Param("id"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) events(c context.Context, ctx *app.RequestContext) {
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		Name:         string(ctx.Query("type")),
		MissionID:    string(ctx.Query("mission_id")),
		Limit:        limit,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) spawn(c context.Context, ctx *app.RequestContext) {
	if h.Scheduler == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "scheduler not configured")
		return
	}
	m, err := h.Scheduler.SpawnOne(c)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if m == nil {
		writeErrorBody(ctx, consts.StatusConflict, "no_buildings", "no buildings to anchor a mission")
		return
	}
	ctx.JSON(consts.StatusCreated, m)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) healthz(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		writeErrorBody(ctx, consts.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, fleet.ErrBuildingNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "building_not_found", err.Error())
	case errors.Is(err, fleet.ErrVehicleNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "vehicle_not_found", err.Error())
	case errors.Is(err, fleet.ErrMissionNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "mission_not_found", err.Error())
	case errors.Is(err, catalog.ErrUnknownItemType):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_item_type", err.Error())
	case errors.Is(err, fleet.ErrInvalidLocation):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_location", err.Error())
	case errors.Is(err, fleet.ErrIncompatibleVehicleType):
		writeErrorBody(ctx, consts.StatusConflict, "incompatible_vehicle_type", err.Error())
	case errors.Is(err, fleet.ErrVehicleAlreadyAssigned):
		writeErrorBody(ctx, consts.StatusConflict, "vehicle_already_assigned", err.Error())
	case errors.Is(err, fleet.ErrVehicleNotAvailable):
		writeErrorBody(ctx, consts.StatusConflict, "vehicle_not_available", err.Error())
	case errors.Is(err, fleet.ErrVehicleBusy):
		writeErrorBody(ctx, consts.StatusConflict, "vehicle_busy", err.Error())
	case errors.Is(err, fleet.ErrVehicleNotAllowed):
		writeErrorBody(ctx, consts.StatusConflict, "vehicle_not_allowed", err.Error())
	case errors.Is(err, fleet.ErrHasAttachedVehicles):
		writeErrorBody(ctx, consts.StatusConflict, "has_attached_vehicles", err.Error())
	case errors.Is(err, fleet.ErrMissionNotActive):
		writeErrorBody(ctx, consts.StatusConflict, "mission_not_active", err.Error())
	case errors.Is(err, fleet.ErrMissionNotAssigned):
		writeErrorBody(ctx, consts.StatusConflict, "mission_not_assigned", err.Error())
	case errors.Is(err, economy.ErrAlreadyOwned):
		writeErrorBody(ctx, consts.StatusConflict, "already_owned", err.Error())
	case errors.Is(err, pool.ErrInvalidRequest),
		errors.Is(err, dispatch.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, economy.ErrInvalidAmount):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
