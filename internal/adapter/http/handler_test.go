package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"emergencyworldwide/internal/adapter/metrics/inmemory"
	"emergencyworldwide/internal/adapter/repo/memory"
	"emergencyworldwide/internal/app/dispatch"
	"emergencyworldwide/internal/app/ledger"
	"emergencyworldwide/internal/app/pool"
	"emergencyworldwide/internal/app/ports"
	"emergencyworldwide/internal/app/replay"
	"emergencyworldwide/internal/app/status"
	"emergencyworldwide/internal/domain/catalog"
	"emergencyworldwide/internal/domain/economy"
	"emergencyworldwide/internal/domain/fleet"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"
)

type testServer struct {
	h        Handler
	missions memory.MissionRepo
	kpi      *inmemory.Recorder
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	store := memory.NewStore()
	tx := memory.NewTxManager(store)
	rules := economy.DefaultRules()
	kpi := inmemory.NewRecorder()
	l := ledger.UseCase{
		TxManager:       tx,
		Progression:     memory.NewProgressionRepo(store),
		Rules:           rules,
		SeasonPassPrice: 1000,
	}
	seq := 0
	p := pool.UseCase{
		TxManager: tx,
		Buildings: memory.NewBuildingRepo(store),
		Vehicles:  memory.NewVehicleRepo(store),
		Ledger:    l,
		Catalog:   cat,
		Rates:     pool.RefundRates{Building: 0.5, Vehicle: 0.5},
		Metrics:   kpi,
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	}
	coord := &dispatch.Coordinator{
		TxManager: tx,
		Missions:  memory.NewMissionRepo(store),
		Vehicles:  memory.NewVehicleRepo(store),
		Pool:      p,
		Ledger:    l,
		Catalog:   cat,
		Metrics:   kpi,
		Config:    dispatch.DefaultConfig(),
	}
	t.Cleanup(coord.Close)

	return testServer{
		h: Handler{
			LedgerUC: l,
			PoolUC:   p,
			Dispatch: coord,
			StatusUC: status.UseCase{
				TxManager: tx,
				Ledger:    l,
				Buildings: memory.NewBuildingRepo(store),
				Vehicles:  memory.NewVehicleRepo(store),
				Missions:  memory.NewMissionRepo(store),
				Rules:     rules,
			},
			ReplayUC: replay.UseCase{TxManager: tx, Events: memory.NewEventRepo(store)},
			Catalog:  cat,
			KPI:      kpi,
		},
		missions: memory.NewMissionRepo(store),
		kpi:      kpi,
	}
}

func call(handler app.HandlerFunc, body string, params ...param.Param) *app.RequestContext {
	return callURI(handler, "", body, params...)
}

func callURI(handler app.HandlerFunc, uri, body string, params ...param.Param) *app.RequestContext {
	ctx := &app.RequestContext{}
	if uri != "" {
		ctx.Request.SetRequestURI(uri)
	}
	if body != "" {
		ctx.Request.SetBody([]byte(body))
	}
	ctx.Params = param.Params(params)
	handler(context.Background(), ctx)
	return ctx
}

func decodeBody(t *testing.T, ctx *app.RequestContext, out any) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), out); err != nil {
		t.Fatalf("unmarshal response: %v body=%s", err, ctx.Response.Body())
	}
}

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var body map[string]map[string]string
	decodeBody(t, ctx, &body)
	return body["error"]["code"]
}

func TestPurchaseDispatchAndState(t *testing.T) {
	s := newTestServer(t)

	ctx := call(s.h.purchaseBuilding, `{"type":"fire_station","location":{"lat":-37.81,"lon":144.96}}`)
	if got := ctx.Response.StatusCode(); got != consts.StatusCreated {
		t.Fatalf("purchase building status=%d body=%s", got, ctx.Response.Body())
	}
	var building pool.PurchaseBuildingResponse
	decodeBody(t, ctx, &building)
	if building.Budget != 300000 {
		t.Fatalf("expected budget 300000, got %d", building.Budget)
	}

	ctx = call(s.h.purchaseVehicle, fmt.Sprintf(`{"type":"fire_truck","building_id":%q}`, building.Building.ID))
	if got := ctx.Response.StatusCode(); got != consts.StatusCreated {
		t.Fatalf("purchase vehicle status=%d body=%s", got, ctx.Response.Body())
	}
	var vehicle pool.PurchaseVehicleResponse
	decodeBody(t, ctx, &vehicle)
	if vehicle.Budget != 250000 {
		t.Fatalf("expected budget 250000, got %d", vehicle.Budget)
	}

	expires := time.Now().Add(time.Hour)
	if err := s.missions.Create(context.Background(), fleet.Mission{
		ID: "m-1", Type: "bush_fire", Status: fleet.MissionActive,
		Reward: fleet.Reward{XP: 300, Currency: 5000}, CreatedAt: time.Now(), ExpiresAt: &expires,
	}); err != nil {
		t.Fatalf("seed mission: %v", err)
	}

	ctx = call(s.h.dispatch, fmt.Sprintf(`{"vehicle_ids":[%q]}`, vehicle.Vehicle.ID), param.Param{Key: "id", Value: "m-1"})
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("dispatch status=%d body=%s", got, ctx.Response.Body())
	}
	var dispatched dispatch.Response
	decodeBody(t, ctx, &dispatched)
	if dispatched.Mission.Status != fleet.MissionCompleted || dispatched.Settlement == nil {
		t.Fatalf("expected instant completion with settlement, got %+v", dispatched)
	}

	ctx = call(s.h.dispatch, fmt.Sprintf(`{"vehicle_id":%q}`, vehicle.Vehicle.ID), param.Param{Key: "id", Value: "m-1"})
	if got := ctx.Response.StatusCode(); got != consts.StatusConflict {
		t.Fatalf("second dispatch status=%d", got)
	}

	ctx = call(s.h.state, "")
	if got := ctx.Response.StatusCode(); got != consts.StatusOK {
		t.Fatalf("state status=%d", got)
	}
	var st status.Response
	decodeBody(t, ctx, &st)
	if st.State.Budget != 255000 || st.State.XP != 300 {
		t.Fatalf("unexpected state: %+v", st.State)
	}
	if st.Buildings != 1 || st.Vehicles != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}

	if snap := s.kpi.Snapshot(); snap.Dispatches != 1 || snap.Purchases["building"] != 1 {
		t.Fatalf("unexpected kpi: %+v", snap)
	}
}

func TestRefundBuildingWithVehicleIsRejected(t *testing.T) {
	s := newTestServer(t)
	ctx := call(s.h.purchaseBuilding, `{"type":"medical_center","location":{"lat":1,"lon":1}}`)
	var building pool.PurchaseBuildingResponse
	decodeBody(t, ctx, &building)
	call(s.h.purchaseVehicle, fmt.Sprintf(`{"type":"ambulance","building_id":%q}`, building.Building.ID))

	ctx = call(s.h.refundBuilding, "", param.Param{Key: "id", Value: building.Building.ID})
	if got := ctx.Response.StatusCode(); got != consts.StatusConflict {
		t.Fatalf("status=%d body=%s", got, ctx.Response.Body())
	}
	if got := errorCode(t, ctx); got != "has_attached_vehicles" {
		t.Fatalf("unexpected code %q", got)
	}
}

func TestPurchaseBuilding_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	ctx := call(s.h.purchaseBuilding, `{"type":`)
	if got := ctx.Response.StatusCode(); got != consts.StatusBadRequest {
		t.Fatalf("status=%d", got)
	}
	if got := errorCode(t, ctx); got != "invalid_json" {
		t.Fatalf("unexpected code %q", got)
	}
}

func TestListMissions_UnknownFilter(t *testing.T) {
	s := newTestServer(t)
	ctx := callURI(s.h.listMissions, "/api/missions?status=bogus", "")
	if got := ctx.Response.StatusCode(); got != consts.StatusBadRequest {
		t.Fatalf("status=%d body=%s", got, ctx.Response.Body())
	}
}

func TestCatalogAndKPI(t *testing.T) {
	s := newTestServer(t)
	ctx := call(s.h.catalog, "")
	var view catalog.View
	decodeBody(t, ctx, &view)
	if len(view.Buildings) == 0 || len(view.Vehicles) == 0 || len(view.Incidents) == 0 {
		t.Fatalf("catalog view must not be empty: %+v", view)
	}

	ctx = call(Handler{}.kpi, "")
	if got := ctx.Response.StatusCode(); got != consts.StatusNotFound {
		t.Fatalf("kpi without provider status=%d", got)
	}
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("debit: %w", economy.ErrInsufficientFunds), consts.StatusPaymentRequired, "insufficient_funds"},
		{fleet.ErrMissionNotFound, consts.StatusNotFound, "mission_not_found"},
		{fleet.ErrVehicleNotFound, consts.StatusNotFound, "vehicle_not_found"},
		{catalog.ErrUnknownItemType, consts.StatusBadRequest, "unknown_item_type"},
		{fleet.ErrIncompatibleVehicleType, consts.StatusConflict, "incompatible_vehicle_type"},
		{fleet.ErrVehicleAlreadyAssigned, consts.StatusConflict, "vehicle_already_assigned"},
		{fleet.ErrMissionNotActive, consts.StatusConflict, "mission_not_active"},
		{economy.ErrAlreadyOwned, consts.StatusConflict, "already_owned"},
		{pool.ErrInvalidRequest, consts.StatusBadRequest, "bad_request"},
		{ports.ErrNotFound, consts.StatusNotFound, "not_found"},
		{fmt.Errorf("boom"), consts.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		writeError(ctx, tc.err)
		if got := ctx.Response.StatusCode(); got != tc.status {
			t.Fatalf("%v: status got=%d want=%d", tc.err, got, tc.status)
		}
		if got := errorCode(t, ctx); got != tc.code {
			t.Fatalf("%v: code got=%q want=%q", tc.err, got, tc.code)
		}
	}
}
