package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/warung-pos/api/internal/database"
	"github.com/warung-pos/api/internal/handler"
	"github.com/warung-pos/api/internal/middleware"
	"github.com/warung-pos/api/internal/service"
)

type mockTableService struct {
	setStatusFn func(ctx context.Context, tableNumber int32, status database.TableStatus) (database.DiningTable, error)
}

func (m *mockTableService) SetStatus(ctx context.Context, tableNumber int32, status database.TableStatus) (database.DiningTable, error) {
	return m.setStatusFn(ctx, tableNumber, status)
}

type mockTableStore struct {
	getTableFn   func(ctx context.Context, tableNumber int32) (database.DiningTable, error)
	listTablesFn func(ctx context.Context) ([]database.DiningTable, error)
}

func (m *mockTableStore) GetTable(ctx context.Context, tableNumber int32) (database.DiningTable, error) {
	if m.getTableFn != nil {
		return m.getTableFn(ctx, tableNumber)
	}
	return database.DiningTable{}, pgx.ErrNoRows
}
func (m *mockTableStore) ListTables(ctx context.Context) ([]database.DiningTable, error) {
	if m.listTablesFn != nil {
		return m.listTablesFn(ctx)
	}
	return []database.DiningTable{}, nil
}

func setupTableRouter(svc *mockTableService, store *mockTableStore, hub *mockHub) *chi.Mux {
	h := handler.NewTableHandler(svc, store, hub)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func TestListTablesHandler(t *testing.T) {
	store := &mockTableStore{
		listTablesFn: func(ctx context.Context) ([]database.DiningTable, error) {
			return []database.DiningTable{
				{TableNumber: 1, Status: database.TableStatusAVAILABLE, Capacity: 2},
				{TableNumber: 2, Status: database.TableStatusOCCUPIED, Capacity: 4},
			}, nil
		},
	}
	router := setupTableRouter(&mockTableService{}, store, &mockHub{})

	rr := doAuthRequest(t, router, "GET", "/tables", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []struct {
		TableNumber int32  `json:"table_number"`
		Status      string `json:"status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[1].Status != "OCCUPIED" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestGetTableHandler_NotFound(t *testing.T) {
	router := setupTableRouter(&mockTableService{}, &mockTableStore{}, &mockHub{})

	rr := doAuthRequest(t, router, "GET", "/tables/99", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUpdateTableStatusHandler_UnknownStatus(t *testing.T) {
	svc := &mockTableService{
		setStatusFn: func(ctx context.Context, tableNumber int32, status database.TableStatus) (database.DiningTable, error) {
			return database.DiningTable{}, service.ErrUnknownTableStatus
		},
	}
	router := setupTableRouter(svc, &mockTableStore{}, &mockHub{})

	rr := doAuthRequest(t, router, "PATCH", "/tables/4/status", map[string]string{"status": "BROKEN"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateTableStatusHandler_Broadcasts(t *testing.T) {
	svc := &mockTableService{
		setStatusFn: func(ctx context.Context, tableNumber int32, status database.TableStatus) (database.DiningTable, error) {
			return database.DiningTable{
				TableNumber:   tableNumber,
				Status:        status,
				LastCleanedAt: pgtype.Timestamptz{},
			}, nil
		},
	}
	hub := &mockHub{}
	router := setupTableRouter(svc, &mockTableStore{}, hub)

	rr := doAuthRequest(t, router, "PATCH", "/tables/4/status", map[string]string{"status": "AVAILABLE"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !contains(hub.eventTypes(), "TABLE_STATUS_CHANGED") {
		t.Error("expected TABLE_STATUS_CHANGED broadcast")
	}
}
