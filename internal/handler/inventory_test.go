package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/warung-pos/api/internal/database"
	"github.com/warung-pos/api/internal/handler"
	"github.com/warung-pos/api/internal/middleware"
	"github.com/warung-pos/api/internal/service"
)

type mockInventoryService struct {
	adjustStockFn func(ctx context.Context, req service.AdjustStockRequest) (*service.AdjustStockResult, error)
}

func (m *mockInventoryService) AdjustStock(ctx context.Context, req service.AdjustStockRequest) (*service.AdjustStockResult, error) {
	return m.adjustStockFn(ctx, req)
}

type mockInventoryStore struct {
	getInventoryItemFn   func(ctx context.Context, id uuid.UUID) (database.InventoryItem, error)
	listInventoryItemsFn func(ctx context.Context) ([]database.InventoryItem, error)
	listLowStockItemsFn  func(ctx context.Context) ([]database.InventoryItem, error)
	listStockMovementsFn func(ctx context.Context, arg database.ListStockMovementsParams) ([]database.StockMovement, error)
}

func (m *mockInventoryStore) GetInventoryItem(ctx context.Context, id uuid.UUID) (database.InventoryItem, error) {
	if m.getInventoryItemFn != nil {
		return m.getInventoryItemFn(ctx, id)
	}
	return database.InventoryItem{}, pgx.ErrNoRows
}
func (m *mockInventoryStore) ListInventoryItems(ctx context.Context) ([]database.InventoryItem, error) {
	if m.listInventoryItemsFn != nil {
		return m.listInventoryItemsFn(ctx)
	}
	return []database.InventoryItem{}, nil
}
func (m *mockInventoryStore) ListLowStockItems(ctx context.Context) ([]database.InventoryItem, error) {
	if m.listLowStockItemsFn != nil {
		return m.listLowStockItemsFn(ctx)
	}
	return []database.InventoryItem{}, nil
}
func (m *mockInventoryStore) ListStockMovements(ctx context.Context, arg database.ListStockMovementsParams) ([]database.StockMovement, error) {
	if m.listStockMovementsFn != nil {
		return m.listStockMovementsFn(ctx, arg)
	}
	return []database.StockMovement{}, nil
}

func setupInventoryRouter(svc *mockInventoryService, store *mockInventoryStore, hub *mockHub) *chi.Mux {
	h := handler.NewInventoryHandler(svc, store, hub)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	h.RegisterRoutes(r)
	return r
}

func TestAdjustStockHandler_Success(t *testing.T) {
	itemID := uuid.New()
	svc := &mockInventoryService{
		adjustStockFn: func(ctx context.Context, req service.AdjustStockRequest) (*service.AdjustStockResult, error) {
			if req.Quantity.String() != "5" || req.MovementType != database.MovementTypePURCHASE {
				t.Errorf("unexpected request: %+v", req)
			}
			return &service.AdjustStockResult{
				Item: database.InventoryItem{
					ID:           itemID,
					Name:         "Rice",
					CurrentStock: makeNumeric("15.000"),
					MinimumStock: makeNumeric("5.000"),
				},
				Movement: database.StockMovement{
					ID:              uuid.New(),
					InventoryItemID: itemID,
					Quantity:        makeNumeric("5.000"),
					MovementType:    database.MovementTypePURCHASE,
				},
			}, nil
		},
	}
	router := setupInventoryRouter(svc, &mockInventoryStore{}, &mockHub{})

	rr := doAuthRequest(t, router, "POST", "/inventory/items/"+itemID.String()+"/adjustments",
		map[string]string{"quantity": "5", "movement_type": "PURCHASE"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Item struct {
			CurrentStock string `json:"current_stock"`
			LowStock     bool   `json:"low_stock"`
		} `json:"item"`
		Movement struct {
			Quantity string `json:"quantity"`
		} `json:"movement"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Item.CurrentStock != "15.00" {
		t.Errorf("current stock: got %s", resp.Item.CurrentStock)
	}
	if resp.Item.LowStock {
		t.Error("expected low_stock=false")
	}
	if resp.Movement.Quantity != "5.00" {
		t.Errorf("movement quantity: got %s", resp.Movement.Quantity)
	}
}

func TestAdjustStockHandler_InsufficientStock(t *testing.T) {
	svc := &mockInventoryService{
		adjustStockFn: func(ctx context.Context, req service.AdjustStockRequest) (*service.AdjustStockResult, error) {
			return nil, service.ErrInsufficientStock
		},
	}
	router := setupInventoryRouter(svc, &mockInventoryStore{}, &mockHub{})

	rr := doAuthRequest(t, router, "POST", "/inventory/items/"+uuid.New().String()+"/adjustments",
		map[string]string{"quantity": "-100", "movement_type": "WASTE"})
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestAdjustStockHandler_BadQuantity(t *testing.T) {
	router := setupInventoryRouter(&mockInventoryService{}, &mockInventoryStore{}, &mockHub{})

	rr := doAuthRequest(t, router, "POST", "/inventory/items/"+uuid.New().String()+"/adjustments",
		map[string]string{"quantity": "five", "movement_type": "PURCHASE"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAdjustStockHandler_LowStockAlert(t *testing.T) {
	itemID := uuid.New()
	svc := &mockInventoryService{
		adjustStockFn: func(ctx context.Context, req service.AdjustStockRequest) (*service.AdjustStockResult, error) {
			return &service.AdjustStockResult{
				Item: database.InventoryItem{
					ID:           itemID,
					Name:         "Rice",
					CurrentStock: makeNumeric("2.000"),
					MinimumStock: makeNumeric("5.000"),
				},
				Movement: database.StockMovement{ID: uuid.New(), InventoryItemID: itemID},
			}, nil
		},
	}
	hub := &mockHub{}
	router := setupInventoryRouter(svc, &mockInventoryStore{}, hub)

	rr := doAuthRequest(t, router, "POST", "/inventory/items/"+itemID.String()+"/adjustments",
		map[string]string{"quantity": "-8", "movement_type": "ORDER"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if !contains(hub.eventTypes(), "LOW_STOCK_ALERT") {
		t.Error("expected LOW_STOCK_ALERT broadcast")
	}
}

func TestLowStockHandler(t *testing.T) {
	store := &mockInventoryStore{
		listLowStockItemsFn: func(ctx context.Context) ([]database.InventoryItem, error) {
			return []database.InventoryItem{{
				ID:           uuid.New(),
				Name:         "Rice",
				CurrentStock: makeNumeric("2.000"),
				MinimumStock: makeNumeric("5.000"),
			}}, nil
		},
	}
	router := setupInventoryRouter(&mockInventoryService{}, store, &mockHub{})

	rr := doAuthRequest(t, router, "GET", "/inventory/low-stock", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp []struct {
		Name     string `json:"name"`
		LowStock bool   `json:"low_stock"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || !resp[0].LowStock {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestMovementsHandler_BadDateFilter(t *testing.T) {
	router := setupInventoryRouter(&mockInventoryService{}, &mockInventoryStore{}, &mockHub{})

	rr := doAuthRequest(t, router, "GET", "/inventory/movements?start_date=02-01-2026", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
