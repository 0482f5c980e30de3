package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/warung-pos/api/internal/database"
	"github.com/warung-pos/api/internal/service"
)

// InventoryServicer defines the service methods needed by inventory
// handlers. Satisfied by *service.InventoryService.
type InventoryServicer interface {
	AdjustStock(ctx context.Context, req service.AdjustStockRequest) (*service.AdjustStockResult, error)
}

// InventoryReadStore defines the database methods needed by inventory read
// handlers. Satisfied by *database.Queries.
type InventoryReadStore interface {
	GetInventoryItem(ctx context.Context, id uuid.UUID) (database.InventoryItem, error)
	ListInventoryItems(ctx context.Context) ([]database.InventoryItem, error)
	ListLowStockItems(ctx context.Context) ([]database.InventoryItem, error)
	ListStockMovements(ctx context.Context, arg database.ListStockMovementsParams) ([]database.StockMovement, error)
}

// InventoryHandler handles inventory endpoints.
type InventoryHandler struct {
	svc   InventoryServicer
	store InventoryReadStore
	hub   Broadcaster
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(svc InventoryServicer, store InventoryReadStore, hub Broadcaster) *InventoryHandler {
	return &InventoryHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers staff inventory endpoints.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/inventory/items", h.List)
	r.Get("/inventory/low-stock", h.LowStock)
	r.Get("/inventory/movements", h.Movements)
	r.Get("/inventory/items/{id}", h.Get)
	r.Post("/inventory/items/{id}/adjustments", h.Adjust)
}

// --- Request / Response types ---

type adjustStockRequest struct {
	Quantity     string `json:"quantity"`
	MovementType string `json:"movement_type"`
	Notes        string `json:"notes"`
	ReferenceID  string `json:"reference_id"`
}

type inventoryItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit"`
	CurrentStock string    `json:"current_stock"`
	MinimumStock string    `json:"minimum_stock"`
	CostPerUnit  string    `json:"cost_per_unit"`
	LowStock     bool      `json:"low_stock"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type stockMovementResponse struct {
	ID              uuid.UUID  `json:"id"`
	InventoryItemID uuid.UUID  `json:"inventory_item_id"`
	Quantity        string     `json:"quantity"`
	MovementType    string     `json:"movement_type"`
	ReferenceID     *uuid.UUID `json:"reference_id"`
	Notes           *string    `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
}

type adjustStockResponse struct {
	Item     inventoryItemResponse `json:"item"`
	Movement stockMovementResponse `json:"movement"`
}

type lowStockEvent struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Name            string    `json:"name"`
	CurrentStock    string    `json:"current_stock"`
	MinimumStock    string    `json:"minimum_stock"`
}

// --- Handlers ---

// List handles GET /inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListInventoryItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list inventory items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbInventoryItemsToResponse(items))
}

// LowStock handles GET /inventory/low-stock. Items below their minimum,
// most critical first.
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListLowStockItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list low stock items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, dbInventoryItemsToResponse(items))
}

// Get handles GET /inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid inventory item ID"})
		return
	}

	item, err := h.store.GetInventoryItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "inventory item not found"})
			return
		}
		log.Printf("ERROR: get inventory item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbInventoryItemToResponse(item))
}

// Movements handles GET /inventory/movements. Optional query filters:
// item_id, start_date, end_date (YYYY-MM-DD; end_date is inclusive).
func (h *InventoryHandler) Movements(w http.ResponseWriter, r *http.Request) {
	var params database.ListStockMovementsParams

	if s := r.URL.Query().Get("item_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
			return
		}
		params.InventoryItemID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, expected YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date, expected YYYY-MM-DD"})
			return
		}
		// Inclusive end date: bound at the start of the next day.
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	movements, err := h.store.ListStockMovements(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list stock movements: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockMovementResponse, len(movements))
	for i, m := range movements {
		resp[i] = dbStockMovementToResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Adjust handles POST /inventory/{id}/adjust. Quantity is a signed decimal
// string: positive receives stock, negative consumes it.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid inventory item ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}

	var referenceID uuid.NullUUID
	if req.ReferenceID != "" {
		refID, err := uuid.Parse(req.ReferenceID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reference_id"})
			return
		}
		referenceID = uuid.NullUUID{UUID: refID, Valid: true}
	}

	result, err := h.svc.AdjustStock(r.Context(), service.AdjustStockRequest{
		InventoryItemID: id,
		Quantity:        quantity,
		MovementType:    database.MovementType(req.MovementType),
		Notes:           req.Notes,
		ReferenceID:     referenceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMovementType),
			errors.Is(err, service.ErrZeroAdjustment):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInventoryItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInsufficientStock):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: adjust stock: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	item := dbInventoryItemToResponse(result.Item)
	if item.LowStock {
		h.hub.BroadcastJSON("LOW_STOCK_ALERT", lowStockEvent{
			InventoryItemID: result.Item.ID,
			Name:            result.Item.Name,
			CurrentStock:    item.CurrentStock,
			MinimumStock:    item.MinimumStock,
		})
	}

	writeJSON(w, http.StatusOK, adjustStockResponse{
		Item:     item,
		Movement: dbStockMovementToResponse(result.Movement),
	})
}

// --- Helpers ---

func dbInventoryItemToResponse(item database.InventoryItem) inventoryItemResponse {
	current := numericToString(item.CurrentStock)
	minimum := numericToString(item.MinimumStock)

	currentDec, _ := decimal.NewFromString(current)
	minimumDec, _ := decimal.NewFromString(minimum)

	return inventoryItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Category:     item.Category,
		Unit:         item.Unit,
		CurrentStock: current,
		MinimumStock: minimum,
		CostPerUnit:  numericToString(item.CostPerUnit),
		LowStock:     currentDec.LessThan(minimumDec),
		UpdatedAt:    item.UpdatedAt,
	}
}

func dbInventoryItemsToResponse(items []database.InventoryItem) []inventoryItemResponse {
	resp := make([]inventoryItemResponse, len(items))
	for i, item := range items {
		resp[i] = dbInventoryItemToResponse(item)
	}
	return resp
}

func dbStockMovementToResponse(m database.StockMovement) stockMovementResponse {
	resp := stockMovementResponse{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		Quantity:        numericToString(m.Quantity),
		MovementType:    string(m.MovementType),
		CreatedAt:       m.CreatedAt,
	}
	if m.ReferenceID.Valid {
		id := uuid.UUID(m.ReferenceID.Bytes)
		resp.ReferenceID = &id
	}
	if m.Notes.Valid {
		resp.Notes = &m.Notes.String
	}
	return resp
}
