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
	"github.com/warung-pos/api/internal/database"
	"github.com/warung-pos/api/internal/service"
)

// TableServicer defines the service methods needed by table handlers.
// Satisfied by *service.TableService.
type TableServicer interface {
	SetStatus(ctx context.Context, tableNumber int32, status database.TableStatus) (database.DiningTable, error)
}

// TableStore defines the database methods needed by table read handlers.
// Satisfied by *database.Queries.
type TableStore interface {
	GetTable(ctx context.Context, tableNumber int32) (database.DiningTable, error)
	ListTables(ctx context.Context) ([]database.DiningTable, error)
}

// TableHandler handles dining table endpoints.
type TableHandler struct {
	svc   TableServicer
	store TableStore
	hub   Broadcaster
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(svc TableServicer, store TableStore, hub Broadcaster) *TableHandler {
	return &TableHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers staff table endpoints.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
	r.Get("/tables/{number}", h.Get)
	r.Patch("/tables/{number}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateTableStatusRequest struct {
	Status string `json:"status"`
}

type tableResponse struct {
	TableNumber    int32      `json:"table_number"`
	Status         string     `json:"status"`
	Capacity       int32      `json:"capacity"`
	CurrentOrderID *uuid.UUID `json:"current_order_id"`
	LastCleanedAt  *time.Time `json:"last_cleaned_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type tableEvent struct {
	TableNumber int32  `json:"table_number"`
	Status      string `json:"status"`
}

// --- Handlers ---

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = dbTableToResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /tables/{number}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	table, err := h.store.GetTable(r.Context(), tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dbTableToResponse(table))
}

// UpdateStatus handles PATCH /tables/{number}/status. This is the operator
// override: any status can be set directly, e.g. RESERVED for a booking or
// AVAILABLE after cleaning.
func (h *TableHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	var req updateTableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	table, err := h.svc.SetStatus(r.Context(), tableNumber, database.TableStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTableStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrTableNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update table status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.hub.BroadcastJSON("TABLE_STATUS_CHANGED", tableEvent{
		TableNumber: table.TableNumber,
		Status:      string(table.Status),
	})

	writeJSON(w, http.StatusOK, dbTableToResponse(table))
}

func dbTableToResponse(t database.DiningTable) tableResponse {
	resp := tableResponse{
		TableNumber: t.TableNumber,
		Status:      string(t.Status),
		Capacity:    t.Capacity,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.CurrentOrderID.Valid {
		id := uuid.UUID(t.CurrentOrderID.Bytes)
		resp.CurrentOrderID = &id
	}
	if t.LastCleanedAt.Valid {
		resp.LastCleanedAt = &t.LastCleanedAt.Time
	}
	return resp
}
