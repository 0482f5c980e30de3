package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/warung-pos/api/internal/database"
	"github.com/warung-pos/api/internal/middleware"
	"github.com/warung-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus database.OrderStatus) (database.Order, error)
	AddItem(ctx context.Context, orderID uuid.UUID, menuItemID string, quantity int32, notes string) (*service.ItemMutationResult, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32) (*service.ItemMutationResult, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) (*service.ItemMutationResult, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOpenOrderByTable(ctx context.Context, tableNumber int32) (database.Order, error)
	ListOrdersByTable(ctx context.Context, arg database.ListOrdersByTableParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// Broadcaster publishes fire-and-forget events to staff dashboards.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastJSON(eventType string, payload interface{})
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   Broadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub Broadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers staff order endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.Create)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/{id}/items", h.AddItem)
	r.Patch("/orders/items/{itemID}", h.UpdateItemQuantity)
	r.Delete("/orders/items/{itemID}", h.RemoveItem)
	r.Get("/tables/{number}/orders", h.GetByTable)
}

// RegisterPublicRoutes registers the customer-facing projection, reachable
// without authentication (QR-code clients).
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/tables/{number}/status", h.CustomerStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableNumber int32                    `json:"table_number"`
	WaiterName  string                   `json:"waiter_name"`
	Items       []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
	Notes      string `json:"notes"`
}

type updateItemQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type orderResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderNumber string              `json:"order_number"`
	TableNumber int32               `json:"table_number"`
	Status      string              `json:"status"`
	Total       string              `json:"total"`
	WaiterName  *string             `json:"waiter_name"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Items       []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
	Notes      *string   `json:"notes"`
}

// customerStatusResponse is the customer-facing projection. Active=false
// with empty fields is the "no active order" sentinel — a normal state,
// not an error.
type customerStatusResponse struct {
	TableNumber int32  `json:"table_number"`
	Active      bool   `json:"active"`
	OrderNumber string `json:"order_number,omitempty"`
	Status      string `json:"status,omitempty"`
	Total       string `json:"total,omitempty"`
}

type orderEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TableNumber int32     `json:"table_number"`
	Status      string    `json:"status"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.TableNumber <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table_number is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	waiterName := req.WaiterName
	if waiterName == "" {
		waiterName = claims.FullName
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CreateOrderItemRequest{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Notes:      item.Notes,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		TableNumber: req.TableNumber,
		WaiterName:  waiterName,
		Items:       svcItems,
	})
	if err != nil {
		writeOrderError(w, err, "create order")
		return
	}

	h.hub.BroadcastJSON("ORDER_CREATED", orderEvent{
		OrderID:     result.Order.ID,
		OrderNumber: result.Order.OrderNumber,
		TableNumber: result.Order.TableNumber,
		Status:      string(result.Order.Status),
	})

	resp := dbOrderToResponse(result.Order)
	resp.Items = make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		resp.Items[i] = dbOrderItemToResponse(item)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	updated, err := h.svc.TransitionStatus(r.Context(), orderID, database.OrderStatus(req.Status))
	if err != nil {
		writeOrderError(w, err, "update order status")
		return
	}

	h.hub.BroadcastJSON("ORDER_STATUS_CHANGED", orderEvent{
		OrderID:     updated.ID,
		OrderNumber: updated.OrderNumber,
		TableNumber: updated.TableNumber,
		Status:      string(updated.Status),
	})

	writeJSON(w, http.StatusOK, dbOrderToResponse(updated))
}

// AddItem handles POST /orders/{id}/items.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.AddItem(r.Context(), orderID, req.MenuItemID, req.Quantity, req.Notes)
	if err != nil {
		writeOrderError(w, err, "add order item")
		return
	}

	resp := dbOrderToResponse(result.Order)
	if result.Item != nil {
		resp.Items = []orderItemResponse{dbOrderItemToResponse(*result.Item)}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateItemQuantity handles PATCH /orders/items/{itemID}.
// Quantity zero removes the line.
func (h *OrderHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req updateItemQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.UpdateItemQuantity(r.Context(), itemID, req.Quantity)
	if err != nil {
		writeOrderError(w, err, "update order item quantity")
		return
	}

	resp := dbOrderToResponse(result.Order)
	if result.Item != nil {
		resp.Items = []orderItemResponse{dbOrderItemToResponse(*result.Item)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RemoveItem handles DELETE /orders/items/{itemID}.
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	result, err := h.svc.RemoveItem(r.Context(), itemID)
	if err != nil {
		writeOrderError(w, err, "remove order item")
		return
	}

	writeJSON(w, http.StatusOK, dbOrderToResponse(result.Order))
}

// GetByTable handles GET /tables/{number}/orders.
func (h *OrderHandler) GetByTable(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	orders, err := h.store.ListOrdersByTable(r.Context(), database.ListOrdersByTableParams{
		TableNumber: tableNumber,
		Limit:       int32(limit),
		Offset:      int32(offset),
	})
	if err != nil {
		log.Printf("ERROR: list orders by table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = dbOrderToResponse(o)
		resp[i].Items = make([]orderItemResponse, len(items))
		for j, item := range items {
			resp[i].Items[j] = dbOrderItemToResponse(item)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// CustomerStatus handles GET /public/tables/{number}/status.
func (h *OrderHandler) CustomerStatus(w http.ResponseWriter, r *http.Request) {
	tableNumber, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	order, err := h.store.GetOpenOrderByTable(r.Context(), tableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, customerStatusResponse{
				TableNumber: tableNumber,
				Active:      false,
			})
			return
		}
		log.Printf("ERROR: get open order by table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, customerStatusResponse{
		TableNumber: tableNumber,
		Active:      true,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       numericToString(order.Total),
	})
}

// --- Helpers ---

func parseTableNumber(r *http.Request) (int32, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || n <= 0 {
		return 0, errors.New("invalid table number")
	}
	return int32(n), nil
}

// writeOrderError maps service errors to HTTP status codes:
// malformed input → 400, missing references → 404, state conflicts → 409.
func writeOrderError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrUnknownStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrTableNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderItemNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrOrderPaid),
		errors.Is(err, service.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		TableNumber: o.TableNumber,
		Status:      string(o.Status),
		Total:       numericToString(o.Total),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if o.WaiterName.Valid {
		resp.WaiterName = &o.WaiterName.String
	}
	return resp
}

func dbOrderItemToResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:         item.ID,
		MenuItemID: item.MenuItemID,
		Quantity:   item.Quantity,
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}
