package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warung-pos/api/internal/database"
)

// MenuStore defines the database methods needed by menu read handlers.
// Satisfied by *database.Queries.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItem, error)
}

// MenuHandler serves the catalog read used by staff when composing orders.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.List)
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	IsAvailable bool      `json:"is_available"`
}

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = menuItemResponse{
			ID:          item.ID,
			Name:        item.Name,
			Category:    item.Category,
			Price:       numericToString(item.Price),
			IsAvailable: item.IsAvailable,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
