package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles customer-originated pings (call waiter,
// request bill). These sit outside the consistency boundary: the only
// effect is a broadcast to staff dashboards, and delivery is best-effort.
type NotificationHandler struct {
	hub Broadcaster
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(hub Broadcaster) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// RegisterPublicRoutes registers customer-facing endpoints (QR-code
// clients, no authentication).
func (h *NotificationHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/tables/{number}/call-waiter", h.CallWaiter)
	r.Post("/tables/{number}/request-bill", h.RequestBill)
}

type notificationEvent struct {
	TableNumber int32     `json:"table_number"`
	At          time.Time `json:"at"`
}

// CallWaiter handles POST /public/tables/{number}/call-waiter.
func (h *NotificationHandler) CallWaiter(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, "WAITER_CALLED")
}

// RequestBill handles POST /public/tables/{number}/request-bill.
func (h *NotificationHandler) RequestBill(w http.ResponseWriter, r *http.Request) {
	h.notify(w, r, "BILL_REQUESTED")
}

func (h *NotificationHandler) notify(w http.ResponseWriter, r *http.Request, eventType string) {
	tableNumber, err := parseTableNumber(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table number"})
		return
	}

	h.hub.BroadcastJSON(eventType, notificationEvent{
		TableNumber: tableNumber,
		At:          time.Now().UTC(),
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
