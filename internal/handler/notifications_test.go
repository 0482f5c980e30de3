package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/warung-pos/api/internal/handler"
)

func setupNotificationRouter(hub *mockHub) *chi.Mux {
	h := handler.NewNotificationHandler(hub)
	r := chi.NewRouter()
	r.Route("/public", h.RegisterPublicRoutes)
	return r
}

func TestCallWaiterHandler(t *testing.T) {
	hub := &mockHub{}
	router := setupNotificationRouter(hub)

	rr := doRequest(t, router, "POST", "/public/tables/4/call-waiter")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusAccepted)
	}
	if !contains(hub.eventTypes(), "WAITER_CALLED") {
		t.Error("expected WAITER_CALLED broadcast")
	}
}

func TestRequestBillHandler(t *testing.T) {
	hub := &mockHub{}
	router := setupNotificationRouter(hub)

	rr := doRequest(t, router, "POST", "/public/tables/4/request-bill")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusAccepted)
	}
	if !contains(hub.eventTypes(), "BILL_REQUESTED") {
		t.Error("expected BILL_REQUESTED broadcast")
	}
}

func TestCallWaiterHandler_BadTableNumber(t *testing.T) {
	router := setupNotificationRouter(&mockHub{})

	rr := doRequest(t, router, "POST", "/public/tables/zero/call-waiter")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
