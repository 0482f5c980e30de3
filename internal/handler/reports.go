package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warung-pos/api/internal/service"
)

// ReportServicer defines the service methods needed by report handlers.
// Satisfied by *service.ReportService.
type ReportServicer interface {
	BuildFinancialReport(ctx context.Context, start, end time.Time) (*service.FinancialReport, error)
	BuildEmployeePerformance(ctx context.Context, start, end time.Time) ([]service.EmployeePerformance, error)
}

// ReportHandler handles reporting endpoints. Reports are derived views:
// every request recomputes from source rows.
type ReportHandler struct {
	svc ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(svc ReportServicer) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// RegisterRoutes registers report endpoints. Callers gate these behind
// owner/manager roles.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/financial", h.Financial)
	r.Get("/reports/employee-performance", h.EmployeePerformance)
}

// --- Response types ---

type itemSalesResponse struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Quantity   int64     `json:"quantity"`
	Revenue    string    `json:"revenue"`
	Cost       string    `json:"cost"`
	Profit     string    `json:"profit"`
	Margin     string    `json:"margin"`
}

type categorySalesResponse struct {
	Category string `json:"category"`
	Revenue  string `json:"revenue"`
	Cost     string `json:"cost"`
	Profit   string `json:"profit"`
	Margin   string `json:"margin"`
}

type dailySalesResponse struct {
	Date    string `json:"date"`
	Orders  int64  `json:"orders"`
	Revenue string `json:"revenue"`
	Cost    string `json:"cost"`
	Profit  string `json:"profit"`
}

type financialReportResponse struct {
	StartDate        string                  `json:"start_date"`
	EndDate          string                  `json:"end_date"`
	OrderCount       int64                   `json:"order_count"`
	TotalRevenue     string                  `json:"total_revenue"`
	TotalCost        string                  `json:"total_cost"`
	TotalProfit      string                  `json:"total_profit"`
	OverallMargin    string                  `json:"overall_margin"`
	LaborCost        string                  `json:"labor_cost"`
	NetProfit        string                  `json:"net_profit"`
	ItemSales        []itemSalesResponse     `json:"item_sales"`
	CategorySales    []categorySalesResponse `json:"category_sales"`
	DailySales       []dailySalesResponse    `json:"daily_sales"`
	TopItemsByProfit []itemSalesResponse     `json:"top_items_by_profit"`
	TopItemsByMargin []itemSalesResponse     `json:"top_items_by_margin"`
}

type employeePerformanceResponse struct {
	Name           string `json:"name"`
	OrderCount     int64  `json:"order_count"`
	Revenue        string `json:"revenue"`
	HoursWorked    string `json:"hours_worked"`
	RevenuePerHour string `json:"revenue_per_hour"`
}

// --- Handlers ---

// Financial handles GET /reports/financial?start_date=...&end_date=...
func (h *ReportHandler) Financial(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	report, err := h.svc.BuildFinancialReport(r.Context(), start, end)
	if err != nil {
		writeReportError(w, err, "build financial report")
		return
	}

	resp := financialReportResponse{
		StartDate:        report.StartDate.Format("2006-01-02"),
		EndDate:          report.EndDate.AddDate(0, 0, -1).Format("2006-01-02"),
		OrderCount:       report.OrderCount,
		TotalRevenue:     report.TotalRevenue.StringFixed(2),
		TotalCost:        report.TotalCost.StringFixed(2),
		TotalProfit:      report.TotalProfit.StringFixed(2),
		OverallMargin:    report.OverallMargin.StringFixed(2),
		LaborCost:        report.LaborCost.StringFixed(2),
		NetProfit:        report.NetProfit.StringFixed(2),
		ItemSales:        itemSalesToResponse(report.ItemSales),
		CategorySales:    make([]categorySalesResponse, len(report.CategorySales)),
		DailySales:       make([]dailySalesResponse, len(report.DailySales)),
		TopItemsByProfit: itemSalesToResponse(report.TopItemsByProfit),
		TopItemsByMargin: itemSalesToResponse(report.TopItemsByMargin),
	}
	for i, cat := range report.CategorySales {
		resp.CategorySales[i] = categorySalesResponse{
			Category: cat.Category,
			Revenue:  cat.Revenue.StringFixed(2),
			Cost:     cat.Cost.StringFixed(2),
			Profit:   cat.Profit.StringFixed(2),
			Margin:   cat.Margin.StringFixed(2),
		}
	}
	for i, day := range report.DailySales {
		resp.DailySales[i] = dailySalesResponse{
			Date:    day.Date,
			Orders:  day.Orders,
			Revenue: day.Revenue.StringFixed(2),
			Cost:    day.Cost.StringFixed(2),
			Profit:  day.Profit.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// EmployeePerformance handles GET /reports/employees?start_date=...&end_date=...
func (h *ReportHandler) EmployeePerformance(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	perf, err := h.svc.BuildEmployeePerformance(r.Context(), start, end)
	if err != nil {
		writeReportError(w, err, "build employee performance")
		return
	}

	resp := make([]employeePerformanceResponse, len(perf))
	for i, p := range perf {
		resp[i] = employeePerformanceResponse{
			Name:           p.Name,
			OrderCount:     p.OrderCount,
			Revenue:        p.Revenue.StringFixed(2),
			HoursWorked:    p.HoursWorked.Round(2).StringFixed(2),
			RevenuePerHour: p.RevenuePerHour.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseDateRange reads start_date/end_date query params (YYYY-MM-DD, both
// required, end inclusive). The returned end is the exclusive start of the
// following day. Writes the error response itself and returns ok=false on
// bad input.
func parseDateRange(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")
	if startStr == "" || endStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date and end_date are required"})
		return
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	endDay, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}

	return start, endDay.AddDate(0, 0, 1), true
}

func writeReportError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, service.ErrInvalidDateRange) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("ERROR: %s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func itemSalesToResponse(items []service.ItemSales) []itemSalesResponse {
	resp := make([]itemSalesResponse, len(items))
	for i, item := range items {
		resp[i] = itemSalesResponse{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Category:   item.Category,
			Quantity:   item.Quantity,
			Revenue:    item.Revenue.StringFixed(2),
			Cost:       item.Cost.StringFixed(2),
			Profit:     item.Profit.StringFixed(2),
			Margin:     item.Margin.StringFixed(2),
		}
	}
	return resp
}
