package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warung-pos/api/internal/database"
)

var ErrInvalidDateRange = errors.New("end date must not be before start date")

// marginLeaderboardMinQty keeps one-off sales out of the margin ranking.
const marginLeaderboardMinQty = 3

// ReportStore defines the read-only DB methods the aggregator replays.
// Satisfied by *database.Queries.
type ReportStore interface {
	ListOrdersInRange(ctx context.Context, arg database.ListOrdersInRangeParams) ([]database.Order, error)
	ListOrderLinesInRange(ctx context.Context, arg database.ListOrderLinesInRangeParams) ([]database.ListOrderLinesInRangeRow, error)
	ListCompletedClockRecordsInRange(ctx context.Context, arg database.ListCompletedClockRecordsInRangeParams) ([]database.ClockRecord, error)
}

// ItemSales is one menu item's aggregate over the window.
type ItemSales struct {
	MenuItemID uuid.UUID
	Name       string
	Category   string
	Quantity   int64
	Revenue    decimal.Decimal
	Cost       decimal.Decimal
	Profit     decimal.Decimal
	Margin     decimal.Decimal
}

// CategorySales is one catalog category's aggregate over the window.
type CategorySales struct {
	Category string
	Revenue  decimal.Decimal
	Cost     decimal.Decimal
	Profit   decimal.Decimal
	Margin   decimal.Decimal
}

// DailySales is one calendar day's aggregate.
type DailySales struct {
	Date    string // YYYY-MM-DD
	Orders  int64
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Profit  decimal.Decimal
}

// FinancialReport is the full derived view over a window. Nothing here is
// cached; every call recomputes from source rows.
type FinancialReport struct {
	StartDate        time.Time
	EndDate          time.Time
	OrderCount       int64
	TotalRevenue     decimal.Decimal
	TotalCost        decimal.Decimal
	TotalProfit      decimal.Decimal
	OverallMargin    decimal.Decimal
	LaborCost        decimal.Decimal
	NetProfit        decimal.Decimal
	ItemSales        []ItemSales
	CategorySales    []CategorySales
	DailySales       []DailySales
	TopItemsByProfit []ItemSales
	TopItemsByMargin []ItemSales
}

// EmployeePerformance is one employee's aggregate over the window: orders
// served (by waiter name) joined with completed attendance hours.
type EmployeePerformance struct {
	Name           string
	OrderCount     int64
	Revenue        decimal.Decimal
	HoursWorked    decimal.Decimal
	RevenuePerHour decimal.Decimal
}

// ReportService derives financial and staffing views by replaying orders,
// order lines, and clock records over a window. It has no mutation
// authority.
type ReportService struct {
	store ReportStore
}

// NewReportService creates a new ReportService.
func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// BuildFinancialReport aggregates the window [start, end). Revenue and
// cost are resolved at current catalog values — a point-in-time
// approximation, not a historical price snapshot.
func (s *ReportService) BuildFinancialReport(ctx context.Context, start, end time.Time) (*FinancialReport, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	orders, err := s.store.ListOrdersInRange(ctx, database.ListOrdersInRangeParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	lines, err := s.store.ListOrderLinesInRange(ctx, database.ListOrderLinesInRangeParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}

	report := &FinancialReport{
		StartDate:     start,
		EndDate:       end,
		OrderCount:    int64(len(orders)),
		TotalRevenue:  decimal.Zero,
		TotalCost:     decimal.Zero,
		TotalProfit:   decimal.Zero,
		OverallMargin: decimal.Zero,
		LaborCost:     decimal.Zero,
		NetProfit:     decimal.Zero,
	}

	byItem := map[uuid.UUID]*ItemSales{}
	byCategory := map[string]*CategorySales{}
	byDay := map[string]*DailySales{}
	ordersPerDay := map[string]map[uuid.UUID]bool{}

	for _, line := range lines {
		qty := decimal.NewFromInt32(line.Quantity)
		revenue := numericToDecimal(line.UnitPrice).Mul(qty)
		cost := numericToDecimal(line.UnitCost).Mul(qty)
		profit := revenue.Sub(cost)

		report.TotalRevenue = report.TotalRevenue.Add(revenue)
		report.TotalCost = report.TotalCost.Add(cost)

		item, ok := byItem[line.MenuItemID]
		if !ok {
			item = &ItemSales{
				MenuItemID: line.MenuItemID,
				Name:       line.MenuItemName,
				Category:   line.Category,
				Revenue:    decimal.Zero,
				Cost:       decimal.Zero,
				Profit:     decimal.Zero,
			}
			byItem[line.MenuItemID] = item
		}
		item.Quantity += int64(line.Quantity)
		item.Revenue = item.Revenue.Add(revenue)
		item.Cost = item.Cost.Add(cost)
		item.Profit = item.Profit.Add(profit)

		cat, ok := byCategory[line.Category]
		if !ok {
			cat = &CategorySales{
				Category: line.Category,
				Revenue:  decimal.Zero,
				Cost:     decimal.Zero,
				Profit:   decimal.Zero,
			}
			byCategory[line.Category] = cat
		}
		cat.Revenue = cat.Revenue.Add(revenue)
		cat.Cost = cat.Cost.Add(cost)
		cat.Profit = cat.Profit.Add(profit)

		day := line.CreatedAt.Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &DailySales{Date: day, Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}
			byDay[day] = d
			ordersPerDay[day] = map[uuid.UUID]bool{}
		}
		d.Revenue = d.Revenue.Add(revenue)
		d.Cost = d.Cost.Add(cost)
		d.Profit = d.Profit.Add(profit)
		ordersPerDay[day][line.OrderID] = true
	}

	report.TotalProfit = report.TotalRevenue.Sub(report.TotalCost)
	report.OverallMargin = marginPct(report.TotalProfit, report.TotalRevenue)

	laborCost, err := s.laborCost(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report.LaborCost = laborCost
	report.NetProfit = report.TotalProfit.Sub(laborCost)

	for _, item := range byItem {
		item.Margin = marginPct(item.Profit, item.Revenue)
		report.ItemSales = append(report.ItemSales, *item)
	}
	sort.Slice(report.ItemSales, func(i, j int) bool {
		return report.ItemSales[i].Revenue.GreaterThan(report.ItemSales[j].Revenue)
	})

	for _, cat := range byCategory {
		cat.Margin = marginPct(cat.Profit, cat.Revenue)
		report.CategorySales = append(report.CategorySales, *cat)
	}
	sort.Slice(report.CategorySales, func(i, j int) bool {
		return report.CategorySales[i].Revenue.GreaterThan(report.CategorySales[j].Revenue)
	})

	for day, d := range byDay {
		d.Orders = int64(len(ordersPerDay[day]))
		report.DailySales = append(report.DailySales, *d)
	}
	sort.Slice(report.DailySales, func(i, j int) bool {
		return report.DailySales[i].Date < report.DailySales[j].Date
	})

	report.TopItemsByProfit = rankByProfit(report.ItemSales)
	report.TopItemsByMargin = rankByMargin(report.ItemSales)

	return report, nil
}

// BuildEmployeePerformance aggregates orders by waiter and joins completed
// attendance hours per employee over the same window.
func (s *ReportService) BuildEmployeePerformance(ctx context.Context, start, end time.Time) ([]EmployeePerformance, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	orders, err := s.store.ListOrdersInRange(ctx, database.ListOrdersInRangeParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	records, err := s.store.ListCompletedClockRecordsInRange(ctx, database.ListCompletedClockRecordsInRangeParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("list clock records: %w", err)
	}

	byName := map[string]*EmployeePerformance{}
	get := func(name string) *EmployeePerformance {
		p, ok := byName[name]
		if !ok {
			p = &EmployeePerformance{
				Name:           name,
				Revenue:        decimal.Zero,
				HoursWorked:    decimal.Zero,
				RevenuePerHour: decimal.Zero,
			}
			byName[name] = p
		}
		return p
	}

	for _, o := range orders {
		if !o.WaiterName.Valid {
			continue
		}
		p := get(o.WaiterName.String)
		p.OrderCount++
		p.Revenue = p.Revenue.Add(numericToDecimal(o.Total))
	}

	for _, r := range records {
		p := get(r.EmployeeName)
		p.HoursWorked = p.HoursWorked.Add(paidHours(r))
	}

	result := make([]EmployeePerformance, 0, len(byName))
	for _, p := range byName {
		if !p.HoursWorked.IsZero() {
			p.RevenuePerHour = p.Revenue.Div(p.HoursWorked).Round(2)
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Revenue.GreaterThan(result[j].Revenue)
	})
	return result, nil
}

func (s *ReportService) laborCost(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	records, err := s.store.ListCompletedClockRecordsInRange(ctx, database.ListCompletedClockRecordsInRangeParams{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("list clock records: %w", err)
	}

	total := decimal.Zero
	for _, r := range records {
		rate := numericToDecimal(r.HourlyRate)
		total = total.Add(paidHours(r).Mul(rate))
	}
	return total.Round(2), nil
}

// paidHours is worked time minus break time, floored at zero.
func paidHours(r database.ClockRecord) decimal.Decimal {
	if !r.ClockOut.Valid {
		return decimal.Zero
	}
	workedMinutes := int64(r.ClockOut.Time.Sub(r.ClockIn).Minutes()) - int64(r.BreakMinutes)
	if workedMinutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(workedMinutes).Div(decimal.NewFromInt(60))
}

// marginPct is profit/revenue as a percentage, defined as 0 when revenue
// is 0.
func marginPct(profit, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Mul(decimal.NewFromInt(100)).Div(revenue).Round(2)
}

func validateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func rankByProfit(items []ItemSales) []ItemSales {
	ranked := append([]ItemSales(nil), items...)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Profit.GreaterThan(ranked[j].Profit)
	})
	return top(ranked, 10)
}

// rankByMargin only considers items with at least marginLeaderboardMinQty
// units sold so one-off sales don't distort the board.
func rankByMargin(items []ItemSales) []ItemSales {
	var ranked []ItemSales
	for _, item := range items {
		if item.Quantity >= marginLeaderboardMinQty {
			ranked = append(ranked, item)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Margin.GreaterThan(ranked[j].Margin)
	})
	return top(ranked, 10)
}

func top(items []ItemSales, n int) []ItemSales {
	if len(items) > n {
		return items[:n]
	}
	return items
}
