package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listOrdersInRange = `-- name: ListOrdersInRange :many
SELECT id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
FROM orders
WHERE created_at >= $1 AND created_at < $2
ORDER BY created_at
`

type ListOrdersInRangeParams struct {
	StartDate time.Time
	EndDate   time.Time
}

func (q *Queries) ListOrdersInRange(ctx context.Context, arg ListOrdersInRangeParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersInRange, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.OrderNumber,
			&i.TableNumber,
			&i.Status,
			&i.Total,
			&i.WaiterName,
			&i.SplitCount,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOrderLinesInRange = `-- name: ListOrderLinesInRange :many
SELECT o.id AS order_id, o.created_at, oi.quantity,
       mi.id AS menu_item_id, mi.name AS menu_item_name, mi.category,
       mi.price AS unit_price, mi.cost AS unit_cost
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
JOIN menu_items mi ON mi.id = oi.menu_item_id
WHERE o.created_at >= $1 AND o.created_at < $2
ORDER BY o.created_at
`

type ListOrderLinesInRangeParams struct {
	StartDate time.Time
	EndDate   time.Time
}

// ListOrderLinesInRangeRow joins each line item with the current catalog
// price and cost. Prices are point-in-time catalog values, not a snapshot
// taken when the order was placed.
type ListOrderLinesInRangeRow struct {
	OrderID      uuid.UUID
	CreatedAt    time.Time
	Quantity     int32
	MenuItemID   uuid.UUID
	MenuItemName string
	Category     string
	UnitPrice    pgtype.Numeric
	UnitCost     pgtype.Numeric
}

func (q *Queries) ListOrderLinesInRange(ctx context.Context, arg ListOrderLinesInRangeParams) ([]ListOrderLinesInRangeRow, error) {
	rows, err := q.db.Query(ctx, listOrderLinesInRange, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListOrderLinesInRangeRow
	for rows.Next() {
		var i ListOrderLinesInRangeRow
		if err := rows.Scan(
			&i.OrderID,
			&i.CreatedAt,
			&i.Quantity,
			&i.MenuItemID,
			&i.MenuItemName,
			&i.Category,
			&i.UnitPrice,
			&i.UnitCost,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listCompletedClockRecordsInRange = `-- name: ListCompletedClockRecordsInRange :many
SELECT id, user_id, employee_name, clock_in, clock_out, break_minutes, hourly_rate, created_at
FROM clock_records
WHERE clock_in >= $1 AND clock_in < $2 AND clock_out IS NOT NULL
ORDER BY clock_in
`

type ListCompletedClockRecordsInRangeParams struct {
	StartDate time.Time
	EndDate   time.Time
}

func (q *Queries) ListCompletedClockRecordsInRange(ctx context.Context, arg ListCompletedClockRecordsInRangeParams) ([]ClockRecord, error) {
	rows, err := q.db.Query(ctx, listCompletedClockRecordsInRange, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ClockRecord
	for rows.Next() {
		var i ClockRecord
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.EmployeeName,
			&i.ClockIn,
			&i.ClockOut,
			&i.BreakMinutes,
			&i.HourlyRate,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
