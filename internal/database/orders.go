package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getNextOrderNumber = `-- name: GetNextOrderNumber :one
SELECT COUNT(*) + 1
FROM orders
WHERE created_at >= date_trunc('day', now())
`

// GetNextOrderNumber returns the next per-day sequence number. Concurrent
// transactions can observe the same count; callers retry on the
// order_number unique constraint.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (order_number, table_number, status, total, waiter_name)
VALUES ($1, $2, 'NEW', $3, $4)
RETURNING id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
`

type CreateOrderParams struct {
	OrderNumber string
	TableNumber int32
	Total       pgtype.Numeric
	WaiterName  pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber,
		arg.TableNumber,
		arg.Total,
		arg.WaiterName,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableNumber,
		&i.Status,
		&i.Total,
		&i.WaiterName,
		&i.SplitCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, menu_item_id, quantity, notes)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, menu_item_id, quantity, notes, created_at, updated_at
`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Notes      pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Quantity,
		arg.Notes,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Quantity,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableNumber,
		&i.Status,
		&i.Total,
		&i.WaiterName,
		&i.SplitCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
FROM orders
WHERE id = $1
FOR UPDATE
`

// GetOrderForUpdate locks the order row so item mutations and the total
// recompute happen against a stable status.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableNumber,
		&i.Status,
		&i.Total,
		&i.WaiterName,
		&i.SplitCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOpenOrderByTable = `-- name: GetOpenOrderByTable :one
SELECT id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
FROM orders
WHERE table_number = $1 AND status <> 'PAID'
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetOpenOrderByTable(ctx context.Context, tableNumber int32) (Order, error) {
	row := q.db.QueryRow(ctx, getOpenOrderByTable, tableNumber)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableNumber,
		&i.Status,
		&i.Total,
		&i.WaiterName,
		&i.SplitCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOrdersByTable = `-- name: ListOrdersByTable :many
SELECT id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
FROM orders
WHERE table_number = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListOrdersByTableParams struct {
	TableNumber int32
	Limit       int32
	Offset      int32
}

func (q *Queries) ListOrdersByTable(ctx context.Context, arg ListOrdersByTableParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByTable, arg.TableNumber, arg.Limit, arg.Offset)
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

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID             uuid.UUID
	Status         OrderStatus
	ExpectedStatus OrderStatus
}

// UpdateOrderStatus only succeeds if the order is still in ExpectedStatus,
// closing the read/validate/write race with pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.ExpectedStatus)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableNumber,
		&i.Status,
		&i.Total,
		&i.WaiterName,
		&i.SplitCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const refreshOrderTotal = `-- name: RefreshOrderTotal :one
UPDATE orders
SET total = (
	SELECT COALESCE(SUM(oi.quantity * mi.price), 0)
	FROM order_items oi
	JOIN menu_items mi ON mi.id = oi.menu_item_id
	WHERE oi.order_id = orders.id
), updated_at = now()
WHERE id = $1
RETURNING id, order_number, table_number, status, total, waiter_name, split_count, created_at, updated_at
`

// RefreshOrderTotal recomputes the cached total from the live item rows at
// current catalog prices.
func (q *Queries) RefreshOrderTotal(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, refreshOrderTotal, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.TableNumber,
		&i.Status,
		&i.Total,
		&i.WaiterName,
		&i.SplitCount,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderItem = `-- name: GetOrderItem :one
SELECT id, order_id, menu_item_id, quantity, notes, created_at, updated_at
FROM order_items
WHERE id = $1
`

func (q *Queries) GetOrderItem(ctx context.Context, id uuid.UUID) (OrderItem, error) {
	row := q.db.QueryRow(ctx, getOrderItem, id)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Quantity,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderItemQuantity = `-- name: UpdateOrderItemQuantity :one
UPDATE order_items
SET quantity = $2, updated_at = now()
WHERE id = $1
RETURNING id, order_id, menu_item_id, quantity, notes, created_at, updated_at
`

type UpdateOrderItemQuantityParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateOrderItemQuantity(ctx context.Context, arg UpdateOrderItemQuantityParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, updateOrderItemQuantity, arg.ID, arg.Quantity)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Quantity,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteOrderItem = `-- name: DeleteOrderItem :exec
DELETE FROM order_items
WHERE id = $1
`

func (q *Queries) DeleteOrderItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItem, id)
	return err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, menu_item_id, quantity, notes, created_at, updated_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.Quantity,
			&i.Notes,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
