package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getInventoryItem = `-- name: GetInventoryItem :one
SELECT id, name, category, unit, current_stock, minimum_stock, cost_per_unit, supplier_id, created_at, updated_at
FROM inventory_items
WHERE id = $1
`

func (q *Queries) GetInventoryItem(ctx context.Context, id uuid.UUID) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, getInventoryItem, id)
	var i InventoryItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Unit,
		&i.CurrentStock,
		&i.MinimumStock,
		&i.CostPerUnit,
		&i.SupplierID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getInventoryItemForUpdate = `-- name: GetInventoryItemForUpdate :one
SELECT id, name, category, unit, current_stock, minimum_stock, cost_per_unit, supplier_id, created_at, updated_at
FROM inventory_items
WHERE id = $1
FOR UPDATE
`

// GetInventoryItemForUpdate locks the item row so concurrent adjustments
// serialize on the balance read instead of both passing the non-negativity
// check against a stale value.
func (q *Queries) GetInventoryItemForUpdate(ctx context.Context, id uuid.UUID) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, getInventoryItemForUpdate, id)
	var i InventoryItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Unit,
		&i.CurrentStock,
		&i.MinimumStock,
		&i.CostPerUnit,
		&i.SupplierID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateInventoryStock = `-- name: UpdateInventoryStock :one
UPDATE inventory_items
SET current_stock = $2, updated_at = now()
WHERE id = $1
RETURNING id, name, category, unit, current_stock, minimum_stock, cost_per_unit, supplier_id, created_at, updated_at
`

type UpdateInventoryStockParams struct {
	ID           uuid.UUID
	CurrentStock pgtype.Numeric
}

func (q *Queries) UpdateInventoryStock(ctx context.Context, arg UpdateInventoryStockParams) (InventoryItem, error) {
	row := q.db.QueryRow(ctx, updateInventoryStock, arg.ID, arg.CurrentStock)
	var i InventoryItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Unit,
		&i.CurrentStock,
		&i.MinimumStock,
		&i.CostPerUnit,
		&i.SupplierID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createStockMovement = `-- name: CreateStockMovement :one
INSERT INTO stock_movements (inventory_item_id, quantity, movement_type, reference_id, notes)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, inventory_item_id, quantity, movement_type, reference_id, notes, created_at
`

type CreateStockMovementParams struct {
	InventoryItemID uuid.UUID
	Quantity        pgtype.Numeric
	MovementType    MovementType
	ReferenceID     pgtype.UUID
	Notes           pgtype.Text
}

func (q *Queries) CreateStockMovement(ctx context.Context, arg CreateStockMovementParams) (StockMovement, error) {
	row := q.db.QueryRow(ctx, createStockMovement,
		arg.InventoryItemID,
		arg.Quantity,
		arg.MovementType,
		arg.ReferenceID,
		arg.Notes,
	)
	var i StockMovement
	err := row.Scan(
		&i.ID,
		&i.InventoryItemID,
		&i.Quantity,
		&i.MovementType,
		&i.ReferenceID,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const listInventoryItems = `-- name: ListInventoryItems :many
SELECT id, name, category, unit, current_stock, minimum_stock, cost_per_unit, supplier_id, created_at, updated_at
FROM inventory_items
ORDER BY category, name
`

func (q *Queries) ListInventoryItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listInventoryItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		var i InventoryItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.Unit,
			&i.CurrentStock,
			&i.MinimumStock,
			&i.CostPerUnit,
			&i.SupplierID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listLowStockItems = `-- name: ListLowStockItems :many
SELECT id, name, category, unit, current_stock, minimum_stock, cost_per_unit, supplier_id, created_at, updated_at
FROM inventory_items
WHERE current_stock < minimum_stock
ORDER BY current_stock ASC
`

// ListLowStockItems orders most critical first.
func (q *Queries) ListLowStockItems(ctx context.Context) ([]InventoryItem, error) {
	rows, err := q.db.Query(ctx, listLowStockItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InventoryItem
	for rows.Next() {
		var i InventoryItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.Unit,
			&i.CurrentStock,
			&i.MinimumStock,
			&i.CostPerUnit,
			&i.SupplierID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listStockMovements = `-- name: ListStockMovements :many
SELECT id, inventory_item_id, quantity, movement_type, reference_id, notes, created_at
FROM stock_movements
WHERE ($1::uuid IS NULL OR inventory_item_id = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at < $3)
ORDER BY created_at DESC
`

type ListStockMovementsParams struct {
	InventoryItemID pgtype.UUID
	StartDate       pgtype.Timestamptz
	EndDate         pgtype.Timestamptz
}

func (q *Queries) ListStockMovements(ctx context.Context, arg ListStockMovementsParams) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovements, arg.InventoryItemID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockMovement
	for rows.Next() {
		var i StockMovement
		if err := rows.Scan(
			&i.ID,
			&i.InventoryItemID,
			&i.Quantity,
			&i.MovementType,
			&i.ReferenceID,
			&i.Notes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const sumStockMovements = `-- name: SumStockMovements :one
SELECT COALESCE(SUM(quantity), 0)
FROM stock_movements
WHERE inventory_item_id = $1
`

// SumStockMovements returns the ledger sum for reconciliation against the
// materialized balance.
func (q *Queries) SumStockMovements(ctx context.Context, inventoryItemID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumStockMovements, inventoryItemID)
	var sum pgtype.Numeric
	err := row.Scan(&sum)
	return sum, err
}
