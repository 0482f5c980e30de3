package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getTable = `-- name: GetTable :one
SELECT table_number, status, capacity, current_order_id, last_cleaned_at, updated_at
FROM dining_tables
WHERE table_number = $1
`

func (q *Queries) GetTable(ctx context.Context, tableNumber int32) (DiningTable, error) {
	row := q.db.QueryRow(ctx, getTable, tableNumber)
	var i DiningTable
	err := row.Scan(
		&i.TableNumber,
		&i.Status,
		&i.Capacity,
		&i.CurrentOrderID,
		&i.LastCleanedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listTables = `-- name: ListTables :many
SELECT table_number, status, capacity, current_order_id, last_cleaned_at, updated_at
FROM dining_tables
ORDER BY table_number
`

func (q *Queries) ListTables(ctx context.Context) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DiningTable
	for rows.Next() {
		var i DiningTable
		if err := rows.Scan(
			&i.TableNumber,
			&i.Status,
			&i.Capacity,
			&i.CurrentOrderID,
			&i.LastCleanedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateTableStatus = `-- name: UpdateTableStatus :one
UPDATE dining_tables
SET status = $2,
    last_cleaned_at = CASE WHEN $2 = 'AVAILABLE' THEN now() ELSE last_cleaned_at END,
    updated_at = now()
WHERE table_number = $1
RETURNING table_number, status, capacity, current_order_id, last_cleaned_at, updated_at
`

type UpdateTableStatusParams struct {
	TableNumber int32
	Status      TableStatus
}

// UpdateTableStatus is the operator override path. It deliberately does not
// touch current_order_id; lifecycle cascades manage that reference.
func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, updateTableStatus, arg.TableNumber, arg.Status)
	var i DiningTable
	err := row.Scan(
		&i.TableNumber,
		&i.Status,
		&i.Capacity,
		&i.CurrentOrderID,
		&i.LastCleanedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const occupyTable = `-- name: OccupyTable :one
UPDATE dining_tables
SET status = 'OCCUPIED', current_order_id = $2, updated_at = now()
WHERE table_number = $1
RETURNING table_number, status, capacity, current_order_id, last_cleaned_at, updated_at
`

type OccupyTableParams struct {
	TableNumber    int32
	CurrentOrderID pgtype.UUID
}

func (q *Queries) OccupyTable(ctx context.Context, arg OccupyTableParams) (DiningTable, error) {
	row := q.db.QueryRow(ctx, occupyTable, arg.TableNumber, arg.CurrentOrderID)
	var i DiningTable
	err := row.Scan(
		&i.TableNumber,
		&i.Status,
		&i.Capacity,
		&i.CurrentOrderID,
		&i.LastCleanedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const releaseTable = `-- name: ReleaseTable :one
UPDATE dining_tables
SET status = 'NEEDS_CLEANING', current_order_id = NULL, updated_at = now()
WHERE table_number = $1
RETURNING table_number, status, capacity, current_order_id, last_cleaned_at, updated_at
`

// ReleaseTable is the terminal-order cascade: the check is settled, the
// table needs cleaning and no longer references an open order.
func (q *Queries) ReleaseTable(ctx context.Context, tableNumber int32) (DiningTable, error) {
	row := q.db.QueryRow(ctx, releaseTable, tableNumber)
	var i DiningTable
	err := row.Scan(
		&i.TableNumber,
		&i.Status,
		&i.Capacity,
		&i.CurrentOrderID,
		&i.LastCleanedAt,
		&i.UpdatedAt,
	)
	return i, err
}
