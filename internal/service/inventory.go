package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/warung-pos/api/internal/database"
)

// Errors returned by the inventory service.
var (
	ErrInventoryItemNotFound = errors.New("inventory item not found")
	ErrInvalidMovementType   = errors.New("invalid movement type")
	ErrZeroAdjustment        = errors.New("quantity delta must be non-zero")
	ErrInsufficientStock     = errors.New("insufficient stock")
)

// InventoryStore defines the DB methods stock adjustment needs.
// Satisfied by *database.Queries (and its WithTx variant).
type InventoryStore interface {
	GetInventoryItemForUpdate(ctx context.Context, id uuid.UUID) (database.InventoryItem, error)
	UpdateInventoryStock(ctx context.Context, arg database.UpdateInventoryStockParams) (database.InventoryItem, error)
	CreateStockMovement(ctx context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error)
}

// NewInventoryStore creates an InventoryStore from a DBTX (pool or tx).
type NewInventoryStore func(db database.DBTX) InventoryStore

// AdjustStockRequest is the validated input for one stock adjustment.
type AdjustStockRequest struct {
	InventoryItemID uuid.UUID
	Quantity        decimal.Decimal
	MovementType    database.MovementType
	Notes           string
	ReferenceID     uuid.NullUUID
}

// AdjustStockResult is the item with its new balance plus the appended
// ledger row.
type AdjustStockResult struct {
	Item     database.InventoryItem
	Movement database.StockMovement
}

// InventoryService owns the materialized stock balance and its append-only
// movement ledger. AdjustStock is the only sanctioned writer of
// current_stock; the balance update and the ledger append always commit
// together.
type InventoryService struct {
	pool     TxBeginner
	newStore NewInventoryStore
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(pool TxBeginner, newStore NewInventoryStore) *InventoryService {
	return &InventoryService{pool: pool, newStore: newStore}
}

// AdjustStock applies a signed quantity delta to an item. The item row is
// locked for the duration of the transaction, so concurrent adjustments
// serialize and the non-negativity check always sees the committed
// balance. A delta that would take the balance below zero writes nothing
// and returns ErrInsufficientStock.
func (s *InventoryService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*AdjustStockResult, error) {
	if !isValidMovementType(req.MovementType) {
		return nil, ErrInvalidMovementType
	}
	if req.Quantity.IsZero() {
		return nil, ErrZeroAdjustment
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetInventoryItemForUpdate(ctx, req.InventoryItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInventoryItemNotFound
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}

	newBalance := numericToDecimal(item.CurrentStock).Add(req.Quantity)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: %s has %s, adjustment %s", ErrInsufficientStock,
			item.Name, numericToDecimal(item.CurrentStock), req.Quantity)
	}

	updated, err := store.UpdateInventoryStock(ctx, database.UpdateInventoryStockParams{
		ID:           item.ID,
		CurrentStock: decimalToNumeric(newBalance),
	})
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}
	referenceID := pgtype.UUID{}
	if req.ReferenceID.Valid {
		referenceID = pgtype.UUID{Bytes: req.ReferenceID.UUID, Valid: true}
	}

	movement, err := store.CreateStockMovement(ctx, database.CreateStockMovementParams{
		InventoryItemID: item.ID,
		Quantity:        decimalToNumeric(req.Quantity),
		MovementType:    req.MovementType,
		ReferenceID:     referenceID,
		Notes:           notes,
	})
	if err != nil {
		return nil, fmt.Errorf("create stock movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &AdjustStockResult{Item: updated, Movement: movement}, nil
}

func isValidMovementType(t database.MovementType) bool {
	switch t {
	case database.MovementTypePURCHASE,
		database.MovementTypeWASTE,
		database.MovementTypeADJUSTMENT,
		database.MovementTypeORDER,
		database.MovementTypeINITIAL:
		return true
	}
	return false
}
