package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/warung-pos/api/internal/database"
)

// fakeInventoryStore keeps the balance and ledger in memory so tests can
// check the reconciliation invariant after a sequence of adjustments.
type fakeInventoryStore struct {
	items     map[uuid.UUID]database.InventoryItem
	movements []database.StockMovement
}

func newFakeInventoryStore(items ...database.InventoryItem) *fakeInventoryStore {
	s := &fakeInventoryStore{items: map[uuid.UUID]database.InventoryItem{}}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *fakeInventoryStore) GetInventoryItemForUpdate(ctx context.Context, id uuid.UUID) (database.InventoryItem, error) {
	item, ok := s.items[id]
	if !ok {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	return item, nil
}

func (s *fakeInventoryStore) UpdateInventoryStock(ctx context.Context, arg database.UpdateInventoryStockParams) (database.InventoryItem, error) {
	item, ok := s.items[arg.ID]
	if !ok {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	item.CurrentStock = arg.CurrentStock
	s.items[arg.ID] = item
	return item, nil
}

func (s *fakeInventoryStore) CreateStockMovement(ctx context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error) {
	movement := database.StockMovement{
		ID:              uuid.New(),
		InventoryItemID: arg.InventoryItemID,
		Quantity:        arg.Quantity,
		MovementType:    arg.MovementType,
		ReferenceID:     arg.ReferenceID,
		Notes:           arg.Notes,
	}
	s.movements = append(s.movements, movement)
	return movement, nil
}

func (s *fakeInventoryStore) ledgerSum(itemID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range s.movements {
		if m.InventoryItemID == itemID {
			sum = sum.Add(numericToDecimal(m.Quantity))
		}
	}
	return sum
}

func newTestInventoryService(store *fakeInventoryStore) *InventoryService {
	pool := &mockTxBeginner{tx: &mockTx{}}
	newStore := func(db database.DBTX) InventoryStore { return store }
	return NewInventoryService(pool, newStore)
}

func riceItem() database.InventoryItem {
	return database.InventoryItem{
		ID:           uuid.New(),
		Name:         "Rice",
		Category:     "dry goods",
		Unit:         "kg",
		CurrentStock: makeNumeric("10.000"),
		MinimumStock: makeNumeric("5.000"),
		CostPerUnit:  makeNumeric("1.20"),
	}
}

// =====================
// Validation tests
// =====================

func TestAdjustStock_UnknownMovementType(t *testing.T) {
	svc := newTestInventoryService(newFakeInventoryStore(riceItem()))

	_, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		InventoryItemID: uuid.New(),
		Quantity:        decimal.NewFromInt(1),
		MovementType:    "DONATION",
	})
	if !errors.Is(err, ErrInvalidMovementType) {
		t.Fatalf("expected ErrInvalidMovementType, got: %v", err)
	}
}

func TestAdjustStock_ZeroDelta(t *testing.T) {
	svc := newTestInventoryService(newFakeInventoryStore(riceItem()))

	_, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		InventoryItemID: uuid.New(),
		Quantity:        decimal.Zero,
		MovementType:    database.MovementTypeADJUSTMENT,
	})
	if !errors.Is(err, ErrZeroAdjustment) {
		t.Fatalf("expected ErrZeroAdjustment, got: %v", err)
	}
}

func TestAdjustStock_ItemNotFound(t *testing.T) {
	svc := newTestInventoryService(newFakeInventoryStore(riceItem()))

	_, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		InventoryItemID: uuid.New(),
		Quantity:        decimal.NewFromInt(1),
		MovementType:    database.MovementTypePURCHASE,
	})
	if !errors.Is(err, ErrInventoryItemNotFound) {
		t.Fatalf("expected ErrInventoryItemNotFound, got: %v", err)
	}
}

// =====================
// Balance tests
// =====================

// Rice at 10kg: -2.5 consume, +5 purchase, -12.5 over-consume (rejected),
// balance 12.5, ledger sums to match.
func TestAdjustStock_RiceScenario(t *testing.T) {
	rice := riceItem()
	store := newFakeInventoryStore(rice)
	svc := newTestInventoryService(store)
	ctx := context.Background()

	result, err := svc.AdjustStock(ctx, AdjustStockRequest{
		InventoryItemID: rice.ID,
		Quantity:        decimal.RequireFromString("-2.5"),
		MovementType:    database.MovementTypeORDER,
	})
	if err != nil {
		t.Fatalf("consume: unexpected error: %v", err)
	}
	if !numericEquals(result.Item.CurrentStock, "7.5") {
		t.Errorf("expected stock 7.5, got %s", numericToDecimal(result.Item.CurrentStock))
	}

	result, err = svc.AdjustStock(ctx, AdjustStockRequest{
		InventoryItemID: rice.ID,
		Quantity:        decimal.RequireFromString("5"),
		MovementType:    database.MovementTypePURCHASE,
	})
	if err != nil {
		t.Fatalf("purchase: unexpected error: %v", err)
	}
	if !numericEquals(result.Item.CurrentStock, "12.5") {
		t.Errorf("expected stock 12.5, got %s", numericToDecimal(result.Item.CurrentStock))
	}

	_, err = svc.AdjustStock(ctx, AdjustStockRequest{
		InventoryItemID: rice.ID,
		Quantity:        decimal.RequireFromString("-13"),
		MovementType:    database.MovementTypeWASTE,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got: %v", err)
	}

	// Rejection wrote nothing: balance and ledger untouched.
	item, _ := store.GetInventoryItemForUpdate(ctx, rice.ID)
	if !numericEquals(item.CurrentStock, "12.5") {
		t.Errorf("expected stock unchanged at 12.5, got %s", numericToDecimal(item.CurrentStock))
	}
	if len(store.movements) != 2 {
		t.Errorf("expected 2 ledger rows, got %d", len(store.movements))
	}
}

func TestAdjustStock_ExactDepletionAllowed(t *testing.T) {
	rice := riceItem()
	store := newFakeInventoryStore(rice)
	svc := newTestInventoryService(store)

	result, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		InventoryItemID: rice.ID,
		Quantity:        decimal.RequireFromString("-10"),
		MovementType:    database.MovementTypeORDER,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(result.Item.CurrentStock, "0") {
		t.Errorf("expected stock 0, got %s", numericToDecimal(result.Item.CurrentStock))
	}
}

func TestAdjustStock_MovementRecordsSignedDelta(t *testing.T) {
	rice := riceItem()
	store := newFakeInventoryStore(rice)
	svc := newTestInventoryService(store)

	refID := uuid.New()
	result, err := svc.AdjustStock(context.Background(), AdjustStockRequest{
		InventoryItemID: rice.ID,
		Quantity:        decimal.RequireFromString("-2.5"),
		MovementType:    database.MovementTypeORDER,
		Notes:           "order consumption",
		ReferenceID:     uuid.NullUUID{UUID: refID, Valid: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(result.Movement.Quantity, "-2.5") {
		t.Errorf("expected movement quantity -2.5, got %s", numericToDecimal(result.Movement.Quantity))
	}
	if result.Movement.MovementType != database.MovementTypeORDER {
		t.Errorf("expected movement type ORDER, got %s", result.Movement.MovementType)
	}
	if !result.Movement.ReferenceID.Valid || uuid.UUID(result.Movement.ReferenceID.Bytes) != refID {
		t.Error("expected movement to carry the reference ID")
	}
	if !result.Movement.Notes.Valid || result.Movement.Notes.String != "order consumption" {
		t.Error("expected movement to carry the notes")
	}
}

// TestAdjustStock_LedgerReconciles runs a random sequence of adjustments
// and checks that initial stock plus the ledger sum always equals the
// materialized balance.
func TestAdjustStock_LedgerReconciles(t *testing.T) {
	rice := riceItem()
	store := newFakeInventoryStore(rice)
	svc := newTestInventoryService(store)
	ctx := context.Background()

	initial := numericToDecimal(rice.CurrentStock)
	rng := rand.New(rand.NewSource(1))
	types := []database.MovementType{
		database.MovementTypePURCHASE,
		database.MovementTypeWASTE,
		database.MovementTypeADJUSTMENT,
		database.MovementTypeORDER,
	}

	for i := 0; i < 200; i++ {
		// Deltas in [-5.0, +5.0) with 0.1 granularity; zero skipped.
		delta := decimal.NewFromInt(int64(rng.Intn(100) - 50)).Div(decimal.NewFromInt(10))
		if delta.IsZero() {
			continue
		}
		_, err := svc.AdjustStock(ctx, AdjustStockRequest{
			InventoryItemID: rice.ID,
			Quantity:        delta,
			MovementType:    types[rng.Intn(len(types))],
		})
		if err != nil && !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}

		item, _ := store.GetInventoryItemForUpdate(ctx, rice.ID)
		balance := numericToDecimal(item.CurrentStock)
		if balance.IsNegative() {
			t.Fatalf("step %d: balance went negative: %s", i, balance)
		}
		expected := initial.Add(store.ledgerSum(rice.ID))
		if !balance.Equal(expected) {
			t.Fatalf("step %d: balance %s does not reconcile with ledger %s", i, balance, expected)
		}
	}
}
