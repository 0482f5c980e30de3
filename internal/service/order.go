package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/warung-pos/api/internal/database"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems          = errors.New("items are required")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidMenuItemID   = errors.New("invalid menu_item_id")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrMenuItemUnavailable = errors.New("menu item is not available")
	ErrTableNotFound       = errors.New("table not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderItemNotFound   = errors.New("order item not found")
	ErrUnknownStatus       = errors.New("unknown order status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderPaid           = errors.New("order is paid and immutable")
	ErrStatusConflict      = errors.New("order status changed, please retry")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order lifecycle needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int64, error)
	GetTable(ctx context.Context, tableNumber int32) (database.DiningTable, error)
	GetMenuItemForOrder(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	OccupyTable(ctx context.Context, arg database.OccupyTableParams) (database.DiningTable, error)
	ReleaseTable(ctx context.Context, tableNumber int32) (database.DiningTable, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	GetOrderItem(ctx context.Context, id uuid.UUID) (database.OrderItem, error)
	UpdateOrderItemQuantity(ctx context.Context, arg database.UpdateOrderItemQuantityParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, id uuid.UUID) error
	RefreshOrderTotal(ctx context.Context, id uuid.UUID) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// statusSequence is the linear, forward-only order machine. No transition
// moves backward and none skips a step; PAID is terminal.
var statusSequence = []database.OrderStatus{
	database.OrderStatusNEW,
	database.OrderStatusPREPARING,
	database.OrderStatusREADY,
	database.OrderStatusSERVED,
	database.OrderStatusPAID,
}

// NextStatus returns the only status reachable from current, or false when
// current is terminal.
func NextStatus(current database.OrderStatus) (database.OrderStatus, bool) {
	for i, s := range statusSequence {
		if s == current && i+1 < len(statusSequence) {
			return statusSequence[i+1], true
		}
	}
	return "", false
}

// IsValidOrderStatus reports whether s names a known order status.
func IsValidOrderStatus(s database.OrderStatus) bool {
	for _, known := range statusSequence {
		if s == known {
			return true
		}
	}
	return false
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	TableNumber int32
	WaiterName  string
	Items       []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line in the order.
type CreateOrderItemRequest struct {
	MenuItemID string
	Quantity   int32
	Notes      string
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// ItemMutationResult carries the line after an add/update/remove plus the
// order with its recomputed total. Item is nil when the line was removed.
type ItemMutationResult struct {
	Item  *database.OrderItem
	Order database.Order
}

// OrderService owns the order lifecycle and its table cascades. It is the
// only writer of orders and order_items.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// pricedItem holds a prepared order line and its unit price.
type pricedItem struct {
	menuItemID uuid.UUID
	quantity   int32
	notes      string
	unitPrice  decimal.Decimal
}

// CreateOrder validates, prices the items against the current catalog, and
// inserts the order, its lines, and the table occupancy cascade atomically.
// Retries up to maxOrderNumberRetries times on order_number unique
// constraint violations (concurrent transactions can draw the same
// per-day sequence number).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		if _, err := uuid.Parse(item.MenuItemID); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidMenuItemID)
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint
// violation on the order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_number_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetTable(ctx, req.TableNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderNumber := fmt.Sprintf("ORD-%s-%03d", time.Now().Format("20060102"), nextNum)

	// Price every line against the current catalog before writing anything.
	total := decimal.Zero
	var lines []pricedItem
	for i, item := range req.Items {
		menuItemID, _ := uuid.Parse(item.MenuItemID)
		menuItem, err := store.GetMenuItemForOrder(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get menu item: %w", i, err)
		}
		if !menuItem.IsAvailable {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrMenuItemUnavailable)
		}
		unitPrice := numericToDecimal(menuItem.Price)
		total = total.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
		lines = append(lines, pricedItem{
			menuItemID: menuItemID,
			quantity:   item.Quantity,
			notes:      item.Notes,
			unitPrice:  unitPrice,
		})
	}

	waiterName := pgtype.Text{}
	if req.WaiterName != "" {
		waiterName = pgtype.Text{String: req.WaiterName, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		OrderNumber: orderNumber,
		TableNumber: req.TableNumber,
		Total:       decimalToNumeric(total),
		WaiterName:  waiterName,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(lines))
	for _, line := range lines {
		notes := pgtype.Text{}
		if line.notes != "" {
			notes = pgtype.Text{String: line.notes, Valid: true}
		}
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: line.menuItemID,
			Quantity:   line.quantity,
			Notes:      notes,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	// Cascade: the table now holds this open order.
	if _, err := store.OccupyTable(ctx, database.OccupyTableParams{
		TableNumber:    req.TableNumber,
		CurrentOrderID: pgtype.UUID{Bytes: order.ID, Valid: true},
	}); err != nil {
		return nil, fmt.Errorf("occupy table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// TransitionStatus advances an order exactly one step along the forward
// sequence. Any jump, backward move, or move out of PAID fails with
// ErrInvalidTransition. Reaching PAID cascades the table to NEEDS_CLEANING
// and clears its order reference, in the same transaction.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, newStatus database.OrderStatus) (database.Order, error) {
	if !IsValidOrderStatus(newStatus) {
		return database.Order{}, ErrUnknownStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	next, ok := NextStatus(current.Status)
	if !ok || next != newStatus {
		return database.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:             orderID,
		Status:         newStatus,
		ExpectedStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Status moved between our read and write.
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	if newStatus == database.OrderStatusPAID {
		if _, err := store.ReleaseTable(ctx, updated.TableNumber); err != nil {
			return database.Order{}, fmt.Errorf("release table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return updated, nil
}

// AddItem appends a line to a pre-terminal order and recomputes the cached
// total, atomically.
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, menuItemID string, quantity int32, notes string) (*ItemMutationResult, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	mid, err := uuid.Parse(menuItemID)
	if err != nil {
		return nil, ErrInvalidMenuItemID
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == database.OrderStatusPAID {
		return nil, ErrOrderPaid
	}

	menuItem, err := store.GetMenuItemForOrder(ctx, mid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if !menuItem.IsAvailable {
		return nil, ErrMenuItemUnavailable
	}

	notesText := pgtype.Text{}
	if notes != "" {
		notesText = pgtype.Text{String: notes, Valid: true}
	}
	item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
		OrderID:    orderID,
		MenuItemID: mid,
		Quantity:   quantity,
		Notes:      notesText,
	})
	if err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	updated, err := store.RefreshOrderTotal(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("refresh order total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &ItemMutationResult{Item: &item, Order: updated}, nil
}

// UpdateItemQuantity sets a line's quantity on a pre-terminal order.
// Quantity zero removes the line. The cached total is recomputed in the
// same transaction.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int32) (*ItemMutationResult, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return s.mutateItem(ctx, itemID, func(ctx context.Context, store OrderStore, item database.OrderItem) (*database.OrderItem, error) {
		if quantity == 0 {
			if err := store.DeleteOrderItem(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("delete order item: %w", err)
			}
			return nil, nil
		}
		updated, err := store.UpdateOrderItemQuantity(ctx, database.UpdateOrderItemQuantityParams{
			ID:       item.ID,
			Quantity: quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("update order item: %w", err)
		}
		return &updated, nil
	})
}

// RemoveItem deletes a line from a pre-terminal order and recomputes the
// cached total.
func (s *OrderService) RemoveItem(ctx context.Context, itemID uuid.UUID) (*ItemMutationResult, error) {
	return s.mutateItem(ctx, itemID, func(ctx context.Context, store OrderStore, item database.OrderItem) (*database.OrderItem, error) {
		if err := store.DeleteOrderItem(ctx, item.ID); err != nil {
			return nil, fmt.Errorf("delete order item: %w", err)
		}
		return nil, nil
	})
}

// mutateItem wraps an item mutation: lock the owning order, refuse if it is
// terminal, apply the change, then recompute the total.
func (s *OrderService) mutateItem(ctx context.Context, itemID uuid.UUID, apply func(context.Context, OrderStore, database.OrderItem) (*database.OrderItem, error)) (*ItemMutationResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetOrderItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, item.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == database.OrderStatusPAID {
		return nil, ErrOrderPaid
	}

	mutated, err := apply(ctx, store, item)
	if err != nil {
		return nil, err
	}

	updated, err := store.RefreshOrderTotal(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("refresh order total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &ItemMutationResult{Item: mutated, Order: updated}, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
