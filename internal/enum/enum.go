package enum

// ── State machines (CHECK constrained in DB) ──

// Order statuses form a linear, forward-only machine:
// NEW → PREPARING → READY → SERVED → PAID. PAID is terminal.
const (
	OrderStatusNew       = "NEW"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusServed    = "SERVED"
	OrderStatusPaid      = "PAID"
)

// Table statuses have no ordering; transitions are either operator
// overrides or cascades from the order lifecycle.
const (
	TableStatusAvailable     = "AVAILABLE"
	TableStatusOccupied      = "OCCUPIED"
	TableStatusReserved      = "RESERVED"
	TableStatusNeedsCleaning = "NEEDS_CLEANING"
)

const (
	MovementTypePurchase   = "PURCHASE"
	MovementTypeWaste      = "WASTE"
	MovementTypeAdjustment = "ADJUSTMENT"
	MovementTypeOrder      = "ORDER"
	MovementTypeInitial    = "INITIAL"
)

// ── Borderline (CHECK constrained in DB) ──

const (
	UserRoleOwner   = "OWNER"
	UserRoleManager = "MANAGER"
	UserRoleWaiter  = "WAITER"
	UserRoleKitchen = "KITCHEN"
)

// ── Configurable labels (no DB constraint) ──

const (
	NotificationWaiterCalled  = "WAITER_CALLED"
	NotificationBillRequested = "BILL_REQUESTED"
)
