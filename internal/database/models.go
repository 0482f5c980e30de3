package database

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusNEW       OrderStatus = "NEW"
	OrderStatusPREPARING OrderStatus = "PREPARING"
	OrderStatusREADY     OrderStatus = "READY"
	OrderStatusSERVED    OrderStatus = "SERVED"
	OrderStatusPAID      OrderStatus = "PAID"
)

func (e *OrderStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = OrderStatus(s)
	case string:
		*e = OrderStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for OrderStatus: %T", src)
	}
	return nil
}

func (e OrderStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type TableStatus string

const (
	TableStatusAVAILABLE     TableStatus = "AVAILABLE"
	TableStatusOCCUPIED      TableStatus = "OCCUPIED"
	TableStatusRESERVED      TableStatus = "RESERVED"
	TableStatusNEEDSCLEANING TableStatus = "NEEDS_CLEANING"
)

func (e *TableStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = TableStatus(s)
	case string:
		*e = TableStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for TableStatus: %T", src)
	}
	return nil
}

func (e TableStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type MovementType string

const (
	MovementTypePURCHASE   MovementType = "PURCHASE"
	MovementTypeWASTE      MovementType = "WASTE"
	MovementTypeADJUSTMENT MovementType = "ADJUSTMENT"
	MovementTypeORDER      MovementType = "ORDER"
	MovementTypeINITIAL    MovementType = "INITIAL"
)

func (e *MovementType) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = MovementType(s)
	case string:
		*e = MovementType(s)
	default:
		return fmt.Errorf("unsupported scan type for MovementType: %T", src)
	}
	return nil
}

func (e MovementType) Value() (driver.Value, error) {
	return string(e), nil
}

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	HourlyRate     pgtype.Numeric
	CreatedAt      time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Price       pgtype.Numeric
	Cost        pgtype.Numeric
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type DiningTable struct {
	TableNumber    int32
	Status         TableStatus
	Capacity       int32
	CurrentOrderID pgtype.UUID
	LastCleanedAt  pgtype.Timestamptz
	UpdatedAt      time.Time
}

type Order struct {
	ID          uuid.UUID
	OrderNumber string
	TableNumber int32
	Status      OrderStatus
	Total       pgtype.Numeric
	WaiterName  pgtype.Text
	SplitCount  pgtype.Int4
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	Notes      pgtype.Text
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type InventoryItem struct {
	ID           uuid.UUID
	Name         string
	Category     string
	Unit         string
	CurrentStock pgtype.Numeric
	MinimumStock pgtype.Numeric
	CostPerUnit  pgtype.Numeric
	SupplierID   pgtype.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type StockMovement struct {
	ID              uuid.UUID
	InventoryItemID uuid.UUID
	Quantity        pgtype.Numeric
	MovementType    MovementType
	ReferenceID     pgtype.UUID
	Notes           pgtype.Text
	CreatedAt       time.Time
}

type ClockRecord struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	EmployeeName string
	ClockIn      time.Time
	ClockOut     pgtype.Timestamptz
	BreakMinutes int32
	HourlyRate   pgtype.Numeric
	CreatedAt    time.Time
}
