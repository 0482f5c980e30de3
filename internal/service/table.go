package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/warung-pos/api/internal/database"
)

var ErrUnknownTableStatus = errors.New("unknown table status")

// TableStore defines the DB methods the table coordinator needs.
// Satisfied by *database.Queries.
type TableStore interface {
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
}

// TableService holds table status. It drives no transitions of its own:
// every change is either an operator override through SetStatus or a
// cascade the order lifecycle applies directly (occupy on create, release
// on payment).
type TableService struct {
	store TableStore
}

// NewTableService creates a new TableService.
func NewTableService(store TableStore) *TableService {
	return &TableService{store: store}
}

// SetStatus is the operator override. It is always permitted — including
// marking a table AVAILABLE while a stale order reference remains; callers
// transitioning away from OCCUPIED are trusted to clear the reference.
// Entering AVAILABLE stamps the last-cleaned timestamp.
func (s *TableService) SetStatus(ctx context.Context, tableNumber int32, status database.TableStatus) (database.DiningTable, error) {
	if !isValidTableStatus(status) {
		return database.DiningTable{}, ErrUnknownTableStatus
	}

	table, err := s.store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		TableNumber: tableNumber,
		Status:      status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("update table status: %w", err)
	}
	return table, nil
}

func isValidTableStatus(s database.TableStatus) bool {
	switch s {
	case database.TableStatusAVAILABLE,
		database.TableStatusOCCUPIED,
		database.TableStatusRESERVED,
		database.TableStatusNEEDSCLEANING:
		return true
	}
	return false
}
