package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/warung-pos/api/internal/database"
)

type mockTableStore struct {
	updateTableStatusFn func(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
}

func (m *mockTableStore) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error) {
	return m.updateTableStatusFn(ctx, arg)
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	svc := NewTableService(&mockTableStore{})

	_, err := svc.SetStatus(context.Background(), 4, "BROKEN")
	if !errors.Is(err, ErrUnknownTableStatus) {
		t.Fatalf("expected ErrUnknownTableStatus, got: %v", err)
	}
}

func TestSetStatus_TableNotFound(t *testing.T) {
	store := &mockTableStore{
		updateTableStatusFn: func(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error) {
			return database.DiningTable{}, pgx.ErrNoRows
		},
	}
	svc := NewTableService(store)

	_, err := svc.SetStatus(context.Background(), 99, database.TableStatusRESERVED)
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got: %v", err)
	}
}

// Every status is a permitted operator override, including moves that look
// odd (OCCUPIED directly, AVAILABLE while an order reference lingers).
func TestSetStatus_AllStatusesAccepted(t *testing.T) {
	statuses := []database.TableStatus{
		database.TableStatusAVAILABLE,
		database.TableStatusOCCUPIED,
		database.TableStatusRESERVED,
		database.TableStatusNEEDSCLEANING,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			store := &mockTableStore{
				updateTableStatusFn: func(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error) {
					return database.DiningTable{TableNumber: arg.TableNumber, Status: arg.Status}, nil
				},
			}
			svc := NewTableService(store)

			table, err := svc.SetStatus(context.Background(), 4, status)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if table.Status != status {
				t.Errorf("expected status %s, got %s", status, table.Status)
			}
		})
	}
}
