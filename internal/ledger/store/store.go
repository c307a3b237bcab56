package store

import (
	"context"

	"credentia/internal/ledger/models"
)

// Store is the ledger's record store. Appends are serialized; reads may run
// concurrently with each other and with appends.
type Store interface {
	// Append commits record, assigning its block number. It returns
	// sentinel.ErrConflict when the student ID or record ID is already taken.
	Append(ctx context.Context, record models.CredentialRecord) (models.CredentialRecord, error)
	FindByID(ctx context.Context, id models.RecordID) (models.CredentialRecord, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)
	Len(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.CredentialRecord, error)
}
