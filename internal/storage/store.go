// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitbill/internal/models"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the interface for split bill storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// Settlement operations only touch settlement flags and the bill status;
// amounts are written once, by CreateSplitBill.
type Store interface {
	// CreateSplitBill persists the bill, items, participants and
	// assignments in one transaction. Missing IDs and timestamps are filled in.
	CreateSplitBill(ctx context.Context, details *models.SplitBillWithDetails) error

	// GetSplitBillWithDetails loads the full aggregate, keeping draft order.
	GetSplitBillWithDetails(ctx context.Context, billID string) (*models.SplitBillWithDetails, error)

	// ListSplitBills returns the bills owned by userID, newest first.
	ListSplitBills(ctx context.Context, userID string) ([]*models.SplitBill, error)

	// SettleParticipant marks one participant as paid and re-derives the
	// bill status.
	SettleParticipant(ctx context.Context, billID, participantID string) error

	// UnsettleParticipant marks one participant as unpaid and re-derives the
	// bill status.
	UnsettleParticipant(ctx context.Context, billID, participantID string) error

	// SettleSplitBill marks every participant as paid and the bill as settled.
	SettleSplitBill(ctx context.Context, billID string) error

	// ArchiveSplitBill moves the bill to the archived status.
	ArchiveSplitBill(ctx context.Context, billID string) error

	// DeleteSplitBill removes the bill and everything under it.
	DeleteSplitBill(ctx context.Context, billID string) error

	// Close releases any resources held by the store.
	Close() error
}

// ImageStore keeps uploaded receipt images.
type ImageStore interface {
	// SaveReceiptImage stores the image and returns the URL it is served from.
	SaveReceiptImage(ctx context.Context, data []byte, contentType string) (string, error)
}
