package splitbill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

// Repository validates drafts and persists them through a storage.Store.
type Repository struct {
	store storage.Store
	now   func() time.Time
}

// NewRepository creates a Repository backed by store.
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store, now: time.Now}
}

// Create validates input, computes the split and stores the aggregate for
// ownerID as a single unit.
func (r *Repository) Create(ctx context.Context, ownerID string, input models.CreateSplitBillInput) (*models.SplitBillWithDetails, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}

	details := Build(input, ownerID, r.now())
	if err := r.store.CreateSplitBill(ctx, details); err != nil {
		return nil, fmt.Errorf("failed to create split bill: %w", err)
	}

	slog.Info("Split bill created",
		"bill_id", details.Bill.ID,
		"user_id", ownerID,
		"items", len(details.Items),
		"participants", len(details.Participants),
		"total", details.Bill.TotalAmount.StringFixed(2),
	)
	return details, nil
}

// Preview runs the split calculation without persisting anything.
// Unassigned items are allowed so a draft can be previewed mid-flow.
func Preview(input models.CreateSplitBillInput) ([]calculator.ParticipantSummary, error) {
	if err := validateExtras(input.Extras); err != nil {
		return nil, err
	}
	for i, item := range input.Items {
		if item.TotalPrice.IsNegative() {
			return nil, invalid("item %d: prices cannot be negative", i+1)
		}
	}
	return calculator.CalculateParticipantSummaries(input.Items, input.Participants, input.Assignments, input.Extras), nil
}
