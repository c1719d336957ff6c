package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitbill/internal/models"
)

var (
	// ErrSaveInProgress is returned when Save is called while another save
	// of the same draft has not resolved yet.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrExtractionFailed wraps any failure of the receipt scan. The draft is
	// left as it was so the caller can retry or switch to manual entry.
	ErrExtractionFailed = errors.New("receipt extraction failed")
)

// Creator persists a finished draft.
type Creator interface {
	CreateSplitBill(ctx context.Context, input models.CreateSplitBillInput) (*models.SplitBill, error)
}

// Scanner uploads a receipt image and extracts its line items.
type Scanner interface {
	ScanReceipt(ctx context.Context, image []byte, contentType string) (*models.ScanResult, error)
}

// Save validates the draft and hands it to creator. On success the wizard is
// reset; on failure the draft is kept so the user can retry.
//
// The save is not cancelled when ctx is; the caller waits for the result
// before closing the wizard.
func (w *Wizard) Save(ctx context.Context, creator Creator) (*models.SplitBill, error) {
	w.mu.Lock()
	if w.saving {
		w.mu.Unlock()
		return nil, ErrSaveInProgress
	}
	snapshot := w.state.clone()
	if err := checkSave(snapshot); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.saving = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.saving = false
		w.mu.Unlock()
	}()

	slog.Debug("Saving split bill",
		"title", snapshot.Title,
		"items", len(snapshot.Items),
		"participants", len(snapshot.Participants),
		"total", snapshot.Total().StringFixed(2),
	)

	bill, err := creator.CreateSplitBill(context.WithoutCancel(ctx), snapshot.Input())
	if err != nil {
		slog.Error("Failed to save split bill", "title", snapshot.Title, "error", err)
		return nil, fmt.Errorf("failed to save split bill: %w", err)
	}
	if bill == nil {
		return nil, errors.New("failed to save split bill: no bill returned")
	}

	w.Reset()
	slog.Info("Split bill saved", "bill_id", bill.ID)
	return bill, nil
}

// Saving reports whether a save is in flight.
func (w *Wizard) Saving() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.saving
}

// Scan sends the receipt image to scanner. On success the image URI and the
// extracted data are applied and the wizard moves to the validate step.
// Failures wrap ErrExtractionFailed and leave the items untouched.
func (w *Wizard) Scan(ctx context.Context, scanner Scanner, image []byte, contentType string) error {
	result, err := scanner.ScanReceipt(ctx, image, contentType)
	if err != nil {
		slog.Warn("Receipt scan failed", "error", err)
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if result == nil {
		slog.Warn("Receipt scan returned no result")
		return fmt.Errorf("%w: no result returned", ErrExtractionFailed)
	}

	if !result.Extraction.Success || result.Extraction.Data == nil {
		if result.ImageURL != "" {
			w.SetImageURI(result.ImageURL)
		}
		msg := result.Extraction.Error
		if msg == "" {
			msg = "no data returned"
		}
		slog.Warn("Receipt extraction unsuccessful", "error", msg)
		return fmt.Errorf("%w: %s", ErrExtractionFailed, msg)
	}

	w.update(func(s *State) {
		s.ImageURI = result.ImageURL
		applyExtraction(s, result.Extraction.Data, w.newID)
		s.Step = StepValidate
	})
	return nil
}
