// Package billview holds a saved bill on the client and applies settlement
// changes optimistically, rolling back when the server rejects them.
package billview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
)

// ErrUnknownParticipant is returned when toggling a participant that is
// not on the bill.
var ErrUnknownParticipant = errors.New("participant is not on this bill")

// Settler performs settlement changes on the server and returns the bill as
// stored afterwards.
type Settler interface {
	SettleParticipant(ctx context.Context, billID, participantID string) (*models.SplitBillWithDetails, error)
	UnsettleParticipant(ctx context.Context, billID, participantID string) (*models.SplitBillWithDetails, error)
	SettleSplitBill(ctx context.Context, billID string) (*models.SplitBillWithDetails, error)
}

// View is a saved bill plus its settlement state.
type View struct {
	mu      sync.RWMutex
	bill    *models.SplitBillWithDetails
	settler Settler
	now     func() int64
}

// New wraps bill. The view keeps its own copy.
func New(bill *models.SplitBillWithDetails, settler Settler) *View {
	return &View{bill: clone(bill), settler: settler, now: func() int64 { return time.Now().Unix() }}
}

// Bill returns a copy of the current bill.
func (v *View) Bill() *models.SplitBillWithDetails {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return clone(v.bill)
}

// Progress reports collected and outstanding amounts.
func (v *View) Progress() calculator.Progress {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return calculator.SettlementProgress(v.bill.Participants)
}

// TogglePaid flips one participant's paid flag. The change is visible
// immediately; if the server call fails the previous state is restored and
// the error returned.
func (v *View) TogglePaid(ctx context.Context, participantID string) error {
	v.mu.Lock()
	p, ok := v.bill.Participant(participantID)
	if !ok {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, participantID)
	}
	prev := map[string]paidState{participantID: {settled: p.IsSettled, at: p.SettledAt}}
	settle := !p.IsSettled
	p.IsSettled = settle
	p.SettledAt = 0
	if settle {
		p.SettledAt = v.now()
	}
	v.bill.Bill.Status = calculator.DeriveStatus(v.bill.Bill.Status, v.bill.Participants)
	billID := v.bill.Bill.ID
	v.mu.Unlock()

	var (
		updated *models.SplitBillWithDetails
		err     error
	)
	if settle {
		updated, err = v.settler.SettleParticipant(ctx, billID, participantID)
	} else {
		updated, err = v.settler.UnsettleParticipant(ctx, billID, participantID)
	}
	if err != nil {
		v.rollback(prev)
		slog.Warn("Settlement change rolled back",
			"bill_id", billID,
			"participant_id", participantID,
			"settle", settle,
			"error", err,
		)
		return fmt.Errorf("failed to update settlement: %w", err)
	}

	v.adopt(updated)
	return nil
}

// SettleAll marks every participant as paid, with the same rollback as
// TogglePaid.
func (v *View) SettleAll(ctx context.Context) error {
	v.mu.Lock()
	prev := make(map[string]paidState)
	now := v.now()
	for i := range v.bill.Participants {
		p := &v.bill.Participants[i]
		if !p.IsSettled {
			prev[p.ID] = paidState{settled: false, at: p.SettledAt}
			p.IsSettled = true
			p.SettledAt = now
		}
	}
	if v.bill.Bill.Status != models.BillStatusArchived {
		v.bill.Bill.Status = models.BillStatusSettled
	}
	billID := v.bill.Bill.ID
	v.mu.Unlock()

	updated, err := v.settler.SettleSplitBill(ctx, billID)
	if err != nil {
		v.rollback(prev)
		slog.Warn("Settle all rolled back", "bill_id", billID, "error", err)
		return fmt.Errorf("failed to settle bill: %w", err)
	}

	v.adopt(updated)
	return nil
}

type paidState struct {
	settled bool
	at      int64
}

// rollback restores only the participants a failed call flipped, so changes
// confirmed in the meantime survive.
func (v *View) rollback(prev map[string]paidState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, st := range prev {
		if p, ok := v.bill.Participant(id); ok {
			p.IsSettled = st.settled
			p.SettledAt = st.at
		}
	}
	v.bill.Bill.Status = calculator.DeriveStatus(v.bill.Bill.Status, v.bill.Participants)
}

// adopt takes the server's copy when it returned one.
func (v *View) adopt(updated *models.SplitBillWithDetails) {
	if updated == nil {
		return
	}
	v.mu.Lock()
	v.bill = clone(updated)
	v.mu.Unlock()
}

func clone(b *models.SplitBillWithDetails) *models.SplitBillWithDetails {
	if b == nil {
		return &models.SplitBillWithDetails{}
	}
	c := *b
	c.Participants = append([]models.BillParticipant(nil), b.Participants...)
	c.Items = append([]models.BillItem(nil), b.Items...)
	c.Assignments = append([]models.BillItemAssignment(nil), b.Assignments...)
	return &c
}
