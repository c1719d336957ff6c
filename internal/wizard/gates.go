package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/splitbill/internal/models"
)

// Validation errors returned by the step gates.
var (
	ErrMissingTitle    = errors.New("bill title is required")
	ErrNoValidItems    = errors.New("at least one item needs a name and a price")
	ErrNoParticipants  = errors.New("at least one participant is required")
	ErrUnassignedItems = errors.New("every item must be assigned to someone")
)

// checkDetails is the gate for leaving the validate step.
func checkDetails(s State) error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrMissingTitle
	}
	for _, item := range s.Items {
		if item.IsValid() {
			return nil
		}
	}
	return ErrNoValidItems
}

// checkAssignments is the gate for leaving the assign step.
func checkAssignments(s State) error {
	if len(s.Participants) == 0 {
		return ErrNoParticipants
	}
	if n := s.UnassignedItemCount(); n > 0 {
		return fmt.Errorf("%w: %d unassigned", ErrUnassignedItems, n)
	}
	return nil
}

func checkSave(s State) error {
	if err := checkDetails(s); err != nil {
		return err
	}
	return checkAssignments(s)
}

// ValidateDetails checks the title and items.
func (w *Wizard) ValidateDetails() error {
	return checkDetails(w.State())
}

// ValidateAssignments checks the participants and assignments.
func (w *Wizard) ValidateAssignments() error {
	return checkAssignments(w.State())
}

// ValidateForSave re-runs every gate, since earlier steps can be revisited.
func (w *Wizard) ValidateForSave() error {
	return checkSave(w.State())
}

// Advance moves one step forward if the gate of the current step passes.
// Leaving the scan step has no gate; review is the last step.
func (w *Wizard) Advance() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	switch w.state.Step {
	case StepValidate:
		err = checkDetails(w.state)
	case StepAssign:
		err = checkAssignments(w.state)
	case StepReview:
		return nil
	}
	if err != nil {
		return err
	}
	next := w.state.clone()
	next.Step++
	w.state = next
	return nil
}

// InvalidItems returns the items that have no name or no positive total.
func (w *Wizard) InvalidItems() []models.EditableBillItem {
	var out []models.EditableBillItem
	for _, item := range w.State().Items {
		if !item.IsValid() {
			out = append(out, item)
		}
	}
	return out
}

// RemoveInvalidItems deletes every invalid item along with its assignments
// and returns how many were removed.
func (w *Wizard) RemoveInvalidItems() int {
	removed := 0
	w.update(func(s *State) {
		kept := s.Items[:0]
		for _, item := range s.Items {
			if item.IsValid() {
				kept = append(kept, item)
				continue
			}
			s.Assignments.RemoveItem(item.ID)
			removed++
		}
		s.Items = kept
	})
	return removed
}
