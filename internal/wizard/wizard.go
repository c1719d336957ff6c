// Package wizard holds the draft of a split bill while the user scans a
// receipt, fixes the items, assigns them to participants and reviews the
// split.
//
// Every mutation builds a new State from a copy of the current one and swaps
// it in under a lock, so State always returns a consistent snapshot.
package wizard

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
)

// Wizard owns one draft. Separate wizards share nothing.
type Wizard struct {
	mu     sync.RWMutex
	state  State
	saving bool
	newID  func() models.TempID
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithIDGenerator replaces the temporary ID generator.
func WithIDGenerator(gen func() models.TempID) Option {
	return func(w *Wizard) {
		w.newID = gen
	}
}

// New creates a wizard at the scan step with an empty draft.
func New(opts ...Option) *Wizard {
	w := &Wizard{
		newID: func() models.TempID {
			return models.TempID("temp_" + uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns a snapshot of the draft.
func (w *Wizard) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.clone()
}

// update applies fn to a copy of the state and replaces the state with it.
func (w *Wizard) update(fn func(s *State)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := w.state.clone()
	fn(&next)
	w.state = next
}

// Dirty reports whether closing the wizard would discard work and so needs
// confirmation.
func (w *Wizard) Dirty() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Step > StepScan
}

// SetStep jumps to step without checking any gate.
func (w *Wizard) SetStep(step Step) {
	w.update(func(s *State) {
		s.Step = step
	})
}

// GoBack moves one step back. It does nothing at the scan step.
func (w *Wizard) GoBack() {
	w.update(func(s *State) {
		if s.Step > StepScan {
			s.Step--
		}
	})
}

// SetTitle replaces the bill title.
func (w *Wizard) SetTitle(title string) {
	w.update(func(s *State) {
		s.Title = title
	})
}

// SetImageURI records the receipt image location.
func (w *Wizard) SetImageURI(uri string) {
	w.update(func(s *State) {
		s.ImageURI = uri
	})
}

// SetExtractedData replaces the draft items with the extracted ones, copies
// the surcharges into the extras and takes the extracted title if present.
// Assignments on the previous items are dropped.
func (w *Wizard) SetExtractedData(data *models.ExtractedReceipt) {
	if data == nil {
		return
	}
	w.update(func(s *State) {
		applyExtraction(s, data, w.newID)
	})
}

func applyExtraction(s *State, data *models.ExtractedReceipt, newID func() models.TempID) {
	cp := *data
	cp.Items = append([]models.ExtractedItem(nil), data.Items...)
	s.ExtractedData = &cp

	s.Items = make([]models.EditableBillItem, 0, len(data.Items))
	for _, e := range data.Items {
		qty := e.Quantity
		if qty < 1 {
			qty = 1
		}
		s.Items = append(s.Items, models.EditableBillItem{
			ID:         newID(),
			Name:       e.Name,
			Quantity:   qty,
			UnitPrice:  calculator.Round2(e.UnitPrice),
			TotalPrice: calculator.Round2(e.TotalPrice),
			Confidence: e.Confidence,
		})
	}
	s.Assignments = models.Assignments{}
	s.Extras = models.BillExtras{
		TaxAmount:     calculator.Round2(data.TaxAmount),
		ServiceCharge: calculator.Round2(data.ServiceCharge),
		TipAmount:     calculator.Round2(data.TipAmount),
	}
	if title := strings.TrimSpace(data.Title); title != "" {
		s.Title = title
	}
}

// AddItem appends a blank item and returns its ID.
func (w *Wizard) AddItem() models.TempID {
	id := w.newID()
	w.update(func(s *State) {
		s.Items = append(s.Items, blankItem(id))
	})
	return id
}

func blankItem(id models.TempID) models.EditableBillItem {
	return models.EditableBillItem{
		ID:         id,
		Quantity:   1,
		UnitPrice:  decimal.Zero,
		TotalPrice: decimal.Zero,
	}
}

// UpdateItem merges patch into the item with the given ID. Prices are
// rounded to cents. Changing the quantity or unit price recomputes the total
// as round(quantity * unit, 2). Unknown IDs are ignored.
func (w *Wizard) UpdateItem(id models.TempID, patch models.ItemPatch) {
	w.update(func(s *State) {
		i := s.itemIndex(id)
		if i < 0 {
			return
		}
		item := s.Items[i]
		if patch.Name != nil {
			item.Name = *patch.Name
		}
		if patch.TotalPrice != nil {
			item.TotalPrice = calculator.Round2(*patch.TotalPrice)
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			item.UnitPrice = calculator.Round2(*patch.UnitPrice)
		}
		if patch.Quantity != nil || patch.UnitPrice != nil {
			item.TotalPrice = calculator.LineTotal(item.Quantity, item.UnitPrice)
		}
		item.Edited = true
		s.Items[i] = item
	})
}

// RemoveItem deletes the item and its assignments.
func (w *Wizard) RemoveItem(id models.TempID) {
	w.update(func(s *State) {
		i := s.itemIndex(id)
		if i < 0 {
			return
		}
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
		s.Assignments.RemoveItem(id)
	})
}

// AddParticipant adds a participant with the trimmed name. Blank names are
// ignored and reported with ok == false. Duplicate names are not checked
// here; see HasParticipantNamed.
func (w *Wizard) AddParticipant(name string) (id models.TempID, ok bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	id = w.newID()
	w.update(func(s *State) {
		s.Participants = append(s.Participants, models.EditableParticipant{ID: id, Name: name})
	})
	return id, true
}

// HasParticipantNamed reports whether a participant with the same name,
// ignoring case and surrounding spaces, already exists.
func (w *Wizard) HasParticipantNamed(name string) bool {
	name = strings.TrimSpace(name)
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, p := range w.state.Participants {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// RemoveParticipant deletes the participant and takes them off every item.
func (w *Wizard) RemoveParticipant(id models.TempID) {
	w.update(func(s *State) {
		i := s.participantIndex(id)
		if i < 0 {
			return
		}
		s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
		s.Assignments.RemoveParticipant(id)
	})
}

// ToggleItemAssignment assigns the participant to the item, or unassigns
// them if already assigned. Pairs naming an unknown item or participant are
// ignored.
func (w *Wizard) ToggleItemAssignment(itemID, participantID models.TempID) {
	w.update(func(s *State) {
		if s.itemIndex(itemID) < 0 || s.participantIndex(participantID) < 0 {
			return
		}
		s.Assignments.Toggle(itemID, participantID)
	})
}

// UpdateExtras merges patch into the extras, rounded to cents.
func (w *Wizard) UpdateExtras(patch models.ExtrasPatch) {
	w.update(func(s *State) {
		if patch.TaxAmount != nil {
			s.Extras.TaxAmount = calculator.Round2(*patch.TaxAmount)
		}
		if patch.ServiceCharge != nil {
			s.Extras.ServiceCharge = calculator.Round2(*patch.ServiceCharge)
		}
		if patch.TipAmount != nil {
			s.Extras.TipAmount = calculator.Round2(*patch.TipAmount)
		}
	})
}

// Subtotal returns the sum of item totals.
func (w *Wizard) Subtotal() decimal.Decimal {
	return w.State().Subtotal()
}

// Total returns subtotal + tax + service charge + tip.
func (w *Wizard) Total() decimal.Decimal {
	return w.State().Total()
}

// UnassignedItemCount returns the number of items without assignees.
func (w *Wizard) UnassignedItemCount() int {
	return w.State().UnassignedItemCount()
}

// AllItemsAssigned reports whether every item has an assignee.
func (w *Wizard) AllItemsAssigned() bool {
	return w.State().AllItemsAssigned()
}

// Summaries returns the live split for the current draft.
func (w *Wizard) Summaries() []calculator.ParticipantSummary {
	return w.State().Summaries()
}

// StartManualEntry is the fallback after a failed scan: it seeds a blank
// item if there are none and moves to the validate step.
func (w *Wizard) StartManualEntry() {
	id := w.newID()
	w.update(func(s *State) {
		if len(s.Items) == 0 {
			s.Items = append(s.Items, blankItem(id))
		}
		s.Step = StepValidate
	})
}

// Reset discards the draft and returns to the scan step.
func (w *Wizard) Reset() {
	w.update(func(s *State) {
		*s = State{}
	})
}
