package wizard

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
)

// Step is the wizard position. Steps only move forward one at a time.
type Step int

const (
	StepScan Step = iota
	StepValidate
	StepAssign
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepScan:
		return "scan"
	case StepValidate:
		return "validate"
	case StepAssign:
		return "assign"
	case StepReview:
		return "review"
	}
	return "unknown"
}

// State is an immutable snapshot of the draft bill.
type State struct {
	Step          Step
	Title         string
	ImageURI      string
	ExtractedData *models.ExtractedReceipt
	Items         []models.EditableBillItem
	Participants  []models.EditableParticipant
	Assignments   models.Assignments
	Extras        models.BillExtras
}

func (s State) clone() State {
	out := s
	out.Items = append([]models.EditableBillItem(nil), s.Items...)
	out.Participants = append([]models.EditableParticipant(nil), s.Participants...)
	out.Assignments = s.Assignments.Clone()
	if s.ExtractedData != nil {
		data := *s.ExtractedData
		data.Items = append([]models.ExtractedItem(nil), s.ExtractedData.Items...)
		out.ExtractedData = &data
	}
	return out
}

// Subtotal returns the sum of all item totals.
func (s State) Subtotal() decimal.Decimal {
	return calculator.Subtotal(s.Items)
}

// Total returns the subtotal plus all extras.
func (s State) Total() decimal.Decimal {
	return calculator.Total(s.Items, s.Extras)
}

// UnassignedItemCount returns how many items nobody shares.
func (s State) UnassignedItemCount() int {
	n := 0
	for _, item := range s.Items {
		if s.Assignments.Count(item.ID) == 0 {
			n++
		}
	}
	return n
}

// AllItemsAssigned is true when every item has an assignee, including when
// there are no items at all.
func (s State) AllItemsAssigned() bool {
	return s.UnassignedItemCount() == 0
}

// Summaries runs the split calculation over the draft.
func (s State) Summaries() []calculator.ParticipantSummary {
	return calculator.CalculateParticipantSummaries(s.Items, s.Participants, s.Assignments, s.Extras)
}

// Input converts the draft into a persistence request.
func (s State) Input() models.CreateSplitBillInput {
	c := s.clone()
	return models.CreateSplitBillInput{
		Title:           c.Title,
		Items:           c.Items,
		Participants:    c.Participants,
		Assignments:     c.Assignments,
		Extras:          c.Extras,
		ReceiptImageURL: c.ImageURI,
	}
}

func (s State) itemIndex(id models.TempID) int {
	for i, item := range s.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (s State) participantIndex(id models.TempID) int {
	for i, p := range s.Participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}
