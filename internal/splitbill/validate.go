// Package splitbill turns a finished wizard draft into the persisted split
// bill aggregate.
package splitbill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid split bill")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Validate checks a create request the same way the wizard gates do, plus
// the referential checks a client could get wrong.
func Validate(input models.CreateSplitBillInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return invalid("title is required")
	}
	if err := validateExtras(input.Extras); err != nil {
		return err
	}

	items := make(map[models.TempID]bool, len(input.Items))
	hasValid := false
	for i, item := range input.Items {
		if item.ID == "" {
			return invalid("item %d: id is required", i+1)
		}
		if items[item.ID] {
			return invalid("item %d: duplicate id %q", i+1, item.ID)
		}
		items[item.ID] = true
		if item.Quantity < 1 {
			return invalid("item %d: quantity must be at least 1", i+1)
		}
		if item.UnitPrice.IsNegative() || item.TotalPrice.IsNegative() {
			return invalid("item %d: prices cannot be negative", i+1)
		}
		if !wholeCents(item.UnitPrice) || !wholeCents(item.TotalPrice) {
			return invalid("item %d: prices must be in whole cents", i+1)
		}
		if item.IsValid() {
			hasValid = true
		}
	}
	if !hasValid {
		return invalid("at least one item needs a name and a price")
	}

	if len(input.Participants) == 0 {
		return invalid("at least one participant is required")
	}
	participants := make(map[models.TempID]bool, len(input.Participants))
	names := make(map[string]bool, len(input.Participants))
	for i, p := range input.Participants {
		if p.ID == "" {
			return invalid("participant %d: id is required", i+1)
		}
		if participants[p.ID] {
			return invalid("participant %d: duplicate id %q", i+1, p.ID)
		}
		participants[p.ID] = true

		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return invalid("participant %d: name is required", i+1)
		}
		if names[name] {
			return invalid("participant %q is listed twice", p.Name)
		}
		names[name] = true
	}

	for item, assignees := range input.Assignments.Map() {
		if !items[item] {
			return invalid("assignment references unknown item %q", item)
		}
		for _, p := range assignees {
			if !participants[p] {
				return invalid("assignment references unknown participant %q", p)
			}
		}
	}
	unassigned := 0
	for _, item := range input.Items {
		if input.Assignments.Count(item.ID) == 0 {
			unassigned++
		}
	}
	if unassigned > 0 {
		return invalid("%d items are not assigned to anyone", unassigned)
	}
	return nil
}

func validateExtras(extras models.BillExtras) error {
	if extras.TaxAmount.IsNegative() {
		return invalid("tax amount cannot be negative")
	}
	if extras.ServiceCharge.IsNegative() {
		return invalid("service charge cannot be negative")
	}
	if extras.TipAmount.IsNegative() {
		return invalid("tip amount cannot be negative")
	}
	if !wholeCents(extras.TaxAmount) || !wholeCents(extras.ServiceCharge) || !wholeCents(extras.TipAmount) {
		return invalid("extras must be in whole cents")
	}
	return nil
}

func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
