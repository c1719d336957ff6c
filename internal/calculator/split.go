package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
)

// ItemShare is one participant's portion of one item.
type ItemShare struct {
	Item            models.EditableBillItem
	ShareAmount     decimal.Decimal
	SharePercentage decimal.Decimal
}

// ParticipantSummary is the calculated share of the bill for one participant.
type ParticipantSummary struct {
	Participant models.EditableParticipant

	// Items are the items assigned to this participant with their share.
	Items []ItemShare

	// ItemsSubtotal is the sum of the item shares (before surcharges).
	ItemsSubtotal decimal.Decimal

	// Surcharge shares, proportional to ItemsSubtotal / bill subtotal.
	TaxShare     decimal.Decimal
	ServiceShare decimal.Decimal
	TipShare     decimal.Decimal

	// TotalAmount is ItemsSubtotal plus all surcharge shares.
	TotalAmount decimal.Decimal
}

// Subtotal returns the sum of all item total prices.
func Subtotal(items []models.EditableBillItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

// Total returns the subtotal plus tax, service charge and tip.
func Total(items []models.EditableBillItem, extras models.BillExtras) decimal.Decimal {
	return Subtotal(items).Add(extras.Sum())
}

// CalculateParticipantSummaries computes each participant's share of the
// bill. The result follows the order of participants.
//
// Algorithm:
//   - Each item is split evenly in cents among its assignees; leftover cents go
//     to the assignees that come first in participants.
//   - Tax, service charge and tip are each allocated by largest remainder,
//     weighted by every participant's items subtotal over the bill subtotal.
//   - Items without assignees are skipped; a zero subtotal yields zero
//     surcharge shares.
//
// When every item is assigned the participant totals add up to
// Total(items, extras) exactly.
func CalculateParticipantSummaries(
	items []models.EditableBillItem,
	participants []models.EditableParticipant,
	assignments models.Assignments,
	extras models.BillExtras,
) []ParticipantSummary {
	summaries := make([]ParticipantSummary, len(participants))
	for i, p := range participants {
		summaries[i] = ParticipantSummary{Participant: p}
	}

	for _, item := range items {
		// Assignees in participant order; IDs not in participants are ignored.
		var owners []int
		for i, p := range participants {
			if assignments.IsAssigned(item.ID, p.ID) {
				owners = append(owners, i)
			}
		}
		if len(owners) == 0 {
			continue
		}

		shares := SplitEven(item.TotalPrice, len(owners))
		pct := SharePercentage(len(owners))
		for k, idx := range owners {
			s := &summaries[idx]
			s.Items = append(s.Items, ItemShare{
				Item:            item,
				ShareAmount:     shares[k],
				SharePercentage: pct,
			})
			s.ItemsSubtotal = s.ItemsSubtotal.Add(shares[k])
		}
	}

	overall := Subtotal(items)
	if overall.IsPositive() {
		weights := make([]int64, len(summaries))
		assigned := decimal.Zero
		for i, s := range summaries {
			weights[i] = toCents(s.ItemsSubtotal)
			assigned = assigned.Add(s.ItemsSubtotal)
		}
		ratio := assigned.Div(overall)

		tax := allocateSurcharge(extras.TaxAmount, ratio, weights)
		service := allocateSurcharge(extras.ServiceCharge, ratio, weights)
		tip := allocateSurcharge(extras.TipAmount, ratio, weights)
		for i := range summaries {
			summaries[i].TaxShare = tax[i]
			summaries[i].ServiceShare = service[i]
			summaries[i].TipShare = tip[i]
		}
	}

	for i := range summaries {
		s := &summaries[i]
		s.TotalAmount = s.ItemsSubtotal.Add(s.TaxShare).Add(s.ServiceShare).Add(s.TipShare)
	}
	return summaries
}

// allocateSurcharge hands out the assigned fraction of amount across weights.
func allocateSurcharge(amount, ratio decimal.Decimal, weights []int64) []decimal.Decimal {
	target := toCents(Round2(amount.Mul(ratio)))
	cents := Allocate(target, weights)
	out := make([]decimal.Decimal, len(cents))
	for i, c := range cents {
		out[i] = fromCents(c)
	}
	return out
}
