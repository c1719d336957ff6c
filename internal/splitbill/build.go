package splitbill

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
)

// Build maps a validated draft onto the persisted aggregate. Temporary IDs
// are replaced with fresh UUIDs and the calculated shares are frozen into
// participant and assignment rows.
func Build(input models.CreateSplitBillInput, ownerID string, now time.Time) *models.SplitBillWithDetails {
	summaries := calculator.CalculateParticipantSummaries(input.Items, input.Participants, input.Assignments, input.Extras)

	subtotal := calculator.Subtotal(input.Items)
	bill := models.SplitBill{
		ID:              uuid.NewString(),
		UserID:          ownerID,
		Title:           strings.TrimSpace(input.Title),
		ReceiptImageURL: input.ReceiptImageURL,
		Subtotal:        subtotal,
		TaxAmount:       input.Extras.TaxAmount,
		ServiceCharge:   input.Extras.ServiceCharge,
		TipAmount:       input.Extras.TipAmount,
		TotalAmount:     subtotal.Add(input.Extras.Sum()),
		Status:          models.BillStatusActive,
		CreatedAt:       now.Unix(),
		UpdatedAt:       now.Unix(),
	}

	details := &models.SplitBillWithDetails{
		Bill:         bill,
		Items:        make([]models.BillItem, len(input.Items)),
		Participants: make([]models.BillParticipant, len(summaries)),
	}

	itemIDs := make(map[models.TempID]string, len(input.Items))
	for i, item := range input.Items {
		id := uuid.NewString()
		itemIDs[item.ID] = id
		details.Items[i] = models.BillItem{
			ID:          id,
			SplitBillID: bill.ID,
			Name:        strings.TrimSpace(item.Name),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			Confidence:  item.Confidence,
			Position:    i,
		}
	}

	for i, s := range summaries {
		participantID := uuid.NewString()
		details.Participants[i] = models.BillParticipant{
			ID:           participantID,
			SplitBillID:  bill.ID,
			Name:         s.Participant.Name,
			Subtotal:     s.ItemsSubtotal,
			TaxShare:     s.TaxShare,
			ServiceShare: s.ServiceShare,
			TipShare:     s.TipShare,
			TotalAmount:  s.TotalAmount,
			Position:     i,
		}
		for _, share := range s.Items {
			details.Assignments = append(details.Assignments, models.BillItemAssignment{
				ID:              uuid.NewString(),
				ItemID:          itemIDs[share.Item.ID],
				ParticipantID:   participantID,
				SharePercentage: share.SharePercentage,
				ShareAmount:     share.ShareAmount,
			})
		}
	}
	return details
}
