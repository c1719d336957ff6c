package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
)

// Progress summarises how much of a saved bill has been collected.
type Progress struct {
	Total       decimal.Decimal // Sum of participant totals
	Collected   decimal.Decimal // Owed by settled participants
	Outstanding decimal.Decimal // Owed by everyone else

	SettledCount     int
	ParticipantCount int
}

// AllSettled reports whether every participant has paid.
func (p Progress) AllSettled() bool {
	return p.ParticipantCount > 0 && p.SettledCount == p.ParticipantCount
}

// SettlementProgress reads the persisted participant totals; it never
// recalculates shares.
func SettlementProgress(participants []models.BillParticipant) Progress {
	var p Progress
	p.ParticipantCount = len(participants)
	for _, bp := range participants {
		p.Total = p.Total.Add(bp.TotalAmount)
		if bp.IsSettled {
			p.SettledCount++
			p.Collected = p.Collected.Add(bp.TotalAmount)
		} else {
			p.Outstanding = p.Outstanding.Add(bp.TotalAmount)
		}
	}
	return p
}

// DeriveStatus returns the bill status implied by the participants'
// settlement flags:
//   - archived bills stay archived
//   - all participants settled => settled
//   - otherwise => active
func DeriveStatus(current models.BillStatus, participants []models.BillParticipant) models.BillStatus {
	if current == models.BillStatusArchived {
		return current
	}
	if SettlementProgress(participants).AllSettled() {
		return models.BillStatusSettled
	}
	return models.BillStatusActive
}
