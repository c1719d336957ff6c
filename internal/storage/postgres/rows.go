package postgres

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
)

type billRow struct {
	ID              string          `gorm:"type:uuid;primaryKey"`
	UserID          string          `gorm:"not null;index"`
	Title           string          `gorm:"not null;size:255"`
	ReceiptImageURL string          `gorm:"not null;default:''"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ServiceCharge   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TipAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status          string          `gorm:"not null;size:20;default:active"`
	CreatedAt       int64           `gorm:"autoCreateTime:false;not null"`
	UpdatedAt       int64           `gorm:"autoUpdateTime:false;not null"`

	Items        []itemRow        `gorm:"foreignKey:SplitBillID;constraint:OnDelete:CASCADE"`
	Participants []participantRow `gorm:"foreignKey:SplitBillID;constraint:OnDelete:CASCADE"`
}

func (billRow) TableName() string { return "split_bills" }

type itemRow struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	SplitBillID string          `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"not null;size:255"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Confidence  string          `gorm:"not null;size:10;default:''"`
	Position    int             `gorm:"not null"`

	Assignments []assignmentRow `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (itemRow) TableName() string { return "bill_items" }

type participantRow struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	SplitBillID  string          `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"not null;size:255"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxShare     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	ServiceShare decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TipShare     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsSettled    bool            `gorm:"not null;default:false"`
	SettledAt    int64           `gorm:"not null;default:0"`
	Position     int             `gorm:"not null"`

	Assignments []assignmentRow `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE"`
}

func (participantRow) TableName() string { return "bill_participants" }

type assignmentRow struct {
	ID              string          `gorm:"type:uuid;primaryKey"`
	ItemID          string          `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_pair"`
	ParticipantID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_pair;index"`
	SharePercentage decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	ShareAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

func (assignmentRow) TableName() string { return "bill_item_assignments" }

func toBillRow(d *models.SplitBillWithDetails) *billRow {
	b := d.Bill
	row := &billRow{
		ID:              b.ID,
		UserID:          b.UserID,
		Title:           b.Title,
		ReceiptImageURL: b.ReceiptImageURL,
		Subtotal:        b.Subtotal,
		TaxAmount:       b.TaxAmount,
		ServiceCharge:   b.ServiceCharge,
		TipAmount:       b.TipAmount,
		TotalAmount:     b.TotalAmount,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	for _, it := range d.Items {
		row.Items = append(row.Items, itemRow{
			ID:          it.ID,
			SplitBillID: b.ID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			Confidence:  string(it.Confidence),
			Position:    it.Position,
		})
	}
	for _, p := range d.Participants {
		row.Participants = append(row.Participants, participantRow{
			ID:           p.ID,
			SplitBillID:  b.ID,
			Name:         p.Name,
			Subtotal:     p.Subtotal,
			TaxShare:     p.TaxShare,
			ServiceShare: p.ServiceShare,
			TipShare:     p.TipShare,
			TotalAmount:  p.TotalAmount,
			IsSettled:    p.IsSettled,
			SettledAt:    p.SettledAt,
			Position:     p.Position,
		})
	}
	return row
}

func (r *billRow) bill() models.SplitBill {
	return models.SplitBill{
		ID:              r.ID,
		UserID:          r.UserID,
		Title:           r.Title,
		ReceiptImageURL: r.ReceiptImageURL,
		Subtotal:        r.Subtotal,
		TaxAmount:       r.TaxAmount,
		ServiceCharge:   r.ServiceCharge,
		TipAmount:       r.TipAmount,
		TotalAmount:     r.TotalAmount,
		Status:          models.BillStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *billRow) details(assignments []assignmentRow) *models.SplitBillWithDetails {
	d := &models.SplitBillWithDetails{Bill: r.bill()}
	for _, it := range r.Items {
		d.Items = append(d.Items, models.BillItem{
			ID:          it.ID,
			SplitBillID: it.SplitBillID,
			Name:        it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
			Confidence:  models.Confidence(it.Confidence),
			Position:    it.Position,
		})
	}
	for _, p := range r.Participants {
		d.Participants = append(d.Participants, p.participant())
	}
	for _, a := range assignments {
		d.Assignments = append(d.Assignments, models.BillItemAssignment{
			ID:              a.ID,
			ItemID:          a.ItemID,
			ParticipantID:   a.ParticipantID,
			SharePercentage: a.SharePercentage,
			ShareAmount:     a.ShareAmount,
		})
	}
	return d
}

func (p participantRow) participant() models.BillParticipant {
	return models.BillParticipant{
		ID:           p.ID,
		SplitBillID:  p.SplitBillID,
		Name:         p.Name,
		Subtotal:     p.Subtotal,
		TaxShare:     p.TaxShare,
		ServiceShare: p.ServiceShare,
		TipShare:     p.TipShare,
		TotalAmount:  p.TotalAmount,
		IsSettled:    p.IsSettled,
		SettledAt:    p.SettledAt,
		Position:     p.Position,
	}
}

func toAssignmentRows(in []models.BillItemAssignment) []assignmentRow {
	out := make([]assignmentRow, len(in))
	for i, a := range in {
		out[i] = assignmentRow{
			ID:              a.ID,
			ItemID:          a.ItemID,
			ParticipantID:   a.ParticipantID,
			SharePercentage: a.SharePercentage,
			ShareAmount:     a.ShareAmount,
		}
	}
	return out
}
