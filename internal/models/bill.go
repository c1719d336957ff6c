package models

import "github.com/shopspring/decimal"

// BillStatus is the lifecycle state of a saved split bill.
type BillStatus string

const (
	BillStatusActive   BillStatus = "active"
	BillStatusSettled  BillStatus = "settled"
	BillStatusArchived BillStatus = "archived"
)

// Valid reports whether s is a known status.
func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusActive, BillStatusSettled, BillStatusArchived:
		return true
	}
	return false
}

// SplitBill is the persisted bill header.
type SplitBill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	// UserID is the owner of the bill, taken from the caller's token.
	UserID string `json:"user_id"`

	Title string `json:"title"`

	// ReceiptImageURL points at the uploaded receipt, if any.
	ReceiptImageURL string `json:"receipt_image_url,omitempty"`

	// Subtotal is the sum of all item total prices.
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	TipAmount     decimal.Decimal `json:"tip_amount"`

	// TotalAmount is Subtotal + TaxAmount + ServiceCharge + TipAmount.
	TotalAmount decimal.Decimal `json:"total_amount"`

	Status BillStatus `json:"status"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// BillItem is a persisted line item. Items are immutable once saved.
type BillItem struct {
	ID          string          `json:"id"`
	SplitBillID string          `json:"split_bill_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Confidence  Confidence      `json:"confidence,omitempty"`

	// Position keeps the draft order.
	Position int `json:"position"`
}

// BillParticipant is a persisted participant with the amounts computed at
// save time. Only the settlement fields change afterwards.
type BillParticipant struct {
	ID           string          `json:"id"`
	SplitBillID  string          `json:"split_bill_id"`
	Name         string          `json:"name"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TaxShare     decimal.Decimal `json:"tax_share"`
	ServiceShare decimal.Decimal `json:"service_share"`
	TipShare     decimal.Decimal `json:"tip_share"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	IsSettled    bool            `json:"is_settled"`
	SettledAt    int64           `json:"settled_at,omitempty"`
	Position     int             `json:"position"`
}

// BillItemAssignment links one item to one participant with that
// participant's share of the item.
type BillItemAssignment struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"item_id"`
	ParticipantID   string          `json:"participant_id"`
	SharePercentage decimal.Decimal `json:"share_percentage"`
	ShareAmount     decimal.Decimal `json:"share_amount"`
}

// SplitBillWithDetails is the full persisted aggregate.
type SplitBillWithDetails struct {
	Bill         SplitBill            `json:"bill"`
	Participants []BillParticipant    `json:"participants"`
	Items        []BillItem           `json:"items"`
	Assignments  []BillItemAssignment `json:"assignments"`
}

// AllSettled reports whether every participant is settled. A bill without
// participants is never considered settled.
func (d *SplitBillWithDetails) AllSettled() bool {
	if len(d.Participants) == 0 {
		return false
	}
	for _, p := range d.Participants {
		if !p.IsSettled {
			return false
		}
	}
	return true
}

// Participant returns the participant with the given ID.
func (d *SplitBillWithDetails) Participant(id string) (*BillParticipant, bool) {
	for i := range d.Participants {
		if d.Participants[i].ID == id {
			return &d.Participants[i], true
		}
	}
	return nil, false
}
