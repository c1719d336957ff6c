package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TempID identifies a draft entity before it is saved.
type TempID string

// Confidence is the quality signal attached to an AI-extracted line item.
// The empty value means the item was entered manually.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// EditableBillItem is a line item inside the wizard.
type EditableBillItem struct {
	ID         TempID          `json:"id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Confidence Confidence      `json:"confidence,omitempty"`

	// Edited marks an item the user has touched. Display only.
	Edited bool `json:"edited,omitempty"`
}

// IsValid reports whether the item has a name and a positive total.
func (i EditableBillItem) IsValid() bool {
	return strings.TrimSpace(i.Name) != "" && i.TotalPrice.IsPositive()
}

// ItemPatch carries the fields to merge into an EditableBillItem.
// Nil fields are left untouched.
type ItemPatch struct {
	Name       *string
	Quantity   *int
	UnitPrice  *decimal.Decimal
	TotalPrice *decimal.Decimal
}

// EditableParticipant is a participant inside the wizard.
type EditableParticipant struct {
	ID   TempID `json:"id"`
	Name string `json:"name"`
}

// BillExtras holds the bill-level surcharges as absolute amounts.
type BillExtras struct {
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	TipAmount     decimal.Decimal `json:"tip_amount"`
}

// Sum returns tax + service charge + tip.
func (e BillExtras) Sum() decimal.Decimal {
	return e.TaxAmount.Add(e.ServiceCharge).Add(e.TipAmount)
}

// ExtrasPatch carries the surcharge fields to merge into BillExtras.
type ExtrasPatch struct {
	TaxAmount     *decimal.Decimal
	ServiceCharge *decimal.Decimal
	TipAmount     *decimal.Decimal
}

// CreateSplitBillInput is everything needed to persist a finished draft.
type CreateSplitBillInput struct {
	Title           string                `json:"title"`
	Items           []EditableBillItem    `json:"items"`
	Participants    []EditableParticipant `json:"participants"`
	Assignments     Assignments           `json:"assignments"`
	Extras          BillExtras            `json:"extras"`
	ReceiptImageURL string                `json:"receipt_image_url,omitempty"`
}
