package models

import "github.com/shopspring/decimal"

// ExtractedItem is one line item read from a receipt.
type ExtractedItem struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Confidence Confidence      `json:"confidence"`
}

// ExtractedReceipt is the structured content of a scanned receipt.
type ExtractedReceipt struct {
	Title         string          `json:"title"`
	Items         []ExtractedItem `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	TipAmount     decimal.Decimal `json:"tipAmount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Confidence    Confidence      `json:"confidence"`
}

// ExtractionResult is the response of the receipt extraction service.
// Data is set only when Success is true.
type ExtractionResult struct {
	Success bool              `json:"success"`
	Data    *ExtractedReceipt `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ScanResult pairs an extraction result with the stored receipt image.
type ScanResult struct {
	ImageURL   string           `json:"image_url"`
	Extraction ExtractionResult `json:"extraction"`
}
