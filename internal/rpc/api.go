package rpc

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
)

// ServiceName is the fully-qualified split-bill service name.
const ServiceName = "splitbill.v1.SplitBillService"

// Procedure paths, relative to the server root.
const (
	CalculateSplitProcedure      = "/" + ServiceName + "/CalculateSplit"
	ScanReceiptProcedure         = "/" + ServiceName + "/ScanReceipt"
	CreateSplitBillProcedure     = "/" + ServiceName + "/CreateSplitBill"
	GetSplitBillProcedure        = "/" + ServiceName + "/GetSplitBill"
	ListSplitBillsProcedure      = "/" + ServiceName + "/ListSplitBills"
	SettleParticipantProcedure   = "/" + ServiceName + "/SettleParticipant"
	UnsettleParticipantProcedure = "/" + ServiceName + "/UnsettleParticipant"
	SettleSplitBillProcedure     = "/" + ServiceName + "/SettleSplitBill"
	ArchiveSplitBillProcedure    = "/" + ServiceName + "/ArchiveSplitBill"
	DeleteSplitBillProcedure     = "/" + ServiceName + "/DeleteSplitBill"
)

// CalculateSplitRequest is a draft to preview. Unassigned items are allowed.
type CalculateSplitRequest struct {
	Items        []models.EditableBillItem    `json:"items"`
	Participants []models.EditableParticipant `json:"participants"`
	Assignments  models.Assignments           `json:"assignments"`
	Extras       models.BillExtras            `json:"extras"`
}

// ParticipantShare is one row of a split preview.
type ParticipantShare struct {
	ParticipantID models.TempID   `json:"participant_id"`
	Name          string          `json:"name"`
	ItemsSubtotal decimal.Decimal `json:"items_subtotal"`
	TaxShare      decimal.Decimal `json:"tax_share"`
	ServiceShare  decimal.Decimal `json:"service_share"`
	TipShare      decimal.Decimal `json:"tip_share"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type CalculateSplitResponse struct {
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Total        decimal.Decimal    `json:"total"`
	Participants []ParticipantShare `json:"participants"`
}

// ScanReceiptRequest carries the raw image; JSON encodes it as base64.
type ScanReceiptRequest struct {
	Image       []byte `json:"image"`
	ContentType string `json:"content_type"`
}

type ScanReceiptResponse struct {
	Result models.ScanResult `json:"result"`
}

type CreateSplitBillRequest struct {
	Input models.CreateSplitBillInput `json:"input"`
}

type ListSplitBillsRequest struct{}

type ListSplitBillsResponse struct {
	Bills []*models.SplitBill `json:"bills"`
}

type SettleParticipantRequest struct {
	BillID        string `json:"bill_id"`
	ParticipantID string `json:"participant_id"`
}

// BillRequest addresses a whole bill.
type BillRequest struct {
	BillID string `json:"bill_id"`
}

// SplitBillResponse returns the bill as stored after the call.
type SplitBillResponse struct {
	Bill *models.SplitBillWithDetails `json:"bill"`
}

type DeleteSplitBillResponse struct{}
