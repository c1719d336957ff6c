package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/middleware"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/receipt"
	"github.com/mmynk/splitbill/internal/rpc"
	"github.com/mmynk/splitbill/internal/splitbill"
	"github.com/mmynk/splitbill/internal/storage"
	"github.com/mmynk/splitbill/internal/storage/filestore"
)

// SplitBillService implements the split-bill Connect API.
type SplitBillService struct {
	repo      *splitbill.Repository
	store     storage.Store
	images    storage.ImageStore
	extractor receipt.Extractor
}

// NewSplitBillService creates a SplitBillService over the given backends.
func NewSplitBillService(store storage.Store, images storage.ImageStore, extractor receipt.Extractor) *SplitBillService {
	return &SplitBillService{
		repo:      splitbill.NewRepository(store),
		store:     store,
		images:    images,
		extractor: extractor,
	}
}

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return userID, nil
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, splitbill.ErrInvalidInput), errors.Is(err, filestore.ErrUnsupportedImage):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// ownedBill loads a bill and checks that userID owns it.
func (s *SplitBillService) ownedBill(ctx context.Context, userID, billID string) (*models.SplitBillWithDetails, error) {
	if billID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("bill_id is required"))
	}
	details, err := s.store.GetSplitBillWithDetails(ctx, billID)
	if err != nil {
		slog.Error("Failed to get split bill", "bill_id", billID, "error", err)
		return nil, toConnectError(err)
	}
	if details.Bill.UserID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you do not own this bill"))
	}
	return details, nil
}

// CalculateSplit previews a draft split. No authentication needed.
func (s *SplitBillService) CalculateSplit(ctx context.Context, req *connect.Request[rpc.CalculateSplitRequest]) (*connect.Response[rpc.CalculateSplitResponse], error) {
	input := models.CreateSplitBillInput{
		Items:        req.Msg.Items,
		Participants: req.Msg.Participants,
		Assignments:  req.Msg.Assignments,
		Extras:       req.Msg.Extras,
	}
	summaries, err := splitbill.Preview(input)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &rpc.CalculateSplitResponse{
		Subtotal:     calculator.Subtotal(input.Items),
		Total:        calculator.Total(input.Items, input.Extras),
		Participants: make([]rpc.ParticipantShare, len(summaries)),
	}
	for i, sum := range summaries {
		resp.Participants[i] = rpc.ParticipantShare{
			ParticipantID: sum.Participant.ID,
			Name:          sum.Participant.Name,
			ItemsSubtotal: sum.ItemsSubtotal,
			TaxShare:      sum.TaxShare,
			ServiceShare:  sum.ServiceShare,
			TipShare:      sum.TipShare,
			TotalAmount:   sum.TotalAmount,
		}
	}
	return connect.NewResponse(resp), nil
}

// ScanReceipt stores the uploaded image and runs extraction on it. An
// extraction failure is reported in the result, not as an RPC error, so the
// client can fall back to manual entry.
func (s *SplitBillService) ScanReceipt(ctx context.Context, req *connect.Request[rpc.ScanReceiptRequest]) (*connect.Response[rpc.ScanReceiptResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.SaveReceiptImage(ctx, req.Msg.Image, req.Msg.ContentType)
	if err != nil {
		slog.Error("Failed to save receipt image", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	result := models.ScanResult{ImageURL: imageURL}
	extraction, err := s.extractor.Extract(ctx, imageURL)
	if err != nil {
		slog.Warn("Receipt extraction failed", "user_id", userID, "image_url", imageURL, "error", err)
		result.Extraction = models.ExtractionResult{Error: "receipt could not be read"}
	} else {
		result.Extraction = *extraction
	}

	return connect.NewResponse(&rpc.ScanReceiptResponse{Result: result}), nil
}

// CreateSplitBill validates and stores a finished draft for the caller.
func (s *SplitBillService) CreateSplitBill(ctx context.Context, req *connect.Request[rpc.CreateSplitBillRequest]) (*connect.Response[rpc.SplitBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.Create(ctx, userID, req.Msg.Input)
	if err != nil {
		slog.Error("CreateSplitBill failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&rpc.SplitBillResponse{Bill: details}), nil
}

// GetSplitBill returns one of the caller's bills with all its rows.
func (s *SplitBillService) GetSplitBill(ctx context.Context, req *connect.Request[rpc.BillRequest]) (*connect.Response[rpc.SplitBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	details, err := s.ownedBill(ctx, userID, req.Msg.BillID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.SplitBillResponse{Bill: details}), nil
}

// ListSplitBills returns the caller's bills, newest first.
func (s *SplitBillService) ListSplitBills(ctx context.Context, req *connect.Request[rpc.ListSplitBillsRequest]) (*connect.Response[rpc.ListSplitBillsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	bills, err := s.store.ListSplitBills(ctx, userID)
	if err != nil {
		slog.Error("ListSplitBills failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	if bills == nil {
		bills = []*models.SplitBill{}
	}
	return connect.NewResponse(&rpc.ListSplitBillsResponse{Bills: bills}), nil
}

// SettleParticipant marks a participant as paid.
func (s *SplitBillService) SettleParticipant(ctx context.Context, req *connect.Request[rpc.SettleParticipantRequest]) (*connect.Response[rpc.SplitBillResponse], error) {
	return s.mutate(ctx, req.Msg.BillID, "SettleParticipant", func(ctx context.Context) error {
		return s.store.SettleParticipant(ctx, req.Msg.BillID, req.Msg.ParticipantID)
	})
}

// UnsettleParticipant marks a participant as unpaid.
func (s *SplitBillService) UnsettleParticipant(ctx context.Context, req *connect.Request[rpc.SettleParticipantRequest]) (*connect.Response[rpc.SplitBillResponse], error) {
	return s.mutate(ctx, req.Msg.BillID, "UnsettleParticipant", func(ctx context.Context) error {
		return s.store.UnsettleParticipant(ctx, req.Msg.BillID, req.Msg.ParticipantID)
	})
}

// SettleSplitBill marks every participant as paid.
func (s *SplitBillService) SettleSplitBill(ctx context.Context, req *connect.Request[rpc.BillRequest]) (*connect.Response[rpc.SplitBillResponse], error) {
	return s.mutate(ctx, req.Msg.BillID, "SettleSplitBill", func(ctx context.Context) error {
		return s.store.SettleSplitBill(ctx, req.Msg.BillID)
	})
}

// ArchiveSplitBill archives a bill.
func (s *SplitBillService) ArchiveSplitBill(ctx context.Context, req *connect.Request[rpc.BillRequest]) (*connect.Response[rpc.SplitBillResponse], error) {
	return s.mutate(ctx, req.Msg.BillID, "ArchiveSplitBill", func(ctx context.Context) error {
		return s.store.ArchiveSplitBill(ctx, req.Msg.BillID)
	})
}

// mutate runs op on an owned bill and returns the bill as stored afterwards.
func (s *SplitBillService) mutate(ctx context.Context, billID, name string, op func(context.Context) error) (*connect.Response[rpc.SplitBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBill(ctx, userID, billID); err != nil {
		return nil, err
	}

	if err := op(ctx); err != nil {
		slog.Error(name+" failed", "bill_id", billID, "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	details, err := s.store.GetSplitBillWithDetails(ctx, billID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Split bill updated", "op", name, "bill_id", billID, "status", details.Bill.Status)
	return connect.NewResponse(&rpc.SplitBillResponse{Bill: details}), nil
}

// DeleteSplitBill removes one of the caller's bills.
func (s *SplitBillService) DeleteSplitBill(ctx context.Context, req *connect.Request[rpc.BillRequest]) (*connect.Response[rpc.DeleteSplitBillResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedBill(ctx, userID, req.Msg.BillID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteSplitBill(ctx, req.Msg.BillID); err != nil {
		slog.Error("DeleteSplitBill failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}
	slog.Info("Split bill deleted", "bill_id", req.Msg.BillID, "user_id", userID)
	return connect.NewResponse(&rpc.DeleteSplitBillResponse{}), nil
}
