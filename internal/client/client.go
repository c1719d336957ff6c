// Package client is the Connect client for the split-bill API. It satisfies
// the wizard's save and scan boundaries and the bill view's settlement calls.
package client

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/billview"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/rpc"
	"github.com/mmynk/splitbill/internal/wizard"
)

var (
	_ wizard.Creator   = (*Client)(nil)
	_ wizard.Scanner   = (*Client)(nil)
	_ billview.Settler = (*Client)(nil)
)

// Client calls a split-bill server on behalf of one user.
type Client struct {
	calculate  *connect.Client[rpc.CalculateSplitRequest, rpc.CalculateSplitResponse]
	scan       *connect.Client[rpc.ScanReceiptRequest, rpc.ScanReceiptResponse]
	create     *connect.Client[rpc.CreateSplitBillRequest, rpc.SplitBillResponse]
	get        *connect.Client[rpc.BillRequest, rpc.SplitBillResponse]
	list       *connect.Client[rpc.ListSplitBillsRequest, rpc.ListSplitBillsResponse]
	settle     *connect.Client[rpc.SettleParticipantRequest, rpc.SplitBillResponse]
	unsettle   *connect.Client[rpc.SettleParticipantRequest, rpc.SplitBillResponse]
	settleAll  *connect.Client[rpc.BillRequest, rpc.SplitBillResponse]
	archive    *connect.Client[rpc.BillRequest, rpc.SplitBillResponse]
	deleteBill *connect.Client[rpc.BillRequest, rpc.DeleteSplitBillResponse]
}

// New creates a client for the server at baseURL. A non-empty token is sent
// as a bearer token on every call.
func New(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{rpc.WithJSON()}, opts...)
	if token != "" {
		opts = append(opts, connect.WithInterceptors(bearer(token)))
	}

	return &Client{
		calculate:  connect.NewClient[rpc.CalculateSplitRequest, rpc.CalculateSplitResponse](httpClient, baseURL+rpc.CalculateSplitProcedure, opts...),
		scan:       connect.NewClient[rpc.ScanReceiptRequest, rpc.ScanReceiptResponse](httpClient, baseURL+rpc.ScanReceiptProcedure, opts...),
		create:     connect.NewClient[rpc.CreateSplitBillRequest, rpc.SplitBillResponse](httpClient, baseURL+rpc.CreateSplitBillProcedure, opts...),
		get:        connect.NewClient[rpc.BillRequest, rpc.SplitBillResponse](httpClient, baseURL+rpc.GetSplitBillProcedure, opts...),
		list:       connect.NewClient[rpc.ListSplitBillsRequest, rpc.ListSplitBillsResponse](httpClient, baseURL+rpc.ListSplitBillsProcedure, opts...),
		settle:     connect.NewClient[rpc.SettleParticipantRequest, rpc.SplitBillResponse](httpClient, baseURL+rpc.SettleParticipantProcedure, opts...),
		unsettle:   connect.NewClient[rpc.SettleParticipantRequest, rpc.SplitBillResponse](httpClient, baseURL+rpc.UnsettleParticipantProcedure, opts...),
		settleAll:  connect.NewClient[rpc.BillRequest, rpc.SplitBillResponse](httpClient, baseURL+rpc.SettleSplitBillProcedure, opts...),
		archive:    connect.NewClient[rpc.BillRequest, rpc.SplitBillResponse](httpClient, baseURL+rpc.ArchiveSplitBillProcedure, opts...),
		deleteBill: connect.NewClient[rpc.BillRequest, rpc.DeleteSplitBillResponse](httpClient, baseURL+rpc.DeleteSplitBillProcedure, opts...),
	}
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}
}

// CalculateSplit previews a draft on the server.
func (c *Client) CalculateSplit(ctx context.Context, req *rpc.CalculateSplitRequest) (*rpc.CalculateSplitResponse, error) {
	resp, err := c.calculate.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ScanReceipt uploads a receipt image and returns the extraction result.
func (c *Client) ScanReceipt(ctx context.Context, image []byte, contentType string) (*models.ScanResult, error) {
	resp, err := c.scan.CallUnary(ctx, connect.NewRequest(&rpc.ScanReceiptRequest{
		Image:       image,
		ContentType: contentType,
	}))
	if err != nil {
		return nil, err
	}
	return &resp.Msg.Result, nil
}

// CreateSplitBill saves a finished draft and returns the stored bill header.
func (c *Client) CreateSplitBill(ctx context.Context, input models.CreateSplitBillInput) (*models.SplitBill, error) {
	resp, err := c.create.CallUnary(ctx, connect.NewRequest(&rpc.CreateSplitBillRequest{Input: input}))
	if err != nil {
		return nil, err
	}
	return &resp.Msg.Bill.Bill, nil
}

// GetSplitBill loads a bill with its items, participants and assignments.
func (c *Client) GetSplitBill(ctx context.Context, billID string) (*models.SplitBillWithDetails, error) {
	return details(c.get.CallUnary(ctx, connect.NewRequest(&rpc.BillRequest{BillID: billID})))
}

// ListSplitBills returns the user's bills, newest first.
func (c *Client) ListSplitBills(ctx context.Context) ([]*models.SplitBill, error) {
	resp, err := c.list.CallUnary(ctx, connect.NewRequest(&rpc.ListSplitBillsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Bills, nil
}

func (c *Client) SettleParticipant(ctx context.Context, billID, participantID string) (*models.SplitBillWithDetails, error) {
	return details(c.settle.CallUnary(ctx, connect.NewRequest(&rpc.SettleParticipantRequest{
		BillID:        billID,
		ParticipantID: participantID,
	})))
}

func (c *Client) UnsettleParticipant(ctx context.Context, billID, participantID string) (*models.SplitBillWithDetails, error) {
	return details(c.unsettle.CallUnary(ctx, connect.NewRequest(&rpc.SettleParticipantRequest{
		BillID:        billID,
		ParticipantID: participantID,
	})))
}

func (c *Client) SettleSplitBill(ctx context.Context, billID string) (*models.SplitBillWithDetails, error) {
	return details(c.settleAll.CallUnary(ctx, connect.NewRequest(&rpc.BillRequest{BillID: billID})))
}

func (c *Client) ArchiveSplitBill(ctx context.Context, billID string) (*models.SplitBillWithDetails, error) {
	return details(c.archive.CallUnary(ctx, connect.NewRequest(&rpc.BillRequest{BillID: billID})))
}

func (c *Client) DeleteSplitBill(ctx context.Context, billID string) error {
	_, err := c.deleteBill.CallUnary(ctx, connect.NewRequest(&rpc.BillRequest{BillID: billID}))
	return err
}

func details(resp *connect.Response[rpc.SplitBillResponse], err error) (*models.SplitBillWithDetails, error) {
	if err != nil {
		return nil, err
	}
	return resp.Msg.Bill, nil
}
