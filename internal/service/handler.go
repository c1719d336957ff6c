package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/rpc"
)

// NewSplitBillServiceHandler mounts every procedure of svc. It returns the
// path prefix to register on a mux along with the handler. The JSON codec is
// always installed.
func NewSplitBillServiceHandler(svc *SplitBillService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpc.WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(rpc.CalculateSplitProcedure, connect.NewUnaryHandler(rpc.CalculateSplitProcedure, svc.CalculateSplit, opts...))
	mux.Handle(rpc.ScanReceiptProcedure, connect.NewUnaryHandler(rpc.ScanReceiptProcedure, svc.ScanReceipt, opts...))
	mux.Handle(rpc.CreateSplitBillProcedure, connect.NewUnaryHandler(rpc.CreateSplitBillProcedure, svc.CreateSplitBill, opts...))
	mux.Handle(rpc.GetSplitBillProcedure, connect.NewUnaryHandler(rpc.GetSplitBillProcedure, svc.GetSplitBill, opts...))
	mux.Handle(rpc.ListSplitBillsProcedure, connect.NewUnaryHandler(rpc.ListSplitBillsProcedure, svc.ListSplitBills, opts...))
	mux.Handle(rpc.SettleParticipantProcedure, connect.NewUnaryHandler(rpc.SettleParticipantProcedure, svc.SettleParticipant, opts...))
	mux.Handle(rpc.UnsettleParticipantProcedure, connect.NewUnaryHandler(rpc.UnsettleParticipantProcedure, svc.UnsettleParticipant, opts...))
	mux.Handle(rpc.SettleSplitBillProcedure, connect.NewUnaryHandler(rpc.SettleSplitBillProcedure, svc.SettleSplitBill, opts...))
	mux.Handle(rpc.ArchiveSplitBillProcedure, connect.NewUnaryHandler(rpc.ArchiveSplitBillProcedure, svc.ArchiveSplitBill, opts...))
	mux.Handle(rpc.DeleteSplitBillProcedure, connect.NewUnaryHandler(rpc.DeleteSplitBillProcedure, svc.DeleteSplitBill, opts...))

	return "/" + rpc.ServiceName + "/", mux
}

// PublicProcedures are the procedures callable without a token.
var PublicProcedures = []string{rpc.CalculateSplitProcedure}
