package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/splitbill"
	"github.com/mmynk/splitbill/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "splitbill-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// dinner is a two-person bill: Alice has the steak, both share the wine.
func dinner(ownerID string) *models.SplitBillWithDetails {
	input := models.CreateSplitBillInput{
		Title: "Dinner",
		Items: []models.EditableBillItem{
			{ID: "i1", Name: "Steak", Quantity: 1, UnitPrice: decimal.RequireFromString("30.00"), TotalPrice: decimal.RequireFromString("30.00")},
			{ID: "i2", Name: "Wine", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("20.00"), Confidence: models.ConfidenceHigh},
		},
		Participants: []models.EditableParticipant{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob"},
		},
		Assignments: models.NewAssignments(map[models.TempID][]models.TempID{
			"i1": {"p1"},
			"i2": {"p1", "p2"},
		}),
		Extras: models.BillExtras{TaxAmount: decimal.RequireFromString("5.00")},
	}
	return splitbill.Build(input, ownerID, time.Unix(1700000000, 0))
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateSplitBill and GetSplitBillWithDetails round trip", func(t *testing.T) {
		original := dinner("user-1")
		if err := store.CreateSplitBill(ctx, original); err != nil {
			t.Fatalf("CreateSplitBill failed: %v", err)
		}

		got, err := store.GetSplitBillWithDetails(ctx, original.Bill.ID)
		if err != nil {
			t.Fatalf("GetSplitBillWithDetails failed: %v", err)
		}

		if got.Bill.Title != "Dinner" {
			t.Errorf("Expected title Dinner, got %s", got.Bill.Title)
		}
		if !got.Bill.TotalAmount.Equal(decimal.RequireFromString("55.00")) {
			t.Errorf("Expected total 55.00, got %s", got.Bill.TotalAmount)
		}
		if got.Bill.Status != models.BillStatusActive {
			t.Errorf("Expected status active, got %s", got.Bill.Status)
		}
		if len(got.Items) != 2 || got.Items[0].Name != "Steak" || got.Items[1].Name != "Wine" {
			t.Fatalf("Expected items in draft order, got %+v", got.Items)
		}
		if got.Items[1].Confidence != models.ConfidenceHigh {
			t.Errorf("Expected confidence high, got %q", got.Items[1].Confidence)
		}
		if len(got.Participants) != 2 || got.Participants[0].Name != "Alice" {
			t.Fatalf("Expected participants in draft order, got %+v", got.Participants)
		}
		if len(got.Assignments) != 3 {
			t.Fatalf("Expected 3 assignments, got %d", len(got.Assignments))
		}

		// Participant totals reconcile with the bill total.
		sum := decimal.Zero
		for _, p := range got.Participants {
			sum = sum.Add(p.TotalAmount)
		}
		if !sum.Equal(got.Bill.TotalAmount) {
			t.Errorf("Participant totals %s do not match bill total %s", sum, got.Bill.TotalAmount)
		}
		if !got.Participants[0].TotalAmount.Equal(decimal.RequireFromString("44.00")) {
			t.Errorf("Expected Alice to owe 44.00, got %s", got.Participants[0].TotalAmount)
		}
	})

	t.Run("CreateSplitBill fills missing IDs", func(t *testing.T) {
		details := &models.SplitBillWithDetails{
			Bill:         models.SplitBill{UserID: "user-1", Title: "Bare"},
			Participants: []models.BillParticipant{{Name: "Solo"}},
		}
		if err := store.CreateSplitBill(ctx, details); err != nil {
			t.Fatalf("CreateSplitBill failed: %v", err)
		}
		if details.Bill.ID == "" || details.Participants[0].ID == "" {
			t.Error("Expected IDs to be generated")
		}
		if details.Bill.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if details.Bill.Status != models.BillStatusActive {
			t.Errorf("Expected default status active, got %s", details.Bill.Status)
		}
	})

	t.Run("GetSplitBillWithDetails returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetSplitBillWithDetails(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListSplitBills filters by owner", func(t *testing.T) {
		mine := dinner("lister")
		if err := store.CreateSplitBill(ctx, mine); err != nil {
			t.Fatalf("CreateSplitBill failed: %v", err)
		}
		newer := dinner("lister")
		newer.Bill.CreatedAt++
		if err := store.CreateSplitBill(ctx, newer); err != nil {
			t.Fatalf("CreateSplitBill failed: %v", err)
		}
		if err := store.CreateSplitBill(ctx, dinner("someone-else")); err != nil {
			t.Fatalf("CreateSplitBill failed: %v", err)
		}

		bills, err := store.ListSplitBills(ctx, "lister")
		if err != nil {
			t.Fatalf("ListSplitBills failed: %v", err)
		}
		if len(bills) != 2 {
			t.Fatalf("Expected 2 bills, got %d", len(bills))
		}
		if bills[0].ID != newer.Bill.ID {
			t.Errorf("Expected newest bill first")
		}
	})
}

func TestSettlement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	status := func(t *testing.T, billID string) models.BillStatus {
		t.Helper()
		got, err := store.GetSplitBillWithDetails(ctx, billID)
		if err != nil {
			t.Fatalf("GetSplitBillWithDetails failed: %v", err)
		}
		return got.Bill.Status
	}

	t.Run("settling every participant settles the bill", func(t *testing.T) {
		bill := dinner("user-1")
		if err := store.CreateSplitBill(ctx, bill); err != nil {
			t.Fatalf("CreateSplitBill failed: %v", err)
		}

		if err := store.SettleParticipant(ctx, bill.Bill.ID, bill.Participants[0].ID); err != nil {
			t.Fatalf("SettleParticipant failed: %v", err)
		}
		if got := status(t, bill.Bill.ID); got != models.BillStatusActive {
			t.Errorf("Expected active after one payment, got %s", got)
		}

		if err := store.SettleParticipant(ctx, bill.Bill.ID, bill.Participants[1].ID); err != nil {
			t.Fatalf("SettleParticipant failed: %v", err)
		}
		if got := status(t, bill.Bill.ID); got != models.BillStatusSettled {
			t.Errorf("Expected settled, got %s", got)
		}

		got, _ := store.GetSplitBillWithDetails(ctx, bill.Bill.ID)
		if got.Participants[0].SettledAt == 0 {
			t.Error("Expected SettledAt to be set")
		}

		if err := store.UnsettleParticipant(ctx, bill.Bill.ID, bill.Participants[1].ID); err != nil {
			t.Fatalf("UnsettleParticipant failed: %v", err)
		}
		if got := status(t, bill.Bill.ID); got != models.BillStatusActive {
			t.Errorf("Expected active after unsettle, got %s", got)
		}
	})

	t.Run("participant from another bill is not found", func(t *testing.T) {
		a, b := dinner("user-1"), dinner("user-1")
		store.CreateSplitBill(ctx, a)
		store.CreateSplitBill(ctx, b)

		err := store.SettleParticipant(ctx, a.Bill.ID, b.Participants[0].ID)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SettleSplitBill marks everyone paid", func(t *testing.T) {
		bill := dinner("user-1")
		store.CreateSplitBill(ctx, bill)

		if err := store.SettleSplitBill(ctx, bill.Bill.ID); err != nil {
			t.Fatalf("SettleSplitBill failed: %v", err)
		}
		got, _ := store.GetSplitBillWithDetails(ctx, bill.Bill.ID)
		if got.Bill.Status != models.BillStatusSettled {
			t.Errorf("Expected settled, got %s", got.Bill.Status)
		}
		if !got.AllSettled() {
			t.Error("Expected every participant settled")
		}
	})

	t.Run("archived bills stay archived", func(t *testing.T) {
		bill := dinner("user-1")
		store.CreateSplitBill(ctx, bill)

		if err := store.ArchiveSplitBill(ctx, bill.Bill.ID); err != nil {
			t.Fatalf("ArchiveSplitBill failed: %v", err)
		}
		if err := store.SettleSplitBill(ctx, bill.Bill.ID); err != nil {
			t.Fatalf("SettleSplitBill failed: %v", err)
		}
		if got := status(t, bill.Bill.ID); got != models.BillStatusArchived {
			t.Errorf("Expected archived, got %s", got)
		}
	})

	t.Run("SettleSplitBill on a missing bill", func(t *testing.T) {
		if err := store.SettleSplitBill(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteSplitBill cascades", func(t *testing.T) {
		bill := dinner("user-1")
		store.CreateSplitBill(ctx, bill)

		if err := store.DeleteSplitBill(ctx, bill.Bill.ID); err != nil {
			t.Fatalf("DeleteSplitBill failed: %v", err)
		}
		if _, err := store.GetSplitBillWithDetails(ctx, bill.Bill.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}

		var n int
		store.db.QueryRow("SELECT COUNT(*) FROM bill_participants WHERE split_bill_id = ?", bill.Bill.ID).Scan(&n)
		if n != 0 {
			t.Errorf("Expected participants to be deleted, got %d", n)
		}

		if err := store.DeleteSplitBill(ctx, bill.Bill.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}
