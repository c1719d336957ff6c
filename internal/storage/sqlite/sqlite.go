// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSplitBill persists a split bill and all of its rows in one transaction.
func (s *SQLiteStore) CreateSplitBill(ctx context.Context, details *models.SplitBillWithDetails) error {
	bill := &details.Bill
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	if bill.CreatedAt == 0 {
		bill.CreatedAt = time.Now().Unix()
	}
	if bill.UpdatedAt == 0 {
		bill.UpdatedAt = bill.CreatedAt
	}
	if bill.Status == "" {
		bill.Status = models.BillStatusActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO split_bills (id, user_id, title, receipt_image_url, subtotal, tax_amount,
		 service_charge, tip_amount, total_amount, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.UserID, bill.Title, bill.ReceiptImageURL, money(bill.Subtotal), money(bill.TaxAmount),
		money(bill.ServiceCharge), money(bill.TipAmount), money(bill.TotalAmount), string(bill.Status),
		bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split bill: %w", err)
	}

	for i := range details.Items {
		item := &details.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.SplitBillID = bill.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bill_items (id, split_bill_id, name, quantity, unit_price, total_price, confidence, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, bill.ID, item.Name, item.Quantity, money(item.UnitPrice), money(item.TotalPrice),
			string(item.Confidence), item.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}

	for i := range details.Participants {
		p := &details.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.SplitBillID = bill.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bill_participants (id, split_bill_id, name, subtotal, tax_share, service_share,
			 tip_share, total_amount, is_settled, settled_at, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, bill.ID, p.Name, money(p.Subtotal), money(p.TaxShare), money(p.ServiceShare),
			money(p.TipShare), money(p.TotalAmount), p.IsSettled, p.SettledAt, p.Position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i := range details.Assignments {
		a := &details.Assignments[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bill_item_assignments (id, item_id, participant_id, share_percentage, share_amount)
			 VALUES (?, ?, ?, ?, ?)`,
			a.ID, a.ItemID, a.ParticipantID, money(a.SharePercentage), money(a.ShareAmount),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// money formats an amount for a TEXT column.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

const billColumns = `id, user_id, title, receipt_image_url, subtotal, tax_amount, service_charge,
	tip_amount, total_amount, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*models.SplitBill, error) {
	bill := &models.SplitBill{}
	err := row.Scan(&bill.ID, &bill.UserID, &bill.Title, &bill.ReceiptImageURL, &bill.Subtotal,
		&bill.TaxAmount, &bill.ServiceCharge, &bill.TipAmount, &bill.TotalAmount, &bill.Status,
		&bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// GetSplitBillWithDetails retrieves a bill with its items, participants and assignments.
func (s *SQLiteStore) GetSplitBillWithDetails(ctx context.Context, billID string) (*models.SplitBillWithDetails, error) {
	bill, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM split_bills WHERE id = ?", billID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split bill: %w", err)
	}

	details := &models.SplitBillWithDetails{Bill: *bill}

	// Get items
	itemRows, err := s.db.QueryContext(ctx,
		`SELECT id, split_bill_id, name, quantity, unit_price, total_price, confidence, position
		 FROM bill_items WHERE split_bill_id = ? ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.BillItem
		var confidence string
		if err := itemRows.Scan(&item.ID, &item.SplitBillID, &item.Name, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &confidence, &item.Position); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.Confidence = models.Confidence(confidence)
		details.Items = append(details.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	// Get participants
	participantRows, err := s.db.QueryContext(ctx,
		`SELECT id, split_bill_id, name, subtotal, tax_share, service_share, tip_share,
		 total_amount, is_settled, settled_at, position
		 FROM bill_participants WHERE split_bill_id = ? ORDER BY position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer participantRows.Close()

	for participantRows.Next() {
		var p models.BillParticipant
		if err := participantRows.Scan(&p.ID, &p.SplitBillID, &p.Name, &p.Subtotal, &p.TaxShare,
			&p.ServiceShare, &p.TipShare, &p.TotalAmount, &p.IsSettled, &p.SettledAt, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		details.Participants = append(details.Participants, p)
	}
	if err := participantRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	// Get assignments in item order, then participant order
	assignRows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.item_id, a.participant_id, a.share_percentage, a.share_amount
		 FROM bill_item_assignments a
		 JOIN bill_items i ON i.id = a.item_id
		 JOIN bill_participants p ON p.id = a.participant_id
		 WHERE i.split_bill_id = ?
		 ORDER BY i.position, p.position`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get item assignments: %w", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var a models.BillItemAssignment
		if err := assignRows.Scan(&a.ID, &a.ItemID, &a.ParticipantID, &a.SharePercentage, &a.ShareAmount); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		details.Assignments = append(details.Assignments, a)
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	return details, nil
}

// ListSplitBills retrieves the bills owned by a user, newest first.
func (s *SQLiteStore) ListSplitBills(ctx context.Context, userID string) ([]*models.SplitBill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM split_bills WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list split bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.SplitBill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split bills: %w", err)
	}

	return bills, nil
}

// DeleteSplitBill removes a bill; items, participants and assignments cascade.
func (s *SQLiteStore) DeleteSplitBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM split_bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete split bill: %w", err)
	}
	return expectRow(res, "split bill", billID)
}

// expectRow turns a zero-row result into storage.ErrNotFound.
func expectRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	return nil
}
