package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

// SettleParticipant marks one participant as paid.
func (s *SQLiteStore) SettleParticipant(ctx context.Context, billID, participantID string) error {
	return s.setParticipantSettled(ctx, billID, participantID, true)
}

// UnsettleParticipant marks one participant as unpaid.
func (s *SQLiteStore) UnsettleParticipant(ctx context.Context, billID, participantID string) error {
	return s.setParticipantSettled(ctx, billID, participantID, false)
}

func (s *SQLiteStore) setParticipantSettled(ctx context.Context, billID, participantID string, settled bool) error {
	now := time.Now().Unix()
	var settledAt int64
	if settled {
		settledAt = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE bill_participants SET is_settled = ?, settled_at = ?
		 WHERE id = ? AND split_bill_id = ?`,
		settled, settledAt, participantID, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if err := expectRow(res, "participant", participantID); err != nil {
		return err
	}

	if err := refreshStatus(ctx, tx, billID, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SettleSplitBill marks every participant as paid. An archived bill keeps
// its status.
func (s *SQLiteStore) SettleSplitBill(ctx context.Context, billID string) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	status, err := billStatus(ctx, tx, billID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE bill_participants SET is_settled = 1, settled_at = ?
		 WHERE split_bill_id = ? AND is_settled = 0`,
		now, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to settle participants: %w", err)
	}

	if status != models.BillStatusArchived {
		status = models.BillStatusSettled
	}
	if err := setStatus(ctx, tx, billID, status, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ArchiveSplitBill moves the bill to the archived status.
func (s *SQLiteStore) ArchiveSplitBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE split_bills SET status = ?, updated_at = ? WHERE id = ?",
		string(models.BillStatusArchived), time.Now().Unix(), billID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive split bill: %w", err)
	}
	return expectRow(res, "split bill", billID)
}

// refreshStatus re-derives the bill status from its participants.
func refreshStatus(ctx context.Context, tx *sql.Tx, billID string, now int64) error {
	current, err := billStatus(ctx, tx, billID)
	if err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx,
		"SELECT is_settled, total_amount FROM bill_participants WHERE split_bill_id = ?",
		billID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.BillParticipant
	for rows.Next() {
		var p models.BillParticipant
		if err := rows.Scan(&p.IsSettled, &p.TotalAmount); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	return setStatus(ctx, tx, billID, calculator.DeriveStatus(current, participants), now)
}

func billStatus(ctx context.Context, tx *sql.Tx, billID string) (models.BillStatus, error) {
	var status models.BillStatus
	err := tx.QueryRowContext(ctx, "SELECT status FROM split_bills WHERE id = ?", billID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("split bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get split bill status: %w", err)
	}
	return status, nil
}

func setStatus(ctx context.Context, tx *sql.Tx, billID string, status models.BillStatus, now int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE split_bills SET status = ?, updated_at = ? WHERE id = ?",
		string(status), now, billID,
	)
	if err != nil {
		return fmt.Errorf("failed to update split bill status: %w", err)
	}
	return nil
}
