// Package postgres provides a PostgreSQL implementation of storage.Store
// built on gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

// New connects to databaseURL and migrates the schema.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Parents first so the foreign keys resolve.
	err = db.AutoMigrate(&billRow{}, &itemRow{}, &participantRow{}, &assignmentRow{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateSplitBill inserts the bill with its items and participants, then the
// assignments, in one transaction.
func (s *PostgresStore) CreateSplitBill(ctx context.Context, details *models.SplitBillWithDetails) error {
	fillDefaults(details, time.Now().Unix())
	row := toBillRow(details)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to insert split bill: %w", err)
		}
		if len(details.Assignments) == 0 {
			return nil
		}
		if err := tx.Create(toAssignmentRows(details.Assignments)).Error; err != nil {
			return fmt.Errorf("failed to insert item assignments: %w", err)
		}
		return nil
	})
	return err
}

func fillDefaults(d *models.SplitBillWithDetails, now int64) {
	if d.Bill.ID == "" {
		d.Bill.ID = uuid.New().String()
	}
	if d.Bill.CreatedAt == 0 {
		d.Bill.CreatedAt = now
	}
	if d.Bill.UpdatedAt == 0 {
		d.Bill.UpdatedAt = d.Bill.CreatedAt
	}
	if d.Bill.Status == "" {
		d.Bill.Status = models.BillStatusActive
	}
	for i := range d.Items {
		if d.Items[i].ID == "" {
			d.Items[i].ID = uuid.New().String()
		}
		d.Items[i].SplitBillID = d.Bill.ID
	}
	for i := range d.Participants {
		if d.Participants[i].ID == "" {
			d.Participants[i].ID = uuid.New().String()
		}
		d.Participants[i].SplitBillID = d.Bill.ID
	}
	for i := range d.Assignments {
		if d.Assignments[i].ID == "" {
			d.Assignments[i].ID = uuid.New().String()
		}
	}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// GetSplitBillWithDetails loads the bill with its rows in draft order.
func (s *PostgresStore) GetSplitBillWithDetails(ctx context.Context, billID string) (*models.SplitBillWithDetails, error) {
	db := s.db.WithContext(ctx)

	var row billRow
	err := db.Preload("Items", byPosition).Preload("Participants", byPosition).
		First(&row, "id = ?", billID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("split bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split bill: %w", err)
	}

	var assignments []assignmentRow
	err = db.Table("bill_item_assignments AS a").
		Select("a.*").
		Joins("JOIN bill_items i ON i.id = a.item_id").
		Joins("JOIN bill_participants p ON p.id = a.participant_id").
		Where("i.split_bill_id = ?", billID).
		Order("i.position, p.position").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get item assignments: %w", err)
	}

	return row.details(assignments), nil
}

// ListSplitBills returns userID's bills, newest first.
func (s *PostgresStore) ListSplitBills(ctx context.Context, userID string) ([]*models.SplitBill, error) {
	var rows []billRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list split bills: %w", err)
	}

	bills := make([]*models.SplitBill, len(rows))
	for i := range rows {
		b := rows[i].bill()
		bills[i] = &b
	}
	return bills, nil
}

// SettleParticipant marks one participant as paid.
func (s *PostgresStore) SettleParticipant(ctx context.Context, billID, participantID string) error {
	return s.setParticipantSettled(ctx, billID, participantID, true)
}

// UnsettleParticipant marks one participant as unpaid.
func (s *PostgresStore) UnsettleParticipant(ctx context.Context, billID, participantID string) error {
	return s.setParticipantSettled(ctx, billID, participantID, false)
}

func (s *PostgresStore) setParticipantSettled(ctx context.Context, billID, participantID string, settled bool) error {
	now := time.Now().Unix()
	var settledAt int64
	if settled {
		settledAt = now
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&participantRow{}).
			Where("id = ? AND split_bill_id = ?", participantID, billID).
			Updates(map[string]any{"is_settled": settled, "settled_at": settledAt})
		if res.Error != nil {
			return fmt.Errorf("failed to update participant: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound)
		}

		var bill billRow
		if err := tx.Preload("Participants").First(&bill, "id = ?", billID).Error; err != nil {
			return fmt.Errorf("failed to get split bill: %w", err)
		}
		participants := make([]models.BillParticipant, len(bill.Participants))
		for i, p := range bill.Participants {
			participants[i] = p.participant()
		}
		status := calculator.DeriveStatus(models.BillStatus(bill.Status), participants)
		return setStatus(tx, billID, status, now)
	})
}

// SettleSplitBill marks every participant as paid. An archived bill keeps
// its status.
func (s *PostgresStore) SettleSplitBill(ctx context.Context, billID string) error {
	now := time.Now().Unix()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bill billRow
		err := tx.Select("id", "status").First(&bill, "id = ?", billID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("split bill %s: %w", billID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get split bill: %w", err)
		}

		err = tx.Model(&participantRow{}).
			Where("split_bill_id = ? AND is_settled = ?", billID, false).
			Updates(map[string]any{"is_settled": true, "settled_at": now}).Error
		if err != nil {
			return fmt.Errorf("failed to settle participants: %w", err)
		}

		status := models.BillStatusSettled
		if models.BillStatus(bill.Status) == models.BillStatusArchived {
			status = models.BillStatusArchived
		}
		return setStatus(tx, billID, status, now)
	})
}

// ArchiveSplitBill moves the bill to the archived status.
func (s *PostgresStore) ArchiveSplitBill(ctx context.Context, billID string) error {
	res := s.db.WithContext(ctx).Model(&billRow{}).
		Where("id = ?", billID).
		Updates(map[string]any{"status": string(models.BillStatusArchived), "updated_at": time.Now().Unix()})
	if res.Error != nil {
		return fmt.Errorf("failed to archive split bill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("split bill %s: %w", billID, storage.ErrNotFound)
	}
	return nil
}

// DeleteSplitBill removes the bill; child rows cascade.
func (s *PostgresStore) DeleteSplitBill(ctx context.Context, billID string) error {
	res := s.db.WithContext(ctx).Delete(&billRow{}, "id = ?", billID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete split bill: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("split bill %s: %w", billID, storage.ErrNotFound)
	}
	return nil
}

func setStatus(tx *gorm.DB, billID string, status models.BillStatus, now int64) error {
	err := tx.Model(&billRow{}).
		Where("id = ?", billID).
		Updates(map[string]any{"status": string(status), "updated_at": now}).Error
	if err != nil {
		return fmt.Errorf("failed to update split bill status: %w", err)
	}
	return nil
}
