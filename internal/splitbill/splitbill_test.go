package splitbill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/storage"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func item(id models.TempID, name string, qty int, unit string) models.EditableBillItem {
	u := d(unit)
	return models.EditableBillItem{ID: id, Name: name, Quantity: qty, UnitPrice: u, TotalPrice: u.Mul(decimal.NewFromInt(int64(qty)))}
}

func validInput() models.CreateSplitBillInput {
	return models.CreateSplitBillInput{
		Title: "  Team lunch ",
		Items: []models.EditableBillItem{
			item("i1", "Burger", 1, "12.00"),
			item("i2", "Fries", 2, "3.50"),
			item("i3", "Soda", 3, "1.00"),
		},
		Participants: []models.EditableParticipant{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob"},
			{ID: "p3", Name: "Carol"},
		},
		Assignments: models.NewAssignments(map[models.TempID][]models.TempID{
			"i1": {"p1"},
			"i2": {"p1", "p2", "p3"},
			"i3": {"p2", "p3"},
		}),
		Extras: models.BillExtras{
			TaxAmount:     d("1.84"),
			ServiceCharge: d("2.30"),
			TipAmount:     d("3.00"),
		},
		ReceiptImageURL: "https://img.example/r.jpg",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *models.CreateSplitBillInput)
		errMsg string
	}{
		{
			name:   "valid input",
			modify: func(in *models.CreateSplitBillInput) {},
		},
		{
			name:   "blank title",
			modify: func(in *models.CreateSplitBillInput) { in.Title = "   " },
			errMsg: "title is required",
		},
		{
			name:   "negative tip",
			modify: func(in *models.CreateSplitBillInput) { in.Extras.TipAmount = d("-1") },
			errMsg: "tip amount cannot be negative",
		},
		{
			name: "duplicate item id",
			modify: func(in *models.CreateSplitBillInput) {
				in.Items = append(in.Items, item("i1", "Again", 1, "1"))
			},
			errMsg: "duplicate id",
		},
		{
			name: "item price finer than a cent",
			modify: func(in *models.CreateSplitBillInput) {
				in.Items[0].UnitPrice = d("3.335")
				in.Items[0].TotalPrice = d("3.335")
			},
			errMsg: "prices must be in whole cents",
		},
		{
			name:   "tax finer than a cent",
			modify: func(in *models.CreateSplitBillInput) { in.Extras.TaxAmount = d("1.845") },
			errMsg: "extras must be in whole cents",
		},
		{
			name:   "zero quantity",
			modify: func(in *models.CreateSplitBillInput) { in.Items[0].Quantity = 0 },
			errMsg: "quantity must be at least 1",
		},
		{
			name: "no valid items",
			modify: func(in *models.CreateSplitBillInput) {
				for i := range in.Items {
					in.Items[i].TotalPrice = decimal.Zero
				}
			},
			errMsg: "at least one item",
		},
		{
			name:   "no participants",
			modify: func(in *models.CreateSplitBillInput) { in.Participants = nil },
			errMsg: "at least one participant",
		},
		{
			name: "duplicate participant name ignoring case",
			modify: func(in *models.CreateSplitBillInput) {
				in.Participants[2].Name = " alice"
			},
			errMsg: "listed twice",
		},
		{
			name: "assignment to unknown participant",
			modify: func(in *models.CreateSplitBillInput) {
				in.Assignments.Assign("i1", "ghost")
			},
			errMsg: "unknown participant",
		},
		{
			name: "unassigned item",
			modify: func(in *models.CreateSplitBillInput) {
				in.Assignments.RemoveItem("i3")
			},
			errMsg: "1 items are not assigned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.Assignments = in.Assignments.Clone()
			tt.modify(&in)

			err := Validate(in)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuild(t *testing.T) {
	now := time.Unix(1700000000, 0)
	details := Build(validInput(), "user-1", now)

	assert.Equal(t, "Team lunch", details.Bill.Title)
	assert.Equal(t, "user-1", details.Bill.UserID)
	assert.Equal(t, models.BillStatusActive, details.Bill.Status)
	assert.Equal(t, now.Unix(), details.Bill.CreatedAt)
	assert.True(t, details.Bill.Subtotal.Equal(d("22.00")), "subtotal %s", details.Bill.Subtotal)
	assert.True(t, details.Bill.TotalAmount.Equal(d("29.14")), "total %s", details.Bill.TotalAmount)

	require.Len(t, details.Items, 3)
	require.Len(t, details.Participants, 3)
	require.Len(t, details.Assignments, 6)

	for i, it := range details.Items {
		assert.Equal(t, i, it.Position)
		assert.Equal(t, details.Bill.ID, it.SplitBillID)
		assert.NotEqual(t, "i1", it.ID, "temporary IDs must be replaced")
	}

	sum := decimal.Zero
	for i, p := range details.Participants {
		assert.Equal(t, i, p.Position)
		assert.False(t, p.IsSettled)
		assert.True(t, p.TotalAmount.Equal(p.Subtotal.Add(p.TaxShare).Add(p.ServiceShare).Add(p.TipShare)))
		sum = sum.Add(p.TotalAmount)
	}
	assert.True(t, sum.Equal(details.Bill.TotalAmount), "participants %s vs bill %s", sum, details.Bill.TotalAmount)

	// Fries are split three ways.
	fries := details.Items[1].ID
	var shares []models.BillItemAssignment
	for _, a := range details.Assignments {
		if a.ItemID == fries {
			shares = append(shares, a)
		}
	}
	require.Len(t, shares, 3)
	total := decimal.Zero
	for _, a := range shares {
		assert.True(t, a.SharePercentage.Equal(d("33.33")), "percentage %s", a.SharePercentage)
		total = total.Add(a.ShareAmount)
	}
	assert.True(t, total.Equal(d("7.00")))
}

type fakeStore struct {
	storage.Store
	created *models.SplitBillWithDetails
	err     error
}

func (f *fakeStore) CreateSplitBill(ctx context.Context, details *models.SplitBillWithDetails) error {
	if f.err != nil {
		return f.err
	}
	f.created = details
	return nil
}

func TestRepository_Create(t *testing.T) {
	t.Run("persists a valid draft", func(t *testing.T) {
		store := &fakeStore{}
		repo := NewRepository(store)

		details, err := repo.Create(context.Background(), "user-1", validInput())
		require.NoError(t, err)
		assert.Same(t, details, store.created)
	})

	t.Run("rejects invalid input before storing", func(t *testing.T) {
		store := &fakeStore{}
		repo := NewRepository(store)

		in := validInput()
		in.Title = ""
		_, err := repo.Create(context.Background(), "user-1", in)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, store.created)
	})

	t.Run("wraps store errors", func(t *testing.T) {
		boom := errors.New("disk full")
		repo := NewRepository(&fakeStore{err: boom})

		_, err := repo.Create(context.Background(), "user-1", validInput())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidInput)
	})
}

func TestPreview(t *testing.T) {
	in := validInput()
	in.Assignments = models.NewAssignments(map[models.TempID][]models.TempID{"i1": {"p1"}})

	summaries, err := Preview(in)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.True(t, summaries[0].ItemsSubtotal.Equal(d("12.00")))
	assert.True(t, summaries[1].TotalAmount.IsZero())

	in.Extras.TaxAmount = d("-0.01")
	_, err = Preview(in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
