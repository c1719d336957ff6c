package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/models"
)

func TestAdvance_Gates(t *testing.T) {
	w := newTestWizard()

	require.NoError(t, w.Advance(), "scan has no gate")
	assert.Equal(t, StepValidate, w.State().Step)

	assert.ErrorIs(t, w.Advance(), ErrMissingTitle)
	w.SetTitle("Dinner")
	blank := w.AddItem()
	assert.ErrorIs(t, w.Advance(), ErrNoValidItems)
	assert.Equal(t, StepValidate, w.State().Step)

	pizza := addPricedItem(w, "Pizza", 1, "20")
	require.NoError(t, w.Advance())
	assert.Equal(t, StepAssign, w.State().Step)

	assert.ErrorIs(t, w.Advance(), ErrNoParticipants)
	alice, _ := w.AddParticipant("Alice")
	err := w.Advance()
	assert.ErrorIs(t, err, ErrUnassignedItems)
	assert.Contains(t, err.Error(), "2 unassigned")

	w.ToggleItemAssignment(pizza, alice)
	w.ToggleItemAssignment(blank, alice)
	require.NoError(t, w.Advance())
	assert.Equal(t, StepReview, w.State().Step)

	require.NoError(t, w.Advance(), "review is terminal")
	assert.Equal(t, StepReview, w.State().Step)
}

func TestInvalidItems(t *testing.T) {
	w := newTestWizard()
	blank := w.AddItem()
	free := addPricedItem(w, "Water", 1, "0")
	unnamed := w.AddItem()
	w.UpdateItem(unnamed, models.ItemPatch{UnitPrice: ptr(d("3"))})
	good := addPricedItem(w, "Pizza", 1, "20")
	alice, _ := w.AddParticipant("Alice")
	w.ToggleItemAssignment(blank, alice)
	w.ToggleItemAssignment(good, alice)

	invalid := w.InvalidItems()
	require.Len(t, invalid, 3)
	assert.Equal(t, []models.TempID{blank, free, unnamed},
		[]models.TempID{invalid[0].ID, invalid[1].ID, invalid[2].ID})

	assert.Equal(t, 3, w.RemoveInvalidItems())
	s := w.State()
	require.Len(t, s.Items, 1)
	assert.Equal(t, good, s.Items[0].ID)
	assert.Equal(t, 0, s.Assignments.Count(blank))
	assert.True(t, s.Assignments.IsAssigned(good, alice))
}

func TestValidateForSave_RechecksAllGates(t *testing.T) {
	w := newTestWizard()
	w.SetTitle("Dinner")
	pizza := addPricedItem(w, "Pizza", 1, "20")
	alice, _ := w.AddParticipant("Alice")
	w.ToggleItemAssignment(pizza, alice)
	require.NoError(t, w.ValidateForSave())

	// Going back and adding an item reopens the assignment gate.
	w.SetStep(StepValidate)
	addPricedItem(w, "Beer", 1, "6")
	assert.ErrorIs(t, w.ValidateForSave(), ErrUnassignedItems)
	assert.NoError(t, w.ValidateDetails())
	assert.ErrorIs(t, w.ValidateAssignments(), ErrUnassignedItems)

	w.SetTitle("  ")
	assert.ErrorIs(t, w.ValidateForSave(), ErrMissingTitle)
}
