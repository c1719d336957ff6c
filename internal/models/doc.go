// Package models defines the domain models for split bills.
//
// # Draft vs Persisted
//
// A bill goes through two shapes:
//   - Draft: EditableBillItem and EditableParticipant live inside the wizard and
//     carry a TempID that only the client knows about.
//   - Persisted: BillItem, BillParticipant and BillItemAssignment carry the
//     server-assigned ID and the share amounts computed at save time.
//
// The two shapes are separate types, so an entity can never hold both kinds of
// identifier at once. CreateSplitBillInput is the bridge between them.
//
// # Money
//
// Every currency value is a decimal.Decimal with two decimal places. Amounts
// are never stored as float64.
//
// # Relationships
//
// Relationships use ID strings instead of pointers. Assignments is a
// set-valued map from item ID to participant IDs and owns the pruning rules
// that keep it consistent when items or participants are removed.
package models
