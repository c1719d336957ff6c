package models

import (
	"encoding/json"
	"sort"
)

// Assignments maps each item to the set of participants sharing it.
// An item with no entry, or an empty set, is unassigned; empty sets are never
// stored. The zero value is an empty, ready-to-use multimap.
type Assignments struct {
	m map[TempID]map[TempID]struct{}
}

// NewAssignments builds a multimap from an item → participants listing.
// Duplicate participant IDs collapse and empty lists are dropped.
func NewAssignments(pairs map[TempID][]TempID) Assignments {
	var a Assignments
	for item, participants := range pairs {
		for _, p := range participants {
			a.Assign(item, p)
		}
	}
	return a
}

// Assign adds participant to item's assignee set.
func (a *Assignments) Assign(item, participant TempID) {
	if a.m == nil {
		a.m = make(map[TempID]map[TempID]struct{})
	}
	set, ok := a.m[item]
	if !ok {
		set = make(map[TempID]struct{})
		a.m[item] = set
	}
	set[participant] = struct{}{}
}

// Unassign removes participant from item's assignee set and drops the entry
// when the set becomes empty.
func (a *Assignments) Unassign(item, participant TempID) {
	set, ok := a.m[item]
	if !ok {
		return
	}
	delete(set, participant)
	if len(set) == 0 {
		delete(a.m, item)
	}
}

// Toggle flips the pair and reports whether participant is now assigned.
func (a *Assignments) Toggle(item, participant TempID) bool {
	if a.IsAssigned(item, participant) {
		a.Unassign(item, participant)
		return false
	}
	a.Assign(item, participant)
	return true
}

// RemoveItem drops every entry for item.
func (a *Assignments) RemoveItem(item TempID) {
	delete(a.m, item)
}

// RemoveParticipant removes participant from every assignee set. Items left
// with nobody become unassigned.
func (a *Assignments) RemoveParticipant(participant TempID) {
	for item, set := range a.m {
		delete(set, participant)
		if len(set) == 0 {
			delete(a.m, item)
		}
	}
}

// IsAssigned reports whether participant shares item.
func (a Assignments) IsAssigned(item, participant TempID) bool {
	_, ok := a.m[item][participant]
	return ok
}

// Count returns the number of assignees of item.
func (a Assignments) Count(item TempID) int {
	return len(a.m[item])
}

// Assignees returns item's assignees sorted by ID.
func (a Assignments) Assignees(item TempID) []TempID {
	set := a.m[item]
	if len(set) == 0 {
		return nil
	}
	ids := make([]TempID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of assigned items.
func (a Assignments) Len() int {
	return len(a.m)
}

// Clone returns a deep copy.
func (a Assignments) Clone() Assignments {
	if a.m == nil {
		return Assignments{}
	}
	out := Assignments{m: make(map[TempID]map[TempID]struct{}, len(a.m))}
	for item, set := range a.m {
		cp := make(map[TempID]struct{}, len(set))
		for p := range set {
			cp[p] = struct{}{}
		}
		out.m[item] = cp
	}
	return out
}

// Map returns the multimap as item → sorted participant IDs.
func (a Assignments) Map() map[TempID][]TempID {
	out := make(map[TempID][]TempID, len(a.m))
	for item := range a.m {
		out[item] = a.Assignees(item)
	}
	return out
}

// MarshalJSON encodes the multimap as an object of item ID → participant IDs.
func (a Assignments) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Map())
}

// UnmarshalJSON decodes an object of item ID → participant IDs.
func (a *Assignments) UnmarshalJSON(data []byte) error {
	var pairs map[TempID][]TempID
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	*a = NewAssignments(pairs)
	return nil
}
