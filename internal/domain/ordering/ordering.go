// Package ordering maintains dense 1-based positions among siblings that
// share a parent scope (lists within a board, tasks within a list).
package ordering

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownSibling is returned when an order names an id outside the scope.
var ErrUnknownSibling = errors.New("id does not belong to this scope")

// Slot is one sibling and its stored position.
type Slot struct {
	ID       int64
	Position int
}

// Change is a position write that has to be persisted.
type Change struct {
	ID       int64
	Position int
}

// Sort returns a copy of slots in display order: by position, ties by id.
func Sort(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IDs returns the ids of slots in display order.
func IDs(slots []Slot) []int64 {
	sorted := Sort(slots)
	ids := make([]int64, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}
	return ids
}

// Plan ranks siblings by the requested order and returns only the rows whose
// stored position differs from their new rank. Siblings missing from order
// keep their relative order after the listed ones. Repeated ids count once.
// Every id in order must belong to siblings.
func Plan(siblings []Slot, order []int64) ([]Change, error) {
	current := make(map[int64]int, len(siblings))
	for _, s := range siblings {
		current[s.ID] = s.Position
	}

	final := make([]int64, 0, len(siblings))
	placed := make(map[int64]struct{}, len(siblings))
	for _, id := range order {
		if _, ok := current[id]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownSibling, id)
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		final = append(final, id)
	}
	for _, id := range IDs(siblings) {
		if _, ok := placed[id]; !ok {
			final = append(final, id)
		}
	}

	return rank(final, current), nil
}

// Compact re-densifies siblings in their current order, e.g. after one of
// them was removed from the scope.
func Compact(siblings []Slot) []Change {
	current := make(map[int64]int, len(siblings))
	for _, s := range siblings {
		current[s.ID] = s.Position
	}
	return rank(IDs(siblings), current)
}

// FilterScope keeps the ids of order that belong to siblings, dropping
// strays instead of failing.
func FilterScope(siblings []Slot, order []int64) []int64 {
	in := make(map[int64]struct{}, len(siblings))
	for _, s := range siblings {
		in[s.ID] = struct{}{}
	}
	out := make([]int64, 0, len(order))
	for _, id := range order {
		if _, ok := in[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// InsertBefore removes moved from ordered and splices it back immediately
// before target. Both ids must be in ordered. Moving an id before itself
// leaves the order untouched.
func InsertBefore(ordered []int64, moved, target int64) ([]int64, error) {
	var hasMoved, hasTarget bool
	for _, id := range ordered {
		hasMoved = hasMoved || id == moved
		hasTarget = hasTarget || id == target
	}
	if !hasMoved {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSibling, moved)
	}
	if !hasTarget {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSibling, target)
	}

	if moved == target {
		out := make([]int64, len(ordered))
		copy(out, ordered)
		return out, nil
	}

	out := make([]int64, 0, len(ordered))
	for _, id := range ordered {
		if id == moved {
			continue
		}
		if id == target {
			out = append(out, moved)
		}
		out = append(out, id)
	}
	return out, nil
}

func rank(final []int64, current map[int64]int) []Change {
	var changes []Change
	for i, id := range final {
		if current[id] != i+1 {
			changes = append(changes, Change{ID: id, Position: i + 1})
		}
	}
	return changes
}
