package entities

// SetDiff is the outcome of replacing one membership set with another.
type SetDiff[T comparable] struct {
	Added   []T
	Removed []T
}

func (d SetDiff[T]) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Diff compares two membership sets. Added keeps the order of next, Removed the
// order of prev; duplicates are collapsed.
func Diff[T comparable](prev, next []T) SetDiff[T] {
	inPrev := make(map[T]struct{}, len(prev))
	for _, v := range prev {
		inPrev[v] = struct{}{}
	}
	inNext := make(map[T]struct{}, len(next))
	for _, v := range next {
		inNext[v] = struct{}{}
	}

	var d SetDiff[T]
	seen := make(map[T]struct{}, len(next))
	for _, v := range next {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := inPrev[v]; !ok {
			d.Added = append(d.Added, v)
		}
	}
	seen = make(map[T]struct{}, len(prev))
	for _, v := range prev {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := inNext[v]; !ok {
			d.Removed = append(d.Removed, v)
		}
	}
	return d
}

// Unique drops repeated values, keeping first occurrences.
func Unique[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Without returns in minus every occurrence of drop.
func Without[T comparable](in []T, drop T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
