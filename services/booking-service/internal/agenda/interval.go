package agenda

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Overlaps reports whether [Start,End) intersects [other.Start,other.End).
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely inside iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Clip trims iv to the bounds of other. The zero Interval is returned when
// nothing remains.
func (iv Interval) Clip(other Interval) Interval {
	s := iv.Start
	e := iv.End
	if s.Before(other.Start) {
		s = other.Start
	}
	if e.After(other.End) {
		e = other.End
	}
	if !e.After(s) {
		return Interval{}
	}
	return Interval{Start: s, End: e}
}

// mergeIntervals sorts the input by start time and coalesces overlapping or
// touching intervals into a disjoint ascending sequence. Empty intervals are
// dropped. The input slice is not modified.
func mergeIntervals(in []Interval) []Interval {
	cleaned := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.End.After(iv.Start) {
			cleaned = append(cleaned, iv)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	sort.Slice(cleaned, func(i, j int) bool {
		if cleaned[i].Start.Equal(cleaned[j].Start) {
			return cleaned[i].End.Before(cleaned[j].End)
		}
		return cleaned[i].Start.Before(cleaned[j].Start)
	})

	merged := []Interval{cleaned[0]}
	for _, cur := range cleaned[1:] {
		last := &merged[len(merged)-1]
		if cur.Start.After(last.End) {
			merged = append(merged, cur)
			continue
		}
		if cur.End.After(last.End) {
			last.End = cur.End
		}
	}
	return merged
}

// subtractIntervals removes every interval in cuts from base, returning the
// disjoint ascending remainder. Both inputs may be unsorted and overlapping.
func subtractIntervals(base, cuts []Interval) []Interval {
	base = mergeIntervals(base)
	cuts = mergeIntervals(cuts)
	if len(cuts) == 0 {
		return base
	}

	var out []Interval
	for _, b := range base {
		cursor := b.Start
		for _, c := range cuts {
			if !c.Start.Before(b.End) {
				break
			}
			if !c.End.After(cursor) {
				continue
			}
			if c.Start.After(cursor) {
				out = append(out, Interval{Start: cursor, End: c.Start})
			}
			if c.End.After(cursor) {
				cursor = c.End
			}
		}
		if b.End.After(cursor) {
			out = append(out, Interval{Start: cursor, End: b.End})
		}
	}
	return out
}

func overlapsAny(iv Interval, set []Interval) bool {
	for _, other := range set {
		if iv.Overlaps(other) {
			return true
		}
	}
	return false
}
