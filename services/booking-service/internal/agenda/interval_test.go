package agenda

import (
	"testing"
	"time"
)

func iv(startH, startM, endH, endM int) Interval {
	return Interval{Start: at(startH, startM), End: at(endH, endM)}
}

func TestMergeIntervalsCoalescesTouching(t *testing.T) {
	got := mergeIntervals([]Interval{
		iv(13, 0, 14, 0),
		iv(9, 0, 10, 0),
		iv(10, 0, 11, 0),  // touches the first
		iv(9, 30, 9, 45),  // nested
		iv(12, 0, 12, 0),  // empty, dropped
	})
	want := []Interval{iv(9, 0, 11, 0), iv(13, 0, 14, 0)}
	if len(got) != len(want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("merged[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSubtractIntervalsCutSpansBases(t *testing.T) {
	base := []Interval{iv(9, 0, 11, 0), iv(12, 0, 14, 0)}
	cuts := []Interval{iv(10, 30, 12, 30)}
	got := subtractIntervals(base, cuts)
	want := []Interval{iv(9, 0, 10, 30), iv(12, 30, 14, 0)}
	if len(got) != len(want) {
		t.Fatalf("remainder = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("remainder[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSubtractIntervalsFullCover(t *testing.T) {
	got := subtractIntervals([]Interval{iv(9, 0, 10, 0)}, []Interval{iv(8, 0, 11, 0)})
	if len(got) != 0 {
		t.Fatalf("remainder = %v, want empty", got)
	}
}

func TestIntervalClip(t *testing.T) {
	day := Interval{Start: monday, End: monday.AddDate(0, 0, 1)}
	spill := Interval{Start: at(23, 0), End: monday.Add(26 * time.Hour)}
	clipped := spill.Clip(day)
	if !clipped.Start.Equal(at(23, 0)) || !clipped.End.Equal(day.End) {
		t.Fatalf("clipped = %v", clipped)
	}
	outside := Interval{Start: monday.AddDate(0, 0, 2), End: monday.AddDate(0, 0, 3)}
	if !outside.Clip(day).IsZero() {
		t.Fatalf("expected zero interval for disjoint clip")
	}
}
