package vacation

import (
	"errors"
	"testing"
	"time"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalculateDaysInclusive(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  float64
	}{
		{"single day", "2026-03-02", "2026-03-02", 1},
		{"full week", "2026-03-02", "2026-03-08", 7},
		{"across month boundary", "2026-01-30", "2026-02-02", 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateDays(day(tc.start), day(tc.end))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v days, want %v", got, tc.want)
			}
		})
	}
}

func TestCalculateDaysEndBeforeStart(t *testing.T) {
	_, err := CalculateDays(day("2026-03-08"), day("2026-03-02"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestValidateSegments(t *testing.T) {
	inputs := []SegmentInput{
		{StartDate: day("2026-03-02"), EndDate: day("2026-03-04")},
		{StartDate: day("2026-03-10"), EndDate: day("2026-03-10")},
	}

	segments, total, err := ValidateSegments(inputs, 6, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Fatalf("got total %v, want 4", total)
	}
	for _, seg := range segments {
		if seg.Status != StatusPending {
			t.Fatalf("segment status %q, want pending", seg.Status)
		}
	}
}

func TestValidateSegmentsLimits(t *testing.T) {
	one := []SegmentInput{{StartDate: day("2026-03-02"), EndDate: day("2026-03-06")}}

	if _, _, err := ValidateSegments(nil, 6, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty input: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := ValidateSegments([]SegmentInput{one[0], one[0]}, 1, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("too many segments: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := ValidateSegments(one, 6, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("per-request cap: got %v, want ErrInvalidInput", err)
	}
}

func TestApplySelectionRecomputesTotal(t *testing.T) {
	segments := []Segment{
		{ID: "a", StartDate: day("2026-03-02"), EndDate: day("2026-03-04"), Days: 3, Status: StatusPending},
		{ID: "b", StartDate: day("2026-03-10"), EndDate: day("2026-03-11"), Days: 2, Status: StatusPending},
		{ID: "c", StartDate: day("2026-03-20"), EndDate: day("2026-03-24"), Days: 5, Status: StatusPending},
	}

	out, total, err := ApplySelection(segments, map[string]bool{"a": true, "c": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 8 {
		t.Fatalf("got total %v, want 8", total)
	}
	want := map[string]string{"a": StatusApproved, "b": StatusRejected, "c": StatusApproved}
	for _, seg := range out {
		if seg.Status != want[seg.ID] {
			t.Fatalf("segment %s status %q, want %q", seg.ID, seg.Status, want[seg.ID])
		}
	}
}

func TestApplySelectionNoMatch(t *testing.T) {
	segments := []Segment{
		{ID: "a", Days: 3, Status: StatusPending},
	}

	if _, _, err := ApplySelection(segments, map[string]bool{}); !errors.Is(err, ErrNoSegmentsSelected) {
		t.Fatalf("empty selection: got %v, want ErrNoSegmentsSelected", err)
	}
	if _, _, err := ApplySelection(segments, map[string]bool{"zzz": true}); !errors.Is(err, ErrNoSegmentsSelected) {
		t.Fatalf("unknown ids: got %v, want ErrNoSegmentsSelected", err)
	}
}

func TestRejectAll(t *testing.T) {
	segments := []Segment{
		{ID: "a", Status: StatusPending},
		{ID: "b", Status: StatusApproved},
	}
	for _, seg := range RejectAll(segments) {
		if seg.Status != StatusRejected {
			t.Fatalf("segment %s status %q, want rejected", seg.ID, seg.Status)
		}
	}
}
