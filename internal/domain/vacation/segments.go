package vacation

import "time"

// SegmentInput is a requested date range before it becomes a stored segment.
type SegmentInput struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// CalculateDays returns the inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, &InputError{Field: "endDate", Reason: "before start date"}
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// ValidateSegments checks a requested segment set against the plan limits and
// returns the segments with computed day counts, all in pending status.
func ValidateSegments(inputs []SegmentInput, maxSegments int, maxDaysPerRequest float64) ([]Segment, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, &InputError{Field: "segments", Reason: "at least one segment is required"}
	}
	if maxSegments > 0 && len(inputs) > maxSegments {
		return nil, 0, &InputError{Field: "segments", Reason: "too many segments"}
	}

	var total float64
	segments := make([]Segment, 0, len(inputs))
	for _, in := range inputs {
		days, err := CalculateDays(in.StartDate, in.EndDate)
		if err != nil {
			return nil, 0, err
		}
		total += days
		segments = append(segments, Segment{
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Days:      days,
			Status:    StatusPending,
		})
	}
	if maxDaysPerRequest > 0 && total > maxDaysPerRequest {
		return nil, 0, &InputError{Field: "segments", Reason: "total days exceed the per-request cap"}
	}
	return segments, total, nil
}

// ApplySelection marks every segment whose id is in selected as approved and
// all others as rejected, and recomputes the plan total over approved
// segments only. An empty selection is a caller error: a plan must keep at
// least one honored segment to count as approved.
func ApplySelection(segments []Segment, selected map[string]bool) ([]Segment, float64, error) {
	if len(selected) == 0 {
		return nil, 0, ErrNoSegmentsSelected
	}

	out := make([]Segment, len(segments))
	var total float64
	matched := 0
	for i, seg := range segments {
		out[i] = seg
		if selected[seg.ID] {
			out[i].Status = StatusApproved
			total += seg.Days
			matched++
		} else {
			out[i].Status = StatusRejected
		}
	}
	if matched == 0 {
		return nil, 0, ErrNoSegmentsSelected
	}
	return out, total, nil
}

// RejectAll marks every segment rejected; the plan total drops to zero.
func RejectAll(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	for i, seg := range segments {
		out[i] = seg
		out[i].Status = StatusRejected
	}
	return out
}

func selectionSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
