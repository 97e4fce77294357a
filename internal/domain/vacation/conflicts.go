package vacation

import (
	"sort"
	"time"

	"planivo/internal/domain/roster"
)

// CommittedSegment is another plan's segment that still holds its dates:
// pending or approved, on a plan that has not been rejected.
type CommittedSegment struct {
	PlanID    string
	StaffID   string
	StaffName string
	StartDate time.Time
	EndDate   time.Time
	Days      float64
}

// Overlaps is inclusive on both endpoints: a single shared day counts.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// FindPeerOverlaps compares each candidate segment against committed segments
// of other staff in the same department. Output ordering is stable: segments
// in input order, parties by name then start date, so repeated calls over the
// same data produce identical conflict lists.
func FindPeerOverlaps(segments []Segment, peers []CommittedSegment) []PeerConflict {
	var out []PeerConflict
	for _, seg := range segments {
		var parties []ConflictParty
		for _, peer := range peers {
			if !Overlaps(seg.StartDate, seg.EndDate, peer.StartDate, peer.EndDate) {
				continue
			}
			parties = append(parties, ConflictParty{
				Name:      peer.StaffName,
				StartDate: peer.StartDate,
				EndDate:   peer.EndDate,
				Days:      peer.Days,
			})
		}
		if len(parties) == 0 {
			continue
		}
		sort.Slice(parties, func(i, j int) bool {
			if parties[i].Name != parties[j].Name {
				return parties[i].Name < parties[j].Name
			}
			return parties[i].StartDate.Before(parties[j].StartDate)
		})
		out = append(out, PeerConflict{SegmentID: seg.ID, Parties: parties})
	}
	return out
}

// FindSelfOverlap reports whether any candidate segment overlaps one of the
// requester's own committed segments on another plan. Unlike peer overlap
// this is a hard rule, not advisory.
func FindSelfOverlap(segments []Segment, own []CommittedSegment) *CommittedSegment {
	for _, seg := range segments {
		for _, existing := range own {
			if Overlaps(seg.StartDate, seg.EndDate, existing.StartDate, existing.EndDate) {
				found := existing
				return &found
			}
		}
	}
	return nil
}

// BuildOperationalConflicts tags roster and event collisions so callers can
// tell a shift clash from a scheduled-event clash. Results are ordered by
// date, then name.
func BuildOperationalConflicts(shifts []roster.Shift, events []roster.Event) []OperationalConflict {
	var out []OperationalConflict
	for _, sh := range shifts {
		out = append(out, OperationalConflict{
			Type:    OperationalShift,
			Name:    sh.ShiftName,
			Date:    sh.Date,
			Details: "rostered shift on this day",
		})
	}
	for _, ev := range events {
		out = append(out, OperationalConflict{
			Type:    OperationalEvent,
			Name:    ev.Name,
			Date:    ev.StartsAt,
			EndDate: ev.EndsAt,
			Details: "scheduled from " + ev.StartsAt.Format("2006-01-02 15:04") + " to " + ev.EndsAt.Format("2006-01-02 15:04"),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// dateSpan returns the earliest start and latest end over a segment set.
func dateSpan(segments []Segment) (time.Time, time.Time) {
	var from, to time.Time
	for i, seg := range segments {
		if i == 0 || seg.StartDate.Before(from) {
			from = seg.StartDate
		}
		if i == 0 || seg.EndDate.After(to) {
			to = seg.EndDate
		}
	}
	return from, to
}

// withinAnySegment filters operational conflicts down to those that touch at
// least one candidate segment. Lookups run over the whole span, so days
// between disjoint segments must be dropped. A shift occupies its single day;
// an event counts whenever its full window intersects a segment, even when it
// started before the segment did.
func withinAnySegment(conflicts []OperationalConflict, segments []Segment) []OperationalConflict {
	var out []OperationalConflict
	for _, c := range conflicts {
		start := truncateToDay(c.Date)
		end := start
		if !c.EndDate.IsZero() {
			end = truncateToDay(c.EndDate)
		}
		for _, seg := range segments {
			if Overlaps(start, end, seg.StartDate, seg.EndDate) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
