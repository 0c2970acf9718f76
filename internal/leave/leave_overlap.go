package leave

import (
	"time"

	"github.com/google/uuid"
)

// RangesOverlap uses inclusive endpoints, so ranges sharing a single
// boundary date overlap.
func RangesOverlap(s1, e1, s2, e2 time.Time) bool {
	return !DateOnly(s1).After(DateOnly(e2)) && !DateOnly(s2).After(DateOnly(e1))
}

// HasConflict reports whether [start, end] overlaps any pending or approved
// request in existing, ignoring the request with id excludeID.
func HasConflict(start, end time.Time, existing []LeaveRequest, excludeID uuid.UUID) bool {
	_, ok := FindConflict(start, end, existing, excludeID)
	return ok
}

// FindConflict returns the first pending or approved request in existing
// that overlaps [start, end], skipping excludeID.
func FindConflict(start, end time.Time, existing []LeaveRequest, excludeID uuid.UUID) (LeaveRequest, bool) {
	for _, r := range existing {
		if !r.Status.HoldsDates() || r.ID == excludeID {
			continue
		}
		if RangesOverlap(start, end, r.StartDate, r.EndDate) {
			return r, true
		}
	}
	return LeaveRequest{}, false
}
