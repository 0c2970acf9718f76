package leave

import (
	"strings"

	leaveerrors "go-leave/internal/leave/errors"
)

type StatusCounts struct {
	All       int `json:"all"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

// CountsByStatus is recomputed from the collection on every call.
func CountsByStatus(requests []LeaveRequest) StatusCounts {
	var c StatusCounts
	for _, r := range requests {
		c.All++
		switch r.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusRejected:
			c.Rejected++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}

// ParseStatusFilter accepts a status name in any case. Empty and "ALL" mean
// no filter and return "".
func ParseStatusFilter(v string) (Status, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" || v == "ALL" {
		return "", nil
	}
	s := Status(v)
	if !s.Valid() {
		return "", leaveerrors.ErrInvalidStatusFilter
	}
	return s, nil
}

func FilterByStatus(requests []LeaveRequest, status Status) []LeaveRequest {
	if status == "" {
		return requests
	}
	out := make([]LeaveRequest, 0, len(requests))
	for _, r := range requests {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
