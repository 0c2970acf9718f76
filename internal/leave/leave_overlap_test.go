package leave_test

import (
	"testing"

	"go-leave/internal/leave"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func pending(start, end string) leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:         uuid.New(),
		EmployeeID: "E1",
		ManagerID:  "M1",
		StartDate:  date(start),
		EndDate:    date(end),
		Status:     leave.StatusPending,
	}
}

func TestHasConflict_SharedBoundary(t *testing.T) {
	existing := []leave.LeaveRequest{pending("2024-01-10", "2024-01-12")}

	assert.True(t, leave.HasConflict(date("2024-01-12"), date("2024-01-15"), existing, uuid.Nil))
	assert.True(t, leave.HasConflict(date("2024-01-08"), date("2024-01-10"), existing, uuid.Nil))
	assert.False(t, leave.HasConflict(date("2024-01-13"), date("2024-01-15"), existing, uuid.Nil))
	assert.False(t, leave.HasConflict(date("2024-01-01"), date("2024-01-09"), existing, uuid.Nil))
}

func TestHasConflict_Symmetric(t *testing.T) {
	ranges := [][2]string{
		{"2024-01-01", "2024-01-05"},
		{"2024-01-05", "2024-01-09"},
		{"2024-01-06", "2024-01-07"},
		{"2024-01-02", "2024-01-03"},
		{"2024-01-10", "2024-01-20"},
		{"2023-12-25", "2024-01-01"},
	}

	for _, a := range ranges {
		for _, b := range ranges {
			ra, rb := pending(a[0], a[1]), pending(b[0], b[1])
			ab := leave.HasConflict(ra.StartDate, ra.EndDate, []leave.LeaveRequest{rb}, uuid.Nil)
			ba := leave.HasConflict(rb.StartDate, rb.EndDate, []leave.LeaveRequest{ra}, uuid.Nil)
			assert.Equal(t, ab, ba, "%v vs %v", a, b)
		}
	}
}

func TestHasConflict_IgnoresTerminalRequests(t *testing.T) {
	rejected := pending("2024-01-10", "2024-01-12")
	rejected.Status = leave.StatusRejected
	cancelled := pending("2024-01-10", "2024-01-12")
	cancelled.Status = leave.StatusCancelled
	approved := pending("2024-01-10", "2024-01-12")
	approved.Status = leave.StatusApproved

	assert.False(t, leave.HasConflict(date("2024-01-11"), date("2024-01-11"), []leave.LeaveRequest{rejected, cancelled}, uuid.Nil))
	assert.True(t, leave.HasConflict(date("2024-01-11"), date("2024-01-11"), []leave.LeaveRequest{rejected, approved}, uuid.Nil))
}

func TestHasConflict_ExcludesSelf(t *testing.T) {
	self := pending("2024-01-10", "2024-01-12")
	other := pending("2024-01-20", "2024-01-22")
	existing := []leave.LeaveRequest{self, other}

	assert.False(t, leave.HasConflict(self.StartDate, self.EndDate, existing, self.ID))
	assert.False(t, leave.HasConflict(date("2024-01-09"), date("2024-01-13"), existing, self.ID))
	assert.True(t, leave.HasConflict(date("2024-01-09"), date("2024-01-20"), existing, self.ID))
}

func TestRangesOverlap(t *testing.T) {
	assert.True(t, leave.RangesOverlap(date("2024-01-01"), date("2024-01-01"), date("2024-01-01"), date("2024-01-01")))
	assert.False(t, leave.RangesOverlap(date("2024-01-01"), date("2024-01-01"), date("2024-01-02"), date("2024-01-02")))
}

func TestFindConflict_ReturnsHoldingRequest(t *testing.T) {
	early := pending("2024-01-01", "2024-01-03")
	late := pending("2024-01-10", "2024-01-12")

	got, ok := leave.FindConflict(date("2024-01-12"), date("2024-01-15"), []leave.LeaveRequest{early, late}, uuid.Nil)
	assert.True(t, ok)
	assert.Equal(t, late.ID, got.ID)

	_, ok = leave.FindConflict(date("2024-01-12"), date("2024-01-15"), []leave.LeaveRequest{early, late}, late.ID)
	assert.False(t, ok)
}
