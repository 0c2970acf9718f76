package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveApplied   = "leave_applied"
	LeaveUpdated   = "leave_updated"
	LeaveApproved  = "leave_approved"
	LeaveRejected  = "leave_rejected"
	LeaveCancelled = "leave_cancelled"
)

type LeaveLifecycleEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	LeaveID      string    `json:"leave_id"`
	EmployeeID   string    `json:"employee_id"`
	ManagerID    string    `json:"manager_id"`
	ActorID      string    `json:"actor_id"`
	Status       string    `json:"status"`
	LeaveType    string    `json:"leave_type"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	NumberOfDays int       `json:"number_of_days"`
	Comment      string    `json:"comment,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
