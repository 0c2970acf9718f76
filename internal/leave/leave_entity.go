package leave

import (
	"time"

	"github.com/google/uuid"
)

type LeaveType string

const (
	LeaveTypeCasual    LeaveType = "CASUAL"
	LeaveTypeSick      LeaveType = "SICK"
	LeaveTypeMaternity LeaveType = "MATERNITY"
	LeaveTypePersonal  LeaveType = "PERSONAL"
	LeaveTypeOther     LeaveType = "OTHER"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveTypeCasual, LeaveTypeSick, LeaveTypeMaternity, LeaveTypePersonal, LeaveTypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// HoldsDates reports whether a request in status s blocks its date range
// for the same employee.
func (s Status) HoldsDates() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransition is the whole state graph:
// PENDING -> APPROVED | REJECTED | CANCELLED, APPROVED -> CANCELLED.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled
	default:
		return false
	}
}

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID string    `gorm:"type:varchar(64);not null;index:idx_leave_requests_employee_dates"`
	ManagerID  string    `gorm:"type:varchar(64);not null;index:idx_leave_requests_manager_status"`

	StartDate    time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate      time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	NumberOfDays int       `gorm:"type:int;not null"`
	LeaveType    LeaveType `gorm:"type:varchar(20);not null"`
	Reason       string    `gorm:"type:text;not null"`

	Status  Status `gorm:"type:varchar(20);not null;index:idx_leave_requests_manager_status"`
	Comment string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}
