package leave

// ApplyLeaveRequest leaves required-field checks to the lifecycle so a
// missing field is reported the same way for every caller. EmployeeID and
// ManagerID come from the caller's token, never from the body.
type ApplyLeaveRequest struct {
	EmployeeID string `json:"-"`
	ManagerID  string `json:"-"`
	LeaveType  string `json:"leave_type" binding:"omitempty,oneof=CASUAL SICK MATERNITY PERSONAL OTHER"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason" binding:"max=2000"`
	Comment    string `json:"comment" binding:"max=2000"`
}

type UpdateLeaveRequest struct {
	LeaveType *string `json:"leave_type" binding:"omitempty,oneof=CASUAL SICK MATERNITY PERSONAL OTHER"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Reason    *string `json:"reason" binding:"omitempty,max=2000"`
	Comment   *string `json:"comment" binding:"omitempty,max=2000"`
}

type CommentRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

type LeaveResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	ManagerID    string `json:"manager_id"`
	LeaveType    string `json:"leave_type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	NumberOfDays int    `json:"number_of_days"`
	Reason       string `json:"reason"`
	Comment      string `json:"comment"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type SummaryScope string

const (
	ScopeMine    SummaryScope = "mine"
	ScopeManaged SummaryScope = "managed"
)
