package leave

import (
	leaveerrors "go-leave/internal/leave/errors"
)

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

type Action string

const (
	ActionApply   Action = "apply"
	ActionUpdate  Action = "update"
	ActionCancel  Action = "cancel"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRead    Action = "read"
)

// Actor is an identity already resolved by the caller.
type Actor struct {
	ID   string
	Role Role
}

// capabilities lists which role may attempt which lifecycle action. Admins
// manage employee records only and have no entry.
var capabilities = map[Role][]Action{
	RoleEmployee: {ActionApply, ActionUpdate, ActionCancel, ActionRead},
	RoleManager:  {ActionApprove, ActionReject, ActionRead},
}

// Capabilities returns a copy of the role/action table, used to seed
// route-level RBAC.
func Capabilities() map[Role][]Action {
	out := make(map[Role][]Action, len(capabilities))
	for role, actions := range capabilities {
		out[role] = append([]Action(nil), actions...)
	}
	return out
}

func roleCan(role Role, action Action) bool {
	for _, a := range capabilities[role] {
		if a == action {
			return true
		}
	}
	return false
}

// Authorize decides whether actor may perform action on r. Employees act on
// their own requests, managers on requests assigned to them.
func Authorize(actor Actor, action Action, r LeaveRequest) error {
	if actor.ID == "" || !roleCan(actor.Role, action) {
		return leaveerrors.ErrUnauthorized
	}

	switch action {
	case ActionApply, ActionUpdate, ActionCancel:
		if actor.ID == r.EmployeeID {
			return nil
		}
	case ActionApprove, ActionReject:
		if actor.ID == r.ManagerID {
			return nil
		}
	case ActionRead:
		if (actor.Role == RoleEmployee && actor.ID == r.EmployeeID) ||
			(actor.Role == RoleManager && actor.ID == r.ManagerID) {
			return nil
		}
	}
	return leaveerrors.ErrUnauthorized
}
