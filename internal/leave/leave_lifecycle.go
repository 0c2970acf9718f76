package leave

import (
	"context"
	"fmt"
	"time"

	leaveerrors "go-leave/internal/leave/errors"

	"github.com/google/uuid"
)

// Clock supplies the current instant. The lifecycle never reads the wall
// clock on its own.
type Clock func() time.Time

type ApplyInput struct {
	EmployeeID string
	ManagerID  string
	StartDate  time.Time
	EndDate    time.Time
	LeaveType  LeaveType
	Reason     string
	Comment    string
}

// UpdateInput carries the fields being changed; nil means unchanged.
type UpdateInput struct {
	StartDate *time.Time
	EndDate   *time.Time
	LeaveType *LeaveType
	Reason    *string
	Comment   *string
}

// TxHook runs inside the store transaction right after a request is written.
// An error rolls the whole operation back.
type TxHook func(ctx context.Context, tx StoreTx, action Action, actor Actor, r LeaveRequest) error

// Lifecycle applies the leave state machine on top of a Store. Checks run in
// the order: existence, authorization, source status, required fields, leave
// type, date range, overlap. A failed check leaves the store untouched.
type Lifecycle struct {
	store Store
	clock Clock
	newID func() uuid.UUID
	hook  TxHook
}

func NewLifecycle(store Store, clock Clock) *Lifecycle {
	return &Lifecycle{store: store, clock: clock, newID: uuid.New}
}

// WithTxHook returns a copy of l that calls hook after every write, inside
// the same store transaction.
func (l *Lifecycle) WithTxHook(hook TxHook) *Lifecycle {
	c := *l
	c.hook = hook
	return &c
}

func (l *Lifecycle) afterWrite(ctx context.Context, tx StoreTx, action Action, actor Actor, r LeaveRequest) error {
	if l.hook == nil {
		return nil
	}
	return l.hook(ctx, tx, action, actor, r)
}

func (l *Lifecycle) Apply(ctx context.Context, actor Actor, in ApplyInput) (LeaveRequest, error) {
	candidate := LeaveRequest{
		EmployeeID: in.EmployeeID,
		ManagerID:  in.ManagerID,
		StartDate:  DateOnly(in.StartDate),
		EndDate:    DateOnly(in.EndDate),
		LeaveType:  in.LeaveType,
		Reason:     in.Reason,
		Comment:    in.Comment,
		Status:     StatusPending,
	}
	if err := Authorize(actor, ActionApply, candidate); err != nil {
		return LeaveRequest{}, err
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.LeaveType == "" || in.Reason == "" || in.ManagerID == "" {
		return LeaveRequest{}, leaveerrors.ErrMissingRequiredField
	}
	if !in.LeaveType.Valid() {
		return LeaveRequest{}, leaveerrors.ErrInvalidLeaveType
	}
	days, err := BusinessDays(candidate.StartDate, candidate.EndDate)
	if err != nil {
		return LeaveRequest{}, err
	}
	candidate.NumberOfDays = days

	now := l.clock()
	err = l.store.Atomically(ctx, in.EmployeeID, func(tx StoreTx) error {
		existing, err := tx.ListByEmployee(ctx)
		if err != nil {
			return err
		}
		if conflict, ok := FindConflict(candidate.StartDate, candidate.EndDate, existing, uuid.Nil); ok {
			return conflictError(conflict)
		}

		candidate.ID = l.newID()
		candidate.CreatedAt = now.UTC()
		candidate.UpdatedAt = now.UTC()
		if err := tx.Insert(ctx, candidate); err != nil {
			return err
		}
		return l.afterWrite(ctx, tx, ActionApply, actor, candidate)
	})
	if err != nil {
		return LeaveRequest{}, err
	}
	return candidate, nil
}

func (l *Lifecycle) Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateInput) (LeaveRequest, error) {
	current, err := l.store.Get(ctx, id)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := Authorize(actor, ActionUpdate, current); err != nil {
		return LeaveRequest{}, err
	}
	if current.Status != StatusPending {
		return LeaveRequest{}, leaveerrors.ErrInvalidTransition
	}
	if (in.StartDate != nil && in.StartDate.IsZero()) ||
		(in.EndDate != nil && in.EndDate.IsZero()) ||
		(in.LeaveType != nil && *in.LeaveType == "") ||
		(in.Reason != nil && *in.Reason == "") {
		return LeaveRequest{}, leaveerrors.ErrMissingRequiredField
	}
	if in.LeaveType != nil && !in.LeaveType.Valid() {
		return LeaveRequest{}, leaveerrors.ErrInvalidLeaveType
	}

	now := l.clock()
	var updated LeaveRequest
	err = l.store.Atomically(ctx, current.EmployeeID, func(tx StoreTx) error {
		r, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != StatusPending {
			return leaveerrors.ErrInvalidTransition
		}

		if in.StartDate != nil {
			r.StartDate = DateOnly(*in.StartDate)
		}
		if in.EndDate != nil {
			r.EndDate = DateOnly(*in.EndDate)
		}
		if in.LeaveType != nil {
			r.LeaveType = *in.LeaveType
		}
		if in.Reason != nil {
			r.Reason = *in.Reason
		}
		if in.Comment != nil {
			r.Comment = *in.Comment
		}

		days, err := BusinessDays(r.StartDate, r.EndDate)
		if err != nil {
			return err
		}
		existing, err := tx.ListByEmployee(ctx)
		if err != nil {
			return err
		}
		if conflict, ok := FindConflict(r.StartDate, r.EndDate, existing, r.ID); ok {
			return conflictError(conflict)
		}

		r.NumberOfDays = days
		r.UpdatedAt = now.UTC()
		if err := tx.Save(ctx, r); err != nil {
			return err
		}
		if err := l.afterWrite(ctx, tx, ActionUpdate, actor, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return LeaveRequest{}, err
	}
	return updated, nil
}

func (l *Lifecycle) Approve(ctx context.Context, actor Actor, id uuid.UUID, comment string) (LeaveRequest, error) {
	return l.transition(ctx, actor, id, ActionApprove, StatusApproved, comment)
}

func (l *Lifecycle) Reject(ctx context.Context, actor Actor, id uuid.UUID, comment string) (LeaveRequest, error) {
	return l.transition(ctx, actor, id, ActionReject, StatusRejected, comment)
}

// Cancel withdraws a pending request, or an approved one whose first day is
// still ahead. Leave that has started is history and stays as it is.
func (l *Lifecycle) Cancel(ctx context.Context, actor Actor, id uuid.UUID, comment string) (LeaveRequest, error) {
	return l.transition(ctx, actor, id, ActionCancel, StatusCancelled, comment)
}

func (l *Lifecycle) transition(ctx context.Context, actor Actor, id uuid.UUID, action Action, target Status, comment string) (LeaveRequest, error) {
	current, err := l.store.Get(ctx, id)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err := Authorize(actor, action, current); err != nil {
		return LeaveRequest{}, err
	}

	now := l.clock()
	var updated LeaveRequest
	err = l.store.Atomically(ctx, current.EmployeeID, func(tx StoreTx) error {
		r, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(r.Status, target) {
			return leaveerrors.ErrInvalidTransition
		}
		if target == StatusCancelled && r.Status == StatusApproved && !IsStrictlyFuture(r.StartDate, now) {
			return leaveerrors.ErrInvalidTransition
		}

		r.Status = target
		r.Comment = comment
		r.UpdatedAt = now.UTC()
		if err := tx.Save(ctx, r); err != nil {
			return err
		}
		if err := l.afterWrite(ctx, tx, action, actor, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return LeaveRequest{}, err
	}
	return updated, nil
}

// conflictError keeps errors.Is(err, ErrOverlappingRequest) while naming the
// request that holds the dates.
func conflictError(conflict LeaveRequest) error {
	return fmt.Errorf("%w: held by %s (%s to %s)", leaveerrors.ErrOverlappingRequest,
		conflict.ID, FormatDate(conflict.StartDate), FormatDate(conflict.EndDate))
}
