package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service interface {
	Apply(ctx context.Context, actor Actor, req ApplyLeaveRequest) (LeaveResponse, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error)
	Reject(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error)
	Cancel(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (LeaveResponse, error)
	ListMine(ctx context.Context, actor Actor, status string) ([]LeaveResponse, error)
	ListManaged(ctx context.Context, actor Actor, status string) ([]LeaveResponse, error)
	Summary(ctx context.Context, actor Actor, scope SummaryScope) (StatusCounts, error)
}

type service struct {
	store      Store
	lifecycle  *Lifecycle
	clock      Clock
	outbox     kafka.OutboxRepository
	outboxInTx bool // events are written inside the leave transaction
	sf         *singleflight.Group
	logger     *zap.Logger
}

// sqlTxStore is implemented by stores whose StoreTx values implement
// SQLTxProvider.
type sqlTxStore interface {
	joinsSQLTx()
}

func NewService(store Store, clock Clock, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(store, clock, nil, logger...)
}

// NewServiceWithOutbox queues a lifecycle event in the outbox for every
// transition. With the postgres store the event is written in the same
// transaction as the leave request, so a failed write rolls both back. Other
// stores get the event right after commit. A nil outbox disables events.
func NewServiceWithOutbox(store Store, clock Clock, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if clock == nil {
		clock = time.Now
	}
	s := &service{
		store:     store,
		lifecycle: NewLifecycle(store, clock),
		clock:     clock,
		outbox:    outbox,
		sf:        &singleflight.Group{},
		logger:    l,
	}
	if _, ok := store.(sqlTxStore); ok && outbox != nil {
		s.outboxInTx = true
		s.lifecycle = s.lifecycle.WithTxHook(s.recordInTx)
	}
	return s
}

func (s *service) Apply(ctx context.Context, actor Actor, req ApplyLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("apply leave requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actor.ID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	startDate, err := ParseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := ParseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	l, err := s.lifecycle.Apply(ctx, actor, ApplyInput{
		EmployeeID: req.EmployeeID,
		ManagerID:  req.ManagerID,
		StartDate:  startDate,
		EndDate:    endDate,
		LeaveType:  LeaveType(req.LeaveType),
		Reason:     req.Reason,
		Comment:    req.Comment,
	})
	if err != nil {
		s.logFailure(ctx, "apply leave failed", err, zap.String("employee_id", req.EmployeeID))
		return LeaveResponse{}, err
	}

	s.logger.Info("apply leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", l.EmployeeID),
		zap.Int("number_of_days", l.NumberOfDays),
	)
	s.enqueue(ctx, ActionApply, actor, l)
	return mapToResponse(l), nil
}

func (s *service) Update(ctx context.Context, actor Actor, id string, req UpdateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("update leave requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("leave_id", id),
		zap.String("actor_id", actor.ID),
	)

	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}
	in, err := toUpdateInput(req)
	if err != nil {
		return LeaveResponse{}, err
	}

	l, err := s.lifecycle.Update(ctx, actor, leaveID, in)
	if err != nil {
		s.logFailure(ctx, "update leave failed", err, zap.String("leave_id", id))
		return LeaveResponse{}, err
	}

	s.logger.Info("update leave success",
		zap.String("leave_id", id),
		zap.Int("number_of_days", l.NumberOfDays),
	)
	s.enqueue(ctx, ActionUpdate, actor, l)
	return mapToResponse(l), nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error) {
	return s.transition(ctx, actor, id, comment, ActionApprove)
}

func (s *service) Reject(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error) {
	return s.transition(ctx, actor, id, comment, ActionReject)
}

func (s *service) Cancel(ctx context.Context, actor Actor, id, comment string) (LeaveResponse, error) {
	return s.transition(ctx, actor, id, comment, ActionCancel)
}

func (s *service) transition(ctx context.Context, actor Actor, id, comment string, action Action) (LeaveResponse, error) {
	s.logger.Debug("transition leave requested",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("leave_id", id),
		zap.String("actor_id", actor.ID),
		zap.String("action", string(action)),
	)

	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}

	var l LeaveRequest
	switch action {
	case ActionApprove:
		l, err = s.lifecycle.Approve(ctx, actor, leaveID, comment)
	case ActionReject:
		l, err = s.lifecycle.Reject(ctx, actor, leaveID, comment)
	default:
		l, err = s.lifecycle.Cancel(ctx, actor, leaveID, comment)
	}
	if err != nil {
		s.logFailure(ctx, "transition leave failed", err,
			zap.String("leave_id", id),
			zap.String("action", string(action)),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("transition leave success",
		zap.String("leave_id", id),
		zap.String("status", string(l.Status)),
	)
	s.enqueue(ctx, action, actor, l)
	return mapToResponse(l), nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, id string) (LeaveResponse, error) {
	leaveID, err := parseLeaveID(id)
	if err != nil {
		return LeaveResponse{}, err
	}
	l, err := s.store.Get(ctx, leaveID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := Authorize(actor, ActionRead, l); err != nil {
		return LeaveResponse{}, err
	}
	return mapToResponse(l), nil
}

func (s *service) ListMine(ctx context.Context, actor Actor, status string) ([]LeaveResponse, error) {
	return s.list(ctx, actor, ScopeMine, status)
}

func (s *service) ListManaged(ctx context.Context, actor Actor, status string) ([]LeaveResponse, error) {
	return s.list(ctx, actor, ScopeManaged, status)
}

func (s *service) list(ctx context.Context, actor Actor, scope SummaryScope, status string) ([]LeaveResponse, error) {
	filter, err := ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	leaves, err := s.load(ctx, actor, scope)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(FilterByStatus(leaves, filter)), nil
}

// Summary recomputes the counts from the store on every call. Concurrent
// calls for the same actor, role and scope share one store read; each caller
// still returns as soon as its own ctx is done.
func (s *service) Summary(ctx context.Context, actor Actor, scope SummaryScope) (StatusCounts, error) {
	key := fmt.Sprintf("leave:summary:%s:%s:%s", scope, actor.Role, actor.ID)
	loadCtx := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		leaves, err := s.load(loadCtx, actor, scope)
		if err != nil {
			return nil, err
		}
		return CountsByStatus(leaves), nil
	})

	select {
	case <-ctx.Done():
		return StatusCounts{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return StatusCounts{}, res.Err
		}
		return res.Val.(StatusCounts), nil
	}
}

// load returns the actor's own requests or the requests assigned to the
// actor as manager.
func (s *service) load(ctx context.Context, actor Actor, scope SummaryScope) ([]LeaveRequest, error) {
	if actor.ID == "" {
		return nil, leaveerrors.ErrUnauthorized
	}
	switch {
	case scope == ScopeMine && actor.Role == RoleEmployee:
		return s.store.ListByEmployee(ctx, actor.ID)
	case scope == ScopeManaged && actor.Role == RoleManager:
		return s.store.ListByManager(ctx, actor.ID)
	default:
		return nil, leaveerrors.ErrUnauthorized
	}
}

// enqueue queues the event after commit for stores that cannot carry the
// outbox write in their own transaction. Failures are logged only.
func (s *service) enqueue(ctx context.Context, action Action, actor Actor, l LeaveRequest) {
	if s.outbox == nil || s.outboxInTx {
		return
	}
	event, err := s.outboxEvent(ctx, action, actor, l)
	if err != nil {
		s.logger.Error("marshal leave event failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("request_id", event.RequestID),
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("leave outbox queued",
		zap.String("leave_id", l.ID.String()),
		zap.String("event_type", event.EventType),
	)
}

// recordInTx writes the event through the leave transaction.
func (s *service) recordInTx(ctx context.Context, tx StoreTx, action Action, actor Actor, l LeaveRequest) error {
	provider, ok := tx.(SQLTxProvider)
	if !ok {
		return fmt.Errorf("leave service: %T cannot carry outbox writes", tx)
	}
	sqlTx, err := provider.SQLTx()
	if err != nil {
		return err
	}
	event, err := s.outboxEvent(ctx, action, actor, l)
	if err != nil {
		return fmt.Errorf("leave service: marshal event: %w", err)
	}
	if err := s.outbox.WithTx(sqlTx).Create(ctx, event); err != nil {
		return fmt.Errorf("leave service: queue %s: %w", event.EventType, err)
	}
	return nil
}

func (s *service) outboxEvent(ctx context.Context, action Action, actor Actor, l LeaveRequest) (kafka.OutboxEvent, error) {
	rid := contextutil.GetRequestID(ctx)
	eventType := eventTypeFor(action)
	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventType:    eventType,
		RequestID:    rid,
		LeaveID:      l.ID.String(),
		EmployeeID:   l.EmployeeID,
		ManagerID:    l.ManagerID,
		ActorID:      actor.ID,
		Status:       string(l.Status),
		LeaveType:    string(l.LeaveType),
		StartDate:    FormatDate(l.StartDate),
		EndDate:      FormatDate(l.EndDate),
		NumberOfDays: l.NumberOfDays,
		Comment:      l.Comment,
		OccurredAt:   s.clock().UTC(),
	})
	if err != nil {
		return kafka.OutboxEvent{}, err
	}
	return kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}, nil
}

func eventTypeFor(action Action) string {
	switch action {
	case ActionApply:
		return events.LeaveApplied
	case ActionUpdate:
		return events.LeaveUpdated
	case ActionApprove:
		return events.LeaveApproved
	case ActionReject:
		return events.LeaveRejected
	default:
		return events.LeaveCancelled
	}
}

// logFailure logs domain rejections at warn and store failures at error.
func (s *service) logFailure(ctx context.Context, msg string, err error, fields ...zap.Field) {
	log := contextutil.GetLogger(ctx, s.logger)
	fields = append(fields, zap.Error(err))
	if isDomainError(err) {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, fields...)
}

func parseLeaveID(id string) (uuid.UUID, error) {
	leaveID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, leaveerrors.ErrInvalidLeaveID
	}
	return leaveID, nil
}

func toUpdateInput(req UpdateLeaveRequest) (UpdateInput, error) {
	var in UpdateInput
	if req.StartDate != nil {
		d, err := ParseDate(*req.StartDate)
		if err != nil {
			return UpdateInput{}, err
		}
		in.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := ParseDate(*req.EndDate)
		if err != nil {
			return UpdateInput{}, err
		}
		in.EndDate = &d
	}
	if req.LeaveType != nil {
		t := LeaveType(*req.LeaveType)
		in.LeaveType = &t
	}
	in.Reason = req.Reason
	in.Comment = req.Comment
	return in, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	return LeaveResponse{
		ID:           l.ID.String(),
		EmployeeID:   l.EmployeeID,
		ManagerID:    l.ManagerID,
		LeaveType:    string(l.LeaveType),
		StartDate:    FormatDate(l.StartDate),
		EndDate:      FormatDate(l.EndDate),
		NumberOfDays: l.NumberOfDays,
		Reason:       l.Reason,
		Comment:      l.Comment,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}
