package leave_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	leaveMock "go-leave/internal/leave/mock"
	"go-leave/internal/messaging/kafka"
	kafkaMock "go-leave/internal/messaging/kafka/mock"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type serviceDeps struct {
	store   *leave.MemoryStore
	outbox  *kafkaMock.MockOutboxRepository
	service leave.Service
	now     time.Time
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)
	d := &serviceDeps{
		store:  leave.NewMemoryStore(),
		outbox: kafkaMock.NewMockOutboxRepository(ctrl),
		now:    time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	d.service = leave.NewServiceWithOutbox(d.store, func() time.Time { return d.now }, d.outbox, zap.NewNop())
	return d
}

func applyRequest() leave.ApplyLeaveRequest {
	return leave.ApplyLeaveRequest{
		EmployeeID: "E1",
		ManagerID:  "M1",
		LeaveType:  "CASUAL",
		StartDate:  "2024-03-04",
		EndDate:    "2024-03-08",
		Reason:     "trip",
	}
}

func decodeEvent(t *testing.T, e kafka.OutboxEvent) events.LeaveLifecycleEvent {
	t.Helper()
	var out events.LeaveLifecycleEvent
	require.NoError(t, json.Unmarshal(e.Payload, &out))
	return out
}

func TestLeaveService_Apply(t *testing.T) {
	d := setupServiceTest(t)
	ctx := contextutil.WithRequestID(context.Background(), "req-1")

	var queued kafka.OutboxEvent
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
			queued = e
			return nil
		})

	resp, err := d.service.Apply(ctx, employeeE1, applyRequest())
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, 5, resp.NumberOfDays)
	assert.Equal(t, "2024-03-04", resp.StartDate)
	assert.Equal(t, "2024-03-01T09:00:00Z", resp.CreatedAt)

	assert.Equal(t, events.LeaveLifecycleTopic, queued.Topic)
	assert.Equal(t, events.LeaveApplied, queued.EventType)
	assert.Equal(t, resp.ID, queued.AggregateID)
	assert.Equal(t, "req-1", queued.RequestID)
	assert.Equal(t, kafka.OutboxStatusPending, queued.Status)
	assert.NoError(t, kafka.ValidateOutboxEvent(queued))

	event := decodeEvent(t, queued)
	assert.Equal(t, "E1", event.ActorID)
	assert.Equal(t, "PENDING", event.Status)
	assert.Equal(t, d.now, event.OccurredAt)
}

func TestLeaveService_Apply_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *leave.ApplyLeaveRequest)
		want   error
	}{
		{"bad start date", func(r *leave.ApplyLeaveRequest) { r.StartDate = "03/04/2024" }, leaveerrors.ErrInvalidDateFormat},
		{"bad end date", func(r *leave.ApplyLeaveRequest) { r.EndDate = "2024-13-01" }, leaveerrors.ErrInvalidDateFormat},
		{"missing start", func(r *leave.ApplyLeaveRequest) { r.StartDate = "" }, leaveerrors.ErrMissingRequiredField},
		{"missing type", func(r *leave.ApplyLeaveRequest) { r.LeaveType = "" }, leaveerrors.ErrMissingRequiredField},
		{"reversed range", func(r *leave.ApplyLeaveRequest) { r.EndDate = "2024-03-01" }, leaveerrors.ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupServiceTest(t)
			req := applyRequest()
			tt.mutate(&req)

			// no outbox call is expected on failure
			_, err := d.service.Apply(context.Background(), employeeE1, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLeaveService_Apply_PostCommitOutboxFailureDoesNotFail(t *testing.T) {
	d := setupServiceTest(t)

	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	resp, err := d.service.Apply(context.Background(), employeeE1, applyRequest())
	require.NoError(t, err)

	stored, err := d.service.GetByID(context.Background(), employeeE1, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp, stored)
}

func TestLeaveService_Transitions(t *testing.T) {
	d := setupServiceTest(t)
	ctx := context.Background()

	var types []string
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
			types = append(types, e.EventType)
			return nil
		}).Times(4)

	created, err := d.service.Apply(ctx, employeeE1, applyRequest())
	require.NoError(t, err)

	end := "2024-03-05"
	updated, err := d.service.Update(ctx, employeeE1, created.ID, leave.UpdateLeaveRequest{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.NumberOfDays)

	approved, err := d.service.Approve(ctx, managerM1, created.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", approved.Status)

	cancelled, err := d.service.Cancel(ctx, employeeE1, created.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.Comment)

	assert.Equal(t, []string{events.LeaveApplied, events.LeaveUpdated, events.LeaveApproved, events.LeaveCancelled}, types)

	_, err = d.service.Reject(ctx, managerM1, created.ID, "late")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidTransition)
}

func TestLeaveService_InvalidID(t *testing.T) {
	d := setupServiceTest(t)
	ctx := context.Background()

	_, err := d.service.Approve(ctx, managerM1, "not-a-uuid", "")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	_, err = d.service.GetByID(ctx, managerM1, "nope")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	_, err = d.service.Update(ctx, employeeE1, "nope", leave.UpdateLeaveRequest{})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)

	_, err = d.service.GetByID(ctx, managerM1, uuid.NewString())
	assert.ErrorIs(t, err, leaveerrors.ErrNotFound)
}

func TestLeaveService_Update_BadDate(t *testing.T) {
	d := setupServiceTest(t)
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	created, err := d.service.Apply(context.Background(), employeeE1, applyRequest())
	require.NoError(t, err)

	bad := "tomorrow"
	_, err = d.service.Update(context.Background(), employeeE1, created.ID, leave.UpdateLeaveRequest{StartDate: &bad})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
}

func TestLeaveService_GetByID_Authorization(t *testing.T) {
	d := setupServiceTest(t)
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	ctx := context.Background()

	created, err := d.service.Apply(ctx, employeeE1, applyRequest())
	require.NoError(t, err)

	_, err = d.service.GetByID(ctx, managerM1, created.ID)
	assert.NoError(t, err)
	_, err = d.service.GetByID(ctx, managerM2, created.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrUnauthorized)
	_, err = d.service.GetByID(ctx, employeeE2, created.ID)
	assert.ErrorIs(t, err, leaveerrors.ErrUnauthorized)
}

func TestLeaveService_ListAndSummary(t *testing.T) {
	d := setupServiceTest(t)
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	ctx := context.Background()

	first, err := d.service.Apply(ctx, employeeE1, applyRequest())
	require.NoError(t, err)

	second := applyRequest()
	second.StartDate, second.EndDate = "2024-04-01", "2024-04-02"
	secondResp, err := d.service.Apply(ctx, employeeE1, second)
	require.NoError(t, err)

	third := applyRequest()
	third.EmployeeID = "E2"
	_, err = d.service.Apply(ctx, employeeE2, third)
	require.NoError(t, err)

	_, err = d.service.Approve(ctx, managerM1, first.ID, "ok")
	require.NoError(t, err)

	mine, err := d.service.ListMine(ctx, employeeE1, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, secondResp.ID, mine[0].ID)

	pendingOnly, err := d.service.ListMine(ctx, employeeE1, "pending")
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	assert.Equal(t, secondResp.ID, pendingOnly[0].ID)

	_, err = d.service.ListMine(ctx, employeeE1, "archived")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)

	inbox, err := d.service.ListManaged(ctx, managerM1, "ALL")
	require.NoError(t, err)
	assert.Len(t, inbox, 3)

	_, err = d.service.ListManaged(ctx, employeeE1, "")
	assert.ErrorIs(t, err, leaveerrors.ErrUnauthorized)
	_, err = d.service.ListMine(ctx, managerM1, "")
	assert.ErrorIs(t, err, leaveerrors.ErrUnauthorized)

	counts, err := d.service.Summary(ctx, managerM1, leave.ScopeManaged)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCounts{All: 3, Pending: 2, Approved: 1}, counts)

	counts, err = d.service.Summary(ctx, employeeE2, leave.ScopeMine)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCounts{All: 1, Pending: 1}, counts)

	_, err = d.service.Summary(ctx, managerM1, leave.ScopeMine)
	assert.ErrorIs(t, err, leaveerrors.ErrUnauthorized)
}

func TestLeaveService_StoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := leaveMock.NewMockStore(ctrl)
	svc := leave.NewService(store, func() time.Time { return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC) }, zap.NewNop())

	store.EXPECT().ListByEmployee(gomock.Any(), "E1").Return(nil, errors.New("connection refused"))
	store.EXPECT().Atomically(gomock.Any(), "E1", gomock.Any()).Return(errors.New("connection refused"))

	_, err := svc.Summary(context.Background(), employeeE1, leave.ScopeMine)
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInternalError, apperror.ToHTTP(err).Code)

	_, err = svc.Apply(context.Background(), employeeE1, applyRequest())
	require.Error(t, err)
	assert.Equal(t, 500, apperror.ToHTTP(err).Status)
}

// blockingStore holds ListByEmployee until release is closed.
type blockingStore struct {
	*leave.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	close(s.entered)
	<-s.release
	return s.MemoryStore.ListByEmployee(ctx, employeeID)
}

func TestLeaveService_Summary_ConcurrentCallers(t *testing.T) {
	mem := leave.NewMemoryStore()
	require.NoError(t, mem.Atomically(context.Background(), "X", func(tx leave.StoreTx) error {
		return tx.Insert(context.Background(), leave.LeaveRequest{
			ID:         uuid.New(),
			EmployeeID: "X",
			ManagerID:  "M1",
			StartDate:  date("2024-03-04"),
			EndDate:    date("2024-03-04"),
			Status:     leave.StatusPending,
		})
	}))
	store := &blockingStore{MemoryStore: mem, entered: make(chan struct{}), release: make(chan struct{})}
	svc := leave.NewService(store, nil, zap.NewNop())

	employeeX := leave.Actor{ID: "X", Role: leave.RoleEmployee}
	managerX := leave.Actor{ID: "X", Role: leave.RoleManager}

	type result struct {
		counts leave.StatusCounts
		err    error
	}
	first := make(chan result, 1)
	go func() {
		c, err := svc.Summary(context.Background(), employeeX, leave.ScopeMine)
		first <- result{c, err}
	}()
	<-store.entered

	// same id with another role is authorized on its own
	_, err := svc.Summary(context.Background(), managerX, leave.ScopeMine)
	assert.ErrorIs(t, err, leaveerrors.ErrUnauthorized)

	// a caller that gives up does not cancel the shared read
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Summary(ctx, employeeX, leave.ScopeMine)
	assert.ErrorIs(t, err, context.Canceled)

	close(store.release)
	got := <-first
	require.NoError(t, got.err)
	assert.Equal(t, leave.StatusCounts{All: 1, Pending: 1}, got.counts)
}

func setupTxOutboxService(t *testing.T) (leave.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	now := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc := leave.NewServiceWithOutbox(
		leave.NewRepository(gdb),
		func() time.Time { return now },
		kafka.NewOutboxRepository(db),
		zap.NewNop(),
	)
	return svc, mock
}

var outboxInsertSQL = regexp.QuoteMeta(`INSERT INTO outbox_events`)

func TestLeaveService_Apply_OutboxInLeaveTransaction(t *testing.T) {
	svc, mock := setupTxOutboxService(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("E1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectSQL + `.*WHERE employee_id = \$1`).
		WithArgs("E1").
		WillReturnRows(sqlmock.NewRows(leaveColumns))
	mock.ExpectExec(insertSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(outboxInsertSQL).
		WithArgs(sqlmock.AnyArg(), "", "leave_request", sqlmock.AnyArg(), events.LeaveApplied,
			events.LeaveLifecycleTopic, sqlmock.AnyArg(), kafka.OutboxStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.Apply(context.Background(), employeeE1, applyRequest())
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveService_Apply_OutboxFailureRollsBack(t *testing.T) {
	svc, mock := setupTxOutboxService(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("E1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectSQL).WillReturnRows(sqlmock.NewRows(leaveColumns))
	mock.ExpectExec(insertSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(outboxInsertSQL).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Apply(context.Background(), employeeE1, applyRequest())
	require.Error(t, err)
	assert.Equal(t, 500, apperror.ToHTTP(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
