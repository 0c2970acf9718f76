package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	leaveerrors "go-leave/internal/leave/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	overlapConstraint = "ex_leave_requests_no_overlap"

	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns a Store backed by PostgreSQL. Writers for one
// employee are serialized with a transaction-scoped advisory lock.
func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

// Migrate creates the table and the exclusion constraint that backs the
// no-overlap invariant at the database level.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&LeaveRequest{}); err != nil {
		return fmt.Errorf("leave migrate: %w", err)
	}
	return db.WithContext(ctx).Exec(`
CREATE EXTENSION IF NOT EXISTS btree_gist;
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '` + overlapConstraint + `') THEN
		ALTER TABLE leave_requests ADD CONSTRAINT ` + overlapConstraint + `
			EXCLUDE USING gist (employee_id WITH =, daterange(start_date, end_date, '[]') WITH &&)
			WHERE (status IN ('PENDING', 'APPROVED'));
	END IF;
END $$;`).Error
}

// joinsSQLTx marks stores whose transactions implement SQLTxProvider.
func (r *repository) joinsSQLTx() {}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return LeaveRequest{}, mapRepositoryError("get", err)
	}
	return l, nil
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	return listWhere(ctx, r.db, "employee_id = ?", employeeID)
}

func (r *repository) ListByManager(ctx context.Context, managerID string) ([]LeaveRequest, error) {
	return listWhere(ctx, r.db, "manager_id = ?", managerID)
}

func (r *repository) Atomically(ctx context.Context, employeeID string, fn func(tx StoreTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", employeeID).Error; err != nil {
			return fmt.Errorf("leave repository: lock employee %s: %w", employeeID, err)
		}
		return fn(&repositoryTx{db: tx, employeeID: employeeID})
	})
}

func listWhere(ctx context.Context, db *gorm.DB, query string, arg any) ([]LeaveRequest, error) {
	leaves := []LeaveRequest{}
	err := db.WithContext(ctx).
		Where(query, arg).
		Order("start_date DESC, created_at DESC").
		Find(&leaves).Error
	if err != nil {
		return nil, mapRepositoryError("list", err)
	}
	return leaves, nil
}

type repositoryTx struct {
	db         *gorm.DB
	employeeID string
}

func (t *repositoryTx) SQLTx() (*sql.Tx, error) {
	sqlTx, ok := t.db.Statement.ConnPool.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("leave repository: transaction pool is %T, not *sql.Tx", t.db.Statement.ConnPool)
	}
	return sqlTx, nil
}

func (t *repositoryTx) ListByEmployee(ctx context.Context) ([]LeaveRequest, error) {
	return listWhere(ctx, t.db, "employee_id = ?", t.employeeID)
}

func (t *repositoryTx) Get(ctx context.Context, id uuid.UUID) (LeaveRequest, error) {
	var l LeaveRequest
	err := t.db.WithContext(ctx).
		Where("employee_id = ?", t.employeeID).
		First(&l, "id = ?", id).Error
	if err != nil {
		return LeaveRequest{}, mapRepositoryError("get", err)
	}
	return l, nil
}

func (t *repositoryTx) Insert(ctx context.Context, l LeaveRequest) error {
	if err := t.db.WithContext(ctx).Create(&l).Error; err != nil {
		return mapRepositoryError("insert", err)
	}
	return nil
}

// Save writes the mutable columns only; employee_id and manager_id are never
// part of an update.
func (t *repositoryTx) Save(ctx context.Context, l LeaveRequest) error {
	res := t.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND employee_id = ?", l.ID, t.employeeID).
		Updates(map[string]any{
			"start_date":     l.StartDate,
			"end_date":       l.EndDate,
			"number_of_days": l.NumberOfDays,
			"leave_type":     l.LeaveType,
			"reason":         l.Reason,
			"status":         l.Status,
			"comment":        l.Comment,
			"updated_at":     l.UpdatedAt,
		})
	if res.Error != nil {
		return mapRepositoryError("save", res.Error)
	}
	if res.RowsAffected == 0 {
		return leaveerrors.ErrNotFound
	}
	return nil
}

func mapRepositoryError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == overlapConstraint:
			return leaveerrors.ErrOverlappingRequest
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("leave repository: %s: duplicate leave request: %w", op, err)
		}
	}
	return fmt.Errorf("leave repository: %s: %w", op, err)
}
