package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"registry-service/internal/metrics"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Repository interface {
	List(ctx context.Context) ([]ColumnDefinition, error)
	Create(ctx context.Context, name, dataType string) (*ColumnDefinition, error)
	Delete(ctx context.Context, name string) error
	LiveStudentColumns(ctx context.Context) (map[string]bool, error)
	ReconcileStudentColumns(ctx context.Context) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

// List returns all registered dynamic columns in registration order.
func (r *repository) List(ctx context.Context) ([]ColumnDefinition, error) {
	var defs []ColumnDefinition
	err := r.db.NewSelect().
		Model(&defs).
		Order("id ASC").
		Scan(ctx)
	return defs, err
}

// Create records the definition and widens the students table in one
// transaction, so a registered column is always queryable.
func (r *repository) Create(ctx context.Context, name, dataType string) (*ColumnDefinition, error) {
	def := &ColumnDefinition{
		ColumnName: name,
		DataType:   dataType,
		CreatedAt:  time.Now(),
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(def).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return ErrColumnExists
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"ALTER TABLE students ADD COLUMN IF NOT EXISTS ? ?",
			bun.Ident(name), bun.Safe(dataType),
		); err != nil {
			return fmt.Errorf("failed to widen students table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return def, nil
}

// Delete removes the definition and drops the column from every student
// record. The data loss is intentional.
func (r *repository) Delete(ctx context.Context, name string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*ColumnDefinition)(nil)).
			Where("column_name = ?", name).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrColumnNotFound
		}
		if _, err := tx.ExecContext(ctx,
			"ALTER TABLE students DROP COLUMN IF EXISTS ?",
			bun.Ident(name),
		); err != nil {
			return fmt.Errorf("failed to drop student column: %w", err)
		}
		return nil
	})
}

// LiveStudentColumns reports the columns that actually exist on the
// students table, used as a drift guard before registering a new one.
func (r *repository) LiveStudentColumns(ctx context.Context) (map[string]bool, error) {
	var names []string
	err := r.db.NewSelect().
		TableExpr("information_schema.columns").
		Column("column_name").
		Where("table_name = ?", "students").
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}

	live := make(map[string]bool, len(names))
	for _, name := range names {
		live[name] = true
	}
	return live, nil
}

// ReconcileStudentColumns re-adds registry columns missing from the
// students table. Run at startup so the registry stays authoritative.
func (r *repository) ReconcileStudentColumns(ctx context.Context) error {
	defs, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if _, err := r.db.ExecContext(ctx,
			"ALTER TABLE students ADD COLUMN IF NOT EXISTS ? ?",
			bun.Ident(def.ColumnName), bun.Safe(def.DataType),
		); err != nil {
			return fmt.Errorf("failed to reconcile column %q: %w", def.ColumnName, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation,
// which makes the add-column race benign instead of a spurious 500.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return false
}
