package workstatus

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type Repository interface {
	List(ctx context.Context) ([]WorkItem, error)
	Create(ctx context.Context, item *WorkItem) (*WorkItem, error)
	UpdateStatus(ctx context.Context, id int, status Status, completedDate *time.Time) error
}

type repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &repository{
		db: db,
	}
}

// List returns work items by ascending deadline; insertion order breaks
// ties so the ordering is stable.
func (r *repository) List(ctx context.Context) ([]WorkItem, error) {
	var items []WorkItem
	err := r.db.NewSelect().
		Model(&items).
		Order("deadline ASC", "id ASC").
		Scan(ctx)
	return items, err
}

func (r *repository) Create(ctx context.Context, item *WorkItem) (*WorkItem, error) {
	_, err := r.db.NewInsert().Model(item).Returning("*").Exec(ctx)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, status Status, completedDate *time.Time) error {
	q := r.db.NewUpdate().
		Model((*WorkItem)(nil)).
		Set("status = ?", status).
		Where("id = ?", id)
	if completedDate != nil {
		q = q.Set("completed_date = ?", completedDate)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrWorkItemNotFound
	}
	return nil
}
