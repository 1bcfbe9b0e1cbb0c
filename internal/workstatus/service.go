package workstatus

import (
	"context"
	"errors"
	"time"
)

var (
	ErrWorkItemNotFound = errors.New("work item not found")
	ErrInvalidInput     = errors.New("invalid input")
)

type Service interface {
	List(ctx context.Context) ([]WorkItem, error)
	Create(ctx context.Context, item *WorkItem) (*WorkItem, error)
	Update(ctx context.Context, id int, status Status, completedDate *time.Time) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) List(ctx context.Context) ([]WorkItem, error) {
	return s.repo.List(ctx)
}

func (s *service) Create(ctx context.Context, item *WorkItem) (*WorkItem, error) {
	if item.Task == "" || item.Deadline.IsZero() {
		return nil, ErrInvalidInput
	}
	if item.Status == "" {
		item.Status = StatusPending
	}
	return s.repo.Create(ctx, item)
}

func (s *service) Update(ctx context.Context, id int, status Status, completedDate *time.Time) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.UpdateStatus(ctx, id, status, completedDate)
}
