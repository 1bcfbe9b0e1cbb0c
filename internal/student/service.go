package student

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"registry-service/internal/schema"
)

var (
	ErrMissingStudentID = errors.New("studentId is required")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

type Service interface {
	// Find returns all students matching the supplied filters. Filter keys
	// must name currently-valid attributes; empty values are ignored.
	Find(ctx context.Context, filters map[string]string) ([]Record, error)
	// Upsert inserts or updates a record keyed by studentId, writing only
	// non-empty fields. Last write wins.
	Upsert(ctx context.Context, fields map[string]string) (UpsertResult, error)
}

type service struct {
	repo     Repository
	registry schema.Service
}

func NewService(repo Repository, registry schema.Service) Service {
	return &service{
		repo:     repo,
		registry: registry,
	}
}

func (s *service) Find(ctx context.Context, filters map[string]string) ([]Record, error) {
	attrs, err := s.registry.ValidAttributes(ctx)
	if err != nil {
		return nil, err
	}

	columnFilters := make(map[string]string, len(filters))
	for key, value := range filters {
		if strings.TrimSpace(value) == "" {
			continue
		}
		col, ok := attrs[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, key)
		}
		columnFilters[col] = value
	}

	return s.repo.Find(ctx, columnFilters)
}

func (s *service) Upsert(ctx context.Context, fields map[string]string) (UpsertResult, error) {
	studentID := strings.TrimSpace(fields["studentId"])
	if studentID == "" {
		return "", ErrMissingStudentID
	}

	attrs, err := s.registry.ValidAttributes(ctx)
	if err != nil {
		return "", err
	}

	// Empty values are excluded outright: they never overwrite existing
	// data and never block a partial insert.
	columns := make(map[string]string, len(fields))
	for key, value := range fields {
		if key == "studentId" {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		col, ok := attrs[key]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, key)
		}
		columns[col] = value
	}

	exists, err := s.repo.Exists(ctx, studentID)
	if err != nil {
		return "", err
	}

	if exists {
		if err := s.repo.Update(ctx, studentID, columns); err != nil {
			return "", err
		}
		return ResultUpdated, nil
	}

	columns["student_id"] = studentID
	if err := s.repo.Insert(ctx, columns); err != nil {
		return "", err
	}
	return ResultCreated, nil
}
