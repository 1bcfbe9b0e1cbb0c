package schema

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrColumnExists   = errors.New("column already exists")
	ErrColumnNotFound = errors.New("column not registered")
	ErrBaseColumn     = errors.New("base columns cannot be modified")
	ErrInvalidName    = errors.New("invalid column name")
)

const defaultDataType = "TEXT"

type Service interface {
	// ListColumns returns the four fixed attribute names followed by all
	// dynamic columns in registration order.
	ListColumns(ctx context.Context) ([]string, error)
	AddColumn(ctx context.Context, name string) (*ColumnDefinition, error)
	RemoveColumn(ctx context.Context, name string) error
	// EnsureColumn registers a column if absent, treating an existing
	// registration as a no-op. Reports whether the column was added.
	EnsureColumn(ctx context.Context, name string) (bool, error)
	// ValidAttributes maps every currently-valid attribute name to its
	// database column.
	ValidAttributes(ctx context.Context) (map[string]string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) ListColumns(ctx context.Context) ([]string, error) {
	defs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(BaseAttributes)+len(defs))
	columns = append(columns, BaseAttributes...)
	for _, def := range defs {
		columns = append(columns, def.ColumnName)
	}
	return columns, nil
}

func (s *service) AddColumn(ctx context.Context, name string) (*ColumnDefinition, error) {
	if !ValidColumnName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if IsBaseAttribute(name) {
		return nil, fmt.Errorf("%w: %q is a base column", ErrColumnExists, name)
	}

	// Drift guard: an unregistered column physically present on the table
	// would silently shadow the registration.
	live, err := s.repo.LiveStudentColumns(ctx)
	if err != nil {
		return nil, err
	}
	if live[name] {
		return nil, fmt.Errorf("%w: %q exists on the students table", ErrColumnExists, name)
	}

	return s.repo.Create(ctx, name, defaultDataType)
}

func (s *service) RemoveColumn(ctx context.Context, name string) error {
	if IsBaseAttribute(name) {
		return fmt.Errorf("%w: %q", ErrBaseColumn, name)
	}
	return s.repo.Delete(ctx, name)
}

func (s *service) EnsureColumn(ctx context.Context, name string) (bool, error) {
	_, err := s.AddColumn(ctx, name)
	if err != nil {
		if errors.Is(err, ErrColumnExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) ValidAttributes(ctx context.Context) (map[string]string, error) {
	defs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]string, len(baseAttributeColumns)+len(defs))
	for attr, col := range baseAttributeColumns {
		attrs[attr] = col
	}
	for _, def := range defs {
		attrs[def.ColumnName] = def.ColumnName
	}
	return attrs, nil
}
