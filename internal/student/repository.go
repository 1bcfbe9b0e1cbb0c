package student

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Repository interface {
	EnsureSchema(ctx context.Context) error
	Find(ctx context.Context, filters map[string]string) ([]Record, error)
	Exists(ctx context.Context, studentID string) (bool, error)
	Insert(ctx context.Context, columns map[string]string) error
	Update(ctx context.Context, studentID string, columns map[string]string) error
}

type repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) Repository {
	return &repository{
		db: db,
	}
}

// EnsureSchema creates the students table. The table cannot be expressed
// as a bun model because its column set is widened at runtime.
func (r *repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS students (
			id BIGSERIAL PRIMARY KEY,
			student_id TEXT UNIQUE NOT NULL,
			name TEXT,
			class TEXT,
			section TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Find returns students matching every filter with case-insensitive
// substring containment. Filter keys are database column names, validated
// by the caller against the registry.
func (r *repository) Find(ctx context.Context, filters map[string]string) ([]Record, error) {
	q := r.db.NewSelect().
		Table("students").
		OrderExpr("id ASC")

	for _, col := range sortedKeys(filters) {
		q = q.Where("? ILIKE ?", bun.Ident(col), "%"+filters[col]+"%")
	}

	var rows []map[string]interface{}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

func (r *repository) Exists(ctx context.Context, studentID string) (bool, error) {
	return r.db.NewSelect().
		Table("students").
		Where("student_id = ?", studentID).
		Exists(ctx)
}

// Insert writes a new row using only the supplied columns; everything else
// stays NULL.
func (r *repository) Insert(ctx context.Context, columns map[string]string) error {
	names := sortedKeys(columns)

	var sb strings.Builder
	args := make([]interface{}, 0, 2*len(names))

	sb.WriteString("INSERT INTO students (")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, bun.Ident(name))
	}
	sb.WriteString(") VALUES (")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args = append(args, columns[name])
	}
	sb.WriteString(")")

	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// Update overwrites only the supplied columns of an existing row; the
// business key itself is never touched.
func (r *repository) Update(ctx context.Context, studentID string, columns map[string]string) error {
	names := sortedKeys(columns)
	if len(names) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, 2*len(names)+1)

	sb.WriteString("UPDATE students SET ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("? = ?")
		args = append(args, bun.Ident(name), columns[name])
	}
	sb.WriteString(" WHERE student_id = ?")
	args = append(args, studentID)

	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

// toRecord converts a raw row to the API shape: internal bookkeeping
// columns dropped, the business key exposed as studentId.
func toRecord(row map[string]interface{}) Record {
	record := make(Record, len(row))
	for col, val := range row {
		switch col {
		case "id", "created_at":
			continue
		case "student_id":
			col = "studentId"
		}
		record[col] = normalizeValue(val)
	}
	return record
}

func normalizeValue(val interface{}) interface{} {
	switch v := val.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return val
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
