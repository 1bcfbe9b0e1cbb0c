package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"registry-service/internal/schema"
	"registry-service/internal/student"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnparseable = errors.New("file is not a valid spreadsheet")
	ErrNoSheets    = errors.New("spreadsheet contains no sheets")
	ErrNoDataRows  = errors.New("spreadsheet contains no data rows")
	ErrBadHeader   = errors.New("header cannot be used as a column name")
)

// Result summarizes one import: per-row failures are tallied, never
// propagated, so a single bad row cannot abort a batch.
type Result struct {
	Processed  int      `json:"recordsProcessed"`
	Failed     int      `json:"recordsFailed"`
	NewColumns []string `json:"newColumnsAdded"`
}

// EventPublisher publishes import-completed events. Optional: a nil
// publisher disables eventing.
type EventPublisher interface {
	Publish(value interface{}) error
}

type ImportCompletedEvent struct {
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	NewColumns []string  `json:"newColumns"`
	Timestamp  time.Time `json:"timestamp"`
}

type Service struct {
	registry  schema.Service
	students  student.Service
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(registry schema.Service, students student.Service, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		registry:  registry,
		students:  students,
		publisher: publisher,
		logger:    logger,
	}
}

// Import parses the first sheet of an xlsx payload, registers any columns
// the registry does not know yet, and upserts one record per data row.
// Columns added here are never rolled back, even if every row fails.
func (s *Service) Import(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close spreadsheet", "error", err)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}

	// Row 1 is the schema template; cells beyond it are ignored.
	headers, err := parseHeaders(rows[0])
	if err != nil {
		return nil, err
	}

	newColumns, err := s.registerNewColumns(ctx, headers)
	if err != nil {
		return nil, err
	}

	result := &Result{NewColumns: newColumns}
	for i, row := range rows[1:] {
		fields := make(map[string]string, len(headers))
		for j, attr := range headers {
			if attr == "" {
				continue
			}
			var value string
			if j < len(row) {
				value = strings.TrimSpace(row[j])
			}
			if value != "" {
				fields[attr] = value
			}
		}

		if _, err := s.students.Upsert(ctx, fields); err != nil {
			s.logger.WarnContext(ctx, "skipping row", "row", i+2, "error", err)
			result.Failed++
			continue
		}
		result.Processed++
	}

	s.publishCompleted(ctx, result)

	return result, nil
}

// registerNewColumns adds headers the registry does not know. A concurrent
// registration of the same name is a benign no-op; any other error aborts
// the import before rows are touched.
func (s *Service) registerNewColumns(ctx context.Context, headers []string) ([]string, error) {
	known, err := s.registry.ListColumns(ctx)
	if err != nil {
		return nil, err
	}
	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}

	added := []string{}
	for _, attr := range headers {
		if attr == "" || knownSet[attr] {
			continue
		}
		knownSet[attr] = true

		created, err := s.registry.EnsureColumn(ctx, attr)
		if err != nil {
			return nil, fmt.Errorf("failed to register column %q: %w", attr, err)
		}
		if created {
			s.logger.InfoContext(ctx, "registered column from spreadsheet", "column", attr)
			added = append(added, attr)
		}
	}
	return added, nil
}

// parseHeaders maps header cells to attribute names. Blank headers mark
// columns to skip; anything else must sanitize into a valid column name.
func parseHeaders(row []string) ([]string, error) {
	headers := make([]string, len(row))
	for i, cell := range row {
		name := sanitizeHeader(cell)
		if name == "" {
			continue
		}
		if canonical, ok := baseAttribute(name); ok {
			headers[i] = canonical
			continue
		}
		if !schema.ValidColumnName(name) {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, cell)
		}
		headers[i] = name
	}
	return headers, nil
}

func sanitizeHeader(cell string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(cell)), "_")
}

func baseAttribute(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "studentid", "student_id":
		return "studentId", true
	case "name":
		return "name", true
	case "class":
		return "class", true
	case "section":
		return "section", true
	}
	return "", false
}

func (s *Service) publishCompleted(ctx context.Context, result *Result) {
	if s.publisher == nil {
		return
	}
	event := ImportCompletedEvent{
		Processed:  result.Processed,
		Failed:     result.Failed,
		NewColumns: result.NewColumns,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish import event", "error", err)
	}
}
