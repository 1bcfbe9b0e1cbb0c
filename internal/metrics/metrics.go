package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	columnsAdded     metric.Int64Counter
	columnsRemoved   metric.Int64Counter
	studentsUpserted metric.Int64Counter
	studentsSearched metric.Int64Counter
	importsCompleted metric.Int64Counter
	importRowsFailed metric.Int64Counter
	workItemsCreated metric.Int64Counter
	workItemsUpdated metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.columnsAdded, err = meter.Int64Counter(
		"registry_service.columns.added",
		metric.WithDescription("Total number of dynamic columns registered"),
		metric.WithUnit("{column}"),
	)
	if err != nil {
		return nil, err
	}

	m.columnsRemoved, err = meter.Int64Counter(
		"registry_service.columns.removed",
		metric.WithDescription("Total number of dynamic columns dropped"),
		metric.WithUnit("{column}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsUpserted, err = meter.Int64Counter(
		"registry_service.students.upserted",
		metric.WithDescription("Total number of student records inserted or updated"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsSearched, err = meter.Int64Counter(
		"registry_service.students.searched",
		metric.WithDescription("Total number of student list queries served"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	m.importsCompleted, err = meter.Int64Counter(
		"registry_service.imports.completed",
		metric.WithDescription("Total number of spreadsheet imports completed"),
		metric.WithUnit("{import}"),
	)
	if err != nil {
		return nil, err
	}

	m.importRowsFailed, err = meter.Int64Counter(
		"registry_service.imports.rows_failed",
		metric.WithDescription("Total number of spreadsheet rows that failed to import"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	m.workItemsCreated, err = meter.Int64Counter(
		"registry_service.work_items.created",
		metric.WithDescription("Total number of work items created"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	m.workItemsUpdated, err = meter.Int64Counter(
		"registry_service.work_items.updated",
		metric.WithDescription("Total number of work items updated"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordColumnAdded(ctx context.Context) {
	if m != nil && m.columnsAdded != nil {
		m.columnsAdded.Add(ctx, 1)
	}
}

func (m *Metrics) RecordColumnRemoved(ctx context.Context) {
	if m != nil && m.columnsRemoved != nil {
		m.columnsRemoved.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentUpserted(ctx context.Context) {
	if m != nil && m.studentsUpserted != nil {
		m.studentsUpserted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentsSearched(ctx context.Context) {
	if m != nil && m.studentsSearched != nil {
		m.studentsSearched.Add(ctx, 1)
	}
}

func (m *Metrics) RecordImportCompleted(ctx context.Context) {
	if m != nil && m.importsCompleted != nil {
		m.importsCompleted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordImportRowsFailed(ctx context.Context, n int64) {
	if m != nil && m.importRowsFailed != nil && n > 0 {
		m.importRowsFailed.Add(ctx, n)
	}
}

func (m *Metrics) RecordWorkItemCreated(ctx context.Context) {
	if m != nil && m.workItemsCreated != nil {
		m.workItemsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordWorkItemUpdated(ctx context.Context) {
	if m != nil && m.workItemsUpdated != nil {
		m.workItemsUpdated.Add(ctx, 1)
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{}
}
