package student_test

import (
	"context"
	"testing"

	"registry-service/internal/metrics"
	"registry-service/internal/schema"
	"registry-service/internal/student"
	"registry-service/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T, pg *testdb.PostgresContainer) (student.Service, schema.Service) {
	t.Helper()

	testdb.DropTables(t, pg.DB, "students", "column_registry")
	pg.RunMigrations(t, (*schema.ColumnDefinition)(nil))

	studentRepo := student.NewRepository(pg.DB)
	require.NoError(t, studentRepo.EnsureSchema(context.Background()))

	schemaService := schema.NewService(schema.NewRepository(pg.DB, metrics.NewMock()))
	studentService := student.NewService(studentRepo, schemaService)

	return studentService, schemaService
}

func TestStudentService(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	ctx := context.Background()

	t.Run("Upsert_CreatesWithoutEmptyValues", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		result, err := students.Upsert(ctx, map[string]string{
			"studentId": "S1",
			"name":      "Alice",
			"class":     "",
			"section":   " ",
		})
		require.NoError(t, err)
		assert.Equal(t, student.ResultCreated, result)

		records, err := students.Find(ctx, nil)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "S1", records[0]["studentId"])
		assert.Equal(t, "Alice", records[0]["name"])
		assert.Nil(t, records[0]["class"])
		assert.Nil(t, records[0]["section"])
	})

	t.Run("Upsert_MissingStudentID", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		_, err := students.Upsert(ctx, map[string]string{"name": "Alice"})
		assert.ErrorIs(t, err, student.ErrMissingStudentID)

		_, err = students.Upsert(ctx, map[string]string{"studentId": "  "})
		assert.ErrorIs(t, err, student.ErrMissingStudentID)
	})

	t.Run("Upsert_UnknownAttribute", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		_, err := students.Upsert(ctx, map[string]string{
			"studentId": "S1",
			"ghost":     "value",
		})
		assert.ErrorIs(t, err, student.ErrUnknownAttribute)
	})

	t.Run("Upsert_BlanksNeverOverwrite", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		_, err := students.Upsert(ctx, map[string]string{
			"studentId": "S1",
			"name":      "Alice",
			"class":     "Class 10A",
		})
		require.NoError(t, err)

		result, err := students.Upsert(ctx, map[string]string{
			"studentId": "S1",
			"name":      "",
			"class":     "Class 10B",
		})
		require.NoError(t, err)
		assert.Equal(t, student.ResultUpdated, result)

		records, err := students.Find(ctx, nil)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Alice", records[0]["name"])
		assert.Equal(t, "Class 10B", records[0]["class"])
	})

	t.Run("Upsert_LastWriteWins", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		for _, name := range []string{"First", "Second", "Third"} {
			_, err := students.Upsert(ctx, map[string]string{
				"studentId": "S1",
				"name":      name,
			})
			require.NoError(t, err)
		}

		records, err := students.Find(ctx, nil)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Third", records[0]["name"])
	})

	t.Run("Find_SubstringCaseInsensitive", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		_, err := students.Upsert(ctx, map[string]string{
			"studentId": "S1",
			"name":      "Alice",
			"class":     "Class 10A",
		})
		require.NoError(t, err)

		records, err := students.Find(ctx, map[string]string{"class": "10a"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "S1", records[0]["studentId"])
	})

	t.Run("Find_FiltersCombineWithAND", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		seed := []map[string]string{
			{"studentId": "S1", "name": "Alice", "class": "10A", "section": "B"},
			{"studentId": "S2", "name": "Bob", "class": "10A", "section": "C"},
			{"studentId": "S3", "name": "Carol", "class": "11A", "section": "B"},
		}
		for _, fields := range seed {
			_, err := students.Upsert(ctx, fields)
			require.NoError(t, err)
		}

		records, err := students.Find(ctx, map[string]string{"class": "10a", "section": "b"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "S1", records[0]["studentId"])
	})

	t.Run("Find_EmptyFilterValuesIgnored", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		for _, id := range []string{"S1", "S2"} {
			_, err := students.Upsert(ctx, map[string]string{"studentId": id})
			require.NoError(t, err)
		}

		records, err := students.Find(ctx, map[string]string{"class": ""})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Find_UnknownFilterKeyRejected", func(t *testing.T) {
		students, _ := setupTest(t, pg)

		_, err := students.Find(ctx, map[string]string{"ghost": "x"})
		assert.ErrorIs(t, err, student.ErrUnknownAttribute)
	})

	t.Run("DynamicAttribute_RoundTrip", func(t *testing.T) {
		students, registry := setupTest(t, pg)

		_, err := registry.AddColumn(ctx, "grade")
		require.NoError(t, err)

		_, err = students.Upsert(ctx, map[string]string{
			"studentId": "S1",
			"grade":     "A+",
		})
		require.NoError(t, err)

		records, err := students.Find(ctx, map[string]string{"grade": "a+"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "A+", records[0]["grade"])
	})
}
