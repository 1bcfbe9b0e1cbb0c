package student_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"registry-service/internal/metrics"
	"registry-service/internal/student"
	"registry-service/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, pg *testdb.PostgresContainer) chi.Router {
	t.Helper()

	students, _ := setupTest(t, pg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	handler := student.NewHandler(students, logger, metrics.NewMock())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func postStudent(t *testing.T, router chi.Router, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/students", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStudentHandler(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	t.Run("Upsert_CreateThenUpdate", func(t *testing.T) {
		router := newRouter(t, pg)

		w := postStudent(t, router, map[string]interface{}{
			"studentId": "S1",
			"name":      "Alice",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		w = postStudent(t, router, map[string]interface{}{
			"studentId": "S1",
			"class":     "10A",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "updated", response["result"])
	})

	t.Run("Upsert_NullValuesExcluded", func(t *testing.T) {
		router := newRouter(t, pg)

		w := postStudent(t, router, map[string]interface{}{
			"studentId": "S1",
			"name":      "Alice",
			"class":     nil,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Upsert_MissingStudentID", func(t *testing.T) {
		router := newRouter(t, pg)

		w := postStudent(t, router, map[string]interface{}{"name": "Alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Find_DataAndCount", func(t *testing.T) {
		router := newRouter(t, pg)

		require.Equal(t, http.StatusCreated, postStudent(t, router, map[string]interface{}{
			"studentId": "S1", "name": "Alice", "class": "Class 10A",
		}).Code)
		require.Equal(t, http.StatusCreated, postStudent(t, router, map[string]interface{}{
			"studentId": "S2", "name": "Bob", "class": "Class 11B",
		}).Code)

		req := httptest.NewRequest(http.MethodGet, "/students?class=10a", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data  []map[string]interface{} `json:"data"`
			Count int                      `json:"count"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
		require.Len(t, response.Data, 1)
		assert.Equal(t, "S1", response.Data[0]["studentId"])
	})

	t.Run("Find_UnknownFilterKeyRejected", func(t *testing.T) {
		router := newRouter(t, pg)

		req := httptest.NewRequest(http.MethodGet, "/students?ghost=x", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
