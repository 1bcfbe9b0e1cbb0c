package workstatus_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"registry-service/internal/metrics"
	"registry-service/internal/testdb"
	"registry-service/internal/workstatus"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T, pg *testdb.PostgresContainer) chi.Router {
	t.Helper()

	pg.RunMigrations(t, (*workstatus.WorkItem)(nil))
	testdb.CleanupTables(t, pg.DB, "work_status")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	service := workstatus.NewService(workstatus.NewRepository(pg.DB))
	handler := workstatus.NewHandler(service, logger, metrics.NewMock())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router chi.Router, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func putJSON(t *testing.T, router chi.Router, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func listItems(t *testing.T, router chi.Router) []workstatus.WorkItem {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/work-status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		WorkStatus []workstatus.WorkItem `json:"workStatus"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response.WorkStatus
}

func TestWorkStatusHandler(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	t.Run("Create_DefaultsToPending", func(t *testing.T) {
		router := setupTest(t, pg)

		w := postJSON(t, router, "/work-status", workstatus.CreateRequest{
			Task:     "grade exams",
			Deadline: "2024-02-01",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		items := listItems(t, router)
		require.Len(t, items, 1)
		assert.Equal(t, workstatus.StatusPending, items[0].Status)
		assert.Equal(t, "grade exams", items[0].Task)
	})

	t.Run("Create_MissingDeadlineRejected", func(t *testing.T) {
		router := setupTest(t, pg)

		w := postJSON(t, router, "/work-status", workstatus.CreateRequest{Task: "no deadline"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Create_InvalidStatusRejected", func(t *testing.T) {
		router := setupTest(t, pg)

		w := postJSON(t, router, "/work-status", workstatus.CreateRequest{
			Task:     "task",
			Status:   "paused",
			Deadline: "2024-02-01",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("List_OrderedByDeadlineAscending", func(t *testing.T) {
		router := setupTest(t, pg)

		later := postJSON(t, router, "/work-status", workstatus.CreateRequest{
			Task:     "later",
			Deadline: "2024-01-05",
		})
		require.Equal(t, http.StatusCreated, later.Code)

		sooner := postJSON(t, router, "/work-status", workstatus.CreateRequest{
			Task:     "sooner",
			Deadline: "2024-01-02",
		})
		require.Equal(t, http.StatusCreated, sooner.Code)

		items := listItems(t, router)
		require.Len(t, items, 2)
		assert.Equal(t, "sooner", items[0].Task)
		assert.Equal(t, "later", items[1].Task)
	})

	t.Run("List_TiesBrokenByInsertionOrder", func(t *testing.T) {
		router := setupTest(t, pg)

		for _, task := range []string{"first", "second", "third"} {
			w := postJSON(t, router, "/work-status", workstatus.CreateRequest{
				Task:     task,
				Deadline: "2024-03-01",
			})
			require.Equal(t, http.StatusCreated, w.Code)
		}

		items := listItems(t, router)
		require.Len(t, items, 3)
		assert.Equal(t, "first", items[0].Task)
		assert.Equal(t, "second", items[1].Task)
		assert.Equal(t, "third", items[2].Task)
	})

	t.Run("Update_SetsStatusAndCompletedDate", func(t *testing.T) {
		router := setupTest(t, pg)

		created := postJSON(t, router, "/work-status", workstatus.CreateRequest{
			Task:     "task",
			Deadline: "2024-02-01",
		})
		require.Equal(t, http.StatusCreated, created.Code)

		var createdBody struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.NewDecoder(created.Body).Decode(&createdBody))

		w := putJSON(t, router, "/work-status/1", workstatus.UpdateRequest{
			Status:        "completed",
			CompletedDate: "2024-01-30",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		items := listItems(t, router)
		require.Len(t, items, 1)
		assert.Equal(t, workstatus.StatusCompleted, items[0].Status)
		require.NotNil(t, items[0].CompletedDate)
	})

	t.Run("Update_UnknownIDNotFound", func(t *testing.T) {
		router := setupTest(t, pg)

		w := putJSON(t, router, "/work-status/9999", workstatus.UpdateRequest{Status: "started"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Update_InvalidIDRejected", func(t *testing.T) {
		router := setupTest(t, pg)

		w := putJSON(t, router, "/work-status/abc", workstatus.UpdateRequest{Status: "started"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
