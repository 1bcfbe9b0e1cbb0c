package importer_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"registry-service/internal/importer"
	"registry-service/internal/metrics"
	"registry-service/internal/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, sheet io.Reader) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "students.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, sheet)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	pg := testdb.SetupSharedPostgres(t)
	defer pg.Cleanup(t)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	newRouter := func(t *testing.T) chi.Router {
		svc, _, _ := setupTest(t, pg)
		handler := importer.NewHandler(svc, 10<<20, logger, metrics.NewMock())
		router := chi.NewRouter()
		handler.RegisterRoutes(router)
		return router
	}

	t.Run("Upload_Success", func(t *testing.T) {
		router := newRouter(t)

		sheet := buildSheet(t, [][]interface{}{
			{"studentId", "name", "grade"},
			{"S1", "Alice", "A"},
			{"S2", "Bob", ""},
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, sheet))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, float64(2), response["recordsProcessed"])
		assert.Equal(t, float64(0), response["recordsFailed"])
		assert.Equal(t, []interface{}{"grade"}, response["newColumnsAdded"])
	})

	t.Run("Upload_MissingFile", func(t *testing.T) {
		router := newRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(nil))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Upload_EmptySpreadsheet", func(t *testing.T) {
		router := newRouter(t)

		sheet := buildSheet(t, [][]interface{}{
			{"studentId", "name"},
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, sheet))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Upload_GarbagePayload", func(t *testing.T) {
		router := newRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, uploadRequest(t, bytes.NewReader([]byte("garbage"))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
