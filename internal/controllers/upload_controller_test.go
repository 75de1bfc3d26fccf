package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/upload"
)

func newUploadRouter(t *testing.T) (*gin.Engine, *UploadController) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC))
	mgr, err := upload.NewManager(upload.NewMemoryStore(clock), upload.Options{
		Dir:       t.TempDir(),
		ChunkSize: 4,
		MaxSize:   64,
		Clock:     clock,
	})
	require.NoError(t, err)
	ctrl := &UploadController{DB: database.OpenTestDB(t), Uploads: mgr, MediaBaseURL: "https://cdn.abic.ph/media/"}
	r := gin.New()
	r.POST("/upload/init", ctrl.Init)
	r.POST("/upload/chunk", ctrl.Chunk)
	r.POST("/upload/complete", ctrl.Complete)
	r.DELETE("/upload/:id", ctrl.Abort)
	r.GET("/media", ctrl.ListMedia)
	r.DELETE("/media/:id", ctrl.DeleteMedia)
	return r, ctrl
}

func sendChunk(t *testing.T, r http.Handler, id string, index int, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("upload_id", id))
	require.NoError(t, mw.WriteField("chunk_index", strconv.Itoa(index)))
	fw, err := mw.CreateFormFile("chunk", "blob")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/chunk", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func initUpload(t *testing.T, r http.Handler, name string, size int) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/upload/init", map[string]any{"file_name": name, "file_size": size, "content_type": "video/mp4"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	return body["upload_id"].(string)
}

func TestUpload_FullFlow(t *testing.T) {
	r, ctrl := newUploadRouter(t)
	id := initUpload(t, r, "../intro clip.mp4", 10)

	// out of order delivery is fine
	for _, idx := range []int{2, 0, 1} {
		part := []byte("0123456789")[idx*4 : min((idx+1)*4, 10)]
		w := sendChunk(t, r, id, idx, part)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/upload/complete", map[string]string{"upload_id": id})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "https://cdn.abic.ph/media/"+id+"-intro_clip.mp4", body["url"])
	assert.EqualValues(t, 10, body["size"])

	var asset models.MediaAsset
	require.NoError(t, ctrl.DB.First(&asset, "id = ?", body["media_id"]).Error)
	content, err := os.ReadFile(asset.Path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(content))

	data, _ := listData(t, doJSON(t, r, http.MethodGet, "/media?q=intro", nil))
	require.Len(t, data, 1)
	assert.Equal(t, "intro_clip.mp4", data[0]["file_name"])

	// the session is gone once completed
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPost, "/upload/complete", map[string]string{"upload_id": id}).Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/media/"+asset.ID, nil).Code)
	_, err = os.Stat(asset.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/media/"+asset.ID, nil).Code)
}

func TestUpload_Errors(t *testing.T) {
	r, _ := newUploadRouter(t)

	assert.Equal(t, http.StatusRequestEntityTooLarge, doJSON(t, r, http.MethodPost, "/upload/init", map[string]any{"file_name": "big.mp4", "file_size": 65}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/upload/init", map[string]any{"file_name": "x.mp4", "file_size": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/upload/init", map[string]any{"file_name": "..", "file_size": 5}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/upload/init", map[string]any{"file_name": "x.mp4", "file_size": 10, "total_chunks": 2}).Code)

	id := initUpload(t, r, "clip.mp4", 10)
	assert.Equal(t, http.StatusBadRequest, sendChunk(t, r, id, 3, []byte("89")).Code)
	assert.Equal(t, http.StatusBadRequest, sendChunk(t, r, id, 0, []byte("012")).Code)
	assert.Equal(t, http.StatusBadRequest, sendChunk(t, r, id, 2, []byte("890")).Code)
	assert.Equal(t, http.StatusNotFound, sendChunk(t, r, "6f1c1d8e-1111-4c4c-9c9c-000000000000", 0, []byte("0123")).Code)

	require.Equal(t, http.StatusOK, sendChunk(t, r, id, 0, []byte("0123")).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/upload/complete", map[string]string{"upload_id": id}).Code)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/upload/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, sendChunk(t, r, id, 1, []byte("4567")).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/upload/whatever", nil).Code)
}
