package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/metrics"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/upload"
)

// UploadController serves the chunked upload protocol used for blog videos and
// images: init, one request per chunk, then complete.
type UploadController struct {
	DB           *gorm.DB
	Uploads      *upload.Manager
	MediaBaseURL string
}

type initUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
	ContentType string `json:"content_type"`
	TotalChunks int    `json:"total_chunks" binding:"gte=0"`
}

type completeUploadRequest struct {
	UploadID string `json:"upload_id" binding:"required"`
}

func (uc *UploadController) Init(c *gin.Context) {
	var req initUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := uc.Uploads.Init(c.Request.Context(), upload.InitRequest{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		FileSize:    req.FileSize,
		TotalChunks: req.TotalChunks,
	})
	if err != nil {
		uc.writeUploadError(c, "init upload", err)
		return
	}
	slog.InfoContext(c.Request.Context(), "upload started", "upload_id", s.ID, "file", s.FileName, "size", s.FileSize, "chunks", s.TotalChunks)
	c.JSON(http.StatusCreated, gin.H{
		"upload_id":    s.ID,
		"chunk_size":   s.ChunkSize,
		"total_chunks": s.TotalChunks,
	})
}

// Chunk receives multipart fields upload_id, chunk_index and the file part "chunk".
func (uc *UploadController) Chunk(c *gin.Context) {
	id := strings.TrimSpace(c.PostForm("upload_id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload_id is required"})
		return
	}
	index, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chunk_index must be an integer"})
		return
	}
	fh, err := c.FormFile("chunk")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chunk file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read chunk"})
		return
	}
	defer f.Close()

	n, s, err := uc.Uploads.WriteChunk(c.Request.Context(), id, index, f)
	if err != nil {
		uc.writeUploadError(c, "write chunk", err)
		return
	}
	metrics.UploadBytesTotal.Add(float64(n))
	c.JSON(http.StatusOK, gin.H{
		"upload_id":    s.ID,
		"chunk_index":  index,
		"received":     s.ReceivedCount(),
		"total_chunks": s.TotalChunks,
	})
}

func (uc *UploadController) Complete(c *gin.Context) {
	var req completeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := uc.Uploads.Complete(c.Request.Context(), req.UploadID)
	if err != nil {
		uc.writeUploadError(c, "complete upload", err)
		return
	}

	asset := models.MediaAsset{
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		Path:        a.Path,
		URL:         strings.TrimRight(uc.MediaBaseURL, "/") + "/" + a.StoredName,
	}
	if err := uc.DB.Create(&asset).Error; err != nil {
		_ = os.Remove(a.Path)
		internalError(c, "record media asset", err)
		return
	}
	metrics.UploadsCompletedTotal.Inc()
	slog.InfoContext(c.Request.Context(), "upload completed", "upload_id", a.SessionID, "media_id", asset.ID, "size", a.Size)
	c.JSON(http.StatusCreated, gin.H{
		"message":  "created",
		"media_id": asset.ID,
		"url":      asset.URL,
		"size":     asset.Size,
	})
}

// Abort discards an unfinished upload. Unknown ids are ignored.
func (uc *UploadController) Abort(c *gin.Context) {
	if err := uc.Uploads.Abort(c.Request.Context(), c.Param("id")); err != nil {
		internalError(c, "abort upload", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (uc *UploadController) ListMedia(c *gin.Context) {
	lq := newListQuery(c, "file_name", "size", "content_type")
	lq.Search("file_name")
	lq.Equal(c, "content_type", "content_type")
	respondList[models.MediaAsset](c, uc.DB, lq)
}

// DeleteMedia removes the asset row and its file.
func (uc *UploadController) DeleteMedia(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var asset models.MediaAsset
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		return
	}
	if err := uc.DB.Where("id = ?", id).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"message": "deleted"})
			return
		}
		internalError(c, "load media", err)
		return
	}
	if err := uc.DB.Delete(&asset).Error; err != nil {
		internalError(c, "delete media", err)
		return
	}
	if filepath.Dir(asset.Path) == filepath.Clean(uc.Uploads.MediaDir()) {
		if err := os.Remove(asset.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.WarnContext(c.Request.Context(), "remove media file failed", "path", asset.Path, "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (uc *UploadController) writeUploadError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, upload.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found or expired"})
	case errors.Is(err, upload.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, upload.ErrInvalidRequest),
		errors.Is(err, upload.ErrChunkOutOfRange),
		errors.Is(err, upload.ErrChunkSize),
		errors.Is(err, upload.ErrIncomplete),
		errors.Is(err, upload.ErrSizeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		internalError(c, op, err)
	}
}
