package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/database"
)

func internalError(c *gin.Context, op string, err error) {
	slog.ErrorContext(c.Request.Context(), op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// writeError maps a persistence error to a response: unique violations become
// 409 with conflictMsg, anything else 500.
func writeError(c *gin.Context, op, conflictMsg string, err error) {
	if database.IsUniqueViolation(err) {
		c.JSON(http.StatusConflict, gin.H{"error": conflictMsg})
		return
	}
	internalError(c, op, err)
}

// loadByID fetches the :id record into a new T, replying 404 when it does not exist.
func loadByID[T any](c *gin.Context, db *gorm.DB, entity string) (*T, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	// ids are UUID columns in postgres; anything else cannot match
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
		return nil, false
	}
	rec := new(T)
	if err := db.Where("id = ?", id).First(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
			return nil, false
		}
		internalError(c, "load "+entity, err)
		return nil, false
	}
	return rec, true
}

func getByID[T any](c *gin.Context, db *gorm.DB, entity string) {
	rec, ok := loadByID[T](c, db, entity)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

// deleteByID removes the :id record. Deleting a record that is already gone
// succeeds so repeated deletes are harmless.
func deleteByID[T any](c *gin.Context, db *gorm.DB, entity string) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		return
	}
	if err := db.Where("id = ?", id).Delete(new(T)).Error; err != nil {
		internalError(c, "delete "+entity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// bulkDelete removes every listed id in one statement.
func bulkDelete[T any](c *gin.Context, db *gorm.DB, entity string) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ids, err := toUUIDSlice(req.IDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id in ids"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	res := db.Where("id IN ?", keys).Delete(new(T))
	if res.Error != nil {
		internalError(c, "bulk delete "+entity, res.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "deleted": res.RowsAffected})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// bindStatus reads {"status": ...} and checks it against allowed.
func bindStatus(c *gin.Context, allowed []string) (string, bool) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !contains(allowed, status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status, expected one of " + strings.Join(allowed, ", ")})
		return "", false
	}
	return status, true
}

// updateStatus sets the status column of the :id record to one of allowed.
func updateStatus[T any](c *gin.Context, db *gorm.DB, entity string, allowed ...string) {
	status, ok := bindStatus(c, allowed)
	if !ok {
		return
	}
	rec, ok := loadByID[T](c, db, entity)
	if !ok {
		return
	}
	if err := db.Model(rec).Update("status", status).Error; err != nil {
		internalError(c, "update "+entity+" status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// textFieldRules are the validator tags checked on partial text updates.
var textFieldRules = map[string]string{
	"email": "required,email",
	"phone": "phone",
}

// updateTextFields applies a partial JSON update restricted to the listed text
// columns. A "status" key, when allowed, must be one of statuses.
func updateTextFields[T any](c *gin.Context, db *gorm.DB, entity string, fields []string, statuses []string) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := make(map[string]any, len(body))
	for key, val := range body {
		if !contains(fields, key) {
			continue
		}
		s, ok := val.(string)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a string"})
			return
		}
		s = strings.TrimSpace(s)
		if key == "status" && !contains(statuses, s) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status, expected one of " + strings.Join(statuses, ", ")})
			return
		}
		if rule, ok := textFieldRules[key]; ok {
			if err := validateValue(s, rule); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
				return
			}
		}
		updates[key] = s
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no updatable fields provided"})
		return
	}
	rec, ok := loadByID[T](c, db, entity)
	if !ok {
		return
	}
	if err := db.Model(rec).Updates(updates).Error; err != nil {
		internalError(c, "update "+entity, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}
