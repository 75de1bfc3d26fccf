package controllers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/utils"
)

// UserController manages back-office staff accounts. Admin only.
type UserController struct {
	DB *gorm.DB
}

type createUserRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

type updateUserRequest struct {
	FullName *string         `json:"full_name"`
	Email    *string         `json:"email" binding:"omitempty,email"`
	Password *FlexibleString `json:"password"`
	Role     *string         `json:"role"`
	Active   *bool           `json:"active"`
}

func (uc *UserController) ListUsers(c *gin.Context) {
	lq := newListQuery(c, "full_name", "email", "role", "active")
	lq.Search("full_name", "email")
	lq.Equal(c, "role", "role")
	if err := lq.Bool(c, "active", "active"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondList[models.User](c, uc.DB, lq)
}

func (uc *UserController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleEditor
	}
	if !IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		internalError(c, "hash password", err)
		return
	}

	user := models.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: pw,
		Role:     role,
		Active:   active,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		writeError(c, "create user", "email already exists", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "created", "id": user.ID})
}

func (uc *UserController) GetUser(c *gin.Context) {
	getByID[models.User](c, uc.DB, "user")
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, ok := loadByID[models.User](c, uc.DB, "user")
	if !ok {
		return
	}

	if req.FullName != nil {
		u.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		if !IsValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.Password != nil {
		if raw := strings.TrimSpace(req.Password.String()); raw != "" {
			pw, err := utils.HashPassword(raw)
			if err != nil {
				internalError(c, "hash password", err)
				return
			}
			u.Password = pw
		}
	}
	if me, ok := currentUser(c); ok && me.ID == u.ID && (!u.Active || u.Role != models.RoleAdmin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot demote or deactivate your own account"})
		return
	}

	if err := uc.DB.Save(u).Error; err != nil {
		writeError(c, "update user", "email already exists", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (uc *UserController) DeleteUser(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if me, ok := currentUser(c); ok && me.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	if _, err := uuid.Parse(userID); err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
		return
	}
	err := uc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id_ref = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
	if err != nil {
		internalError(c, "delete user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type userImportError struct {
	Row   int    `json:"row"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

func parseBoolDefaultTrue(val string) (bool, bool) {
	if val == "" {
		return true, false
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "y", "active":
		return true, true
	case "false", "0", "no", "n", "inactive":
		return false, true
	default:
		return true, false
	}
}

// ImportUsers bulk-creates staff accounts from a CSV upload (form field "file").
// Header columns, case-insensitive: full_name, email, password, role (optional),
// active (optional). Comma or semicolon separated.
func (uc *UserController) ImportUsers(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(fileHeader.Filename)), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files are allowed"})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}

	data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})
	data = bytes.ReplaceAll(data, []byte{'\r'}, []byte{'\n'})
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	if bytes.Contains(firstLine, []byte{';'}) && !bytes.Contains(firstLine, []byte{','}) {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read header"})
		return
	}
	headerIdx := make(map[string]int, len(header))
	for idx, col := range header {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(col), "\"'"))
		if key != "" {
			headerIdx[key] = idx
		}
	}
	for _, key := range []string{"full_name", "email", "password"} {
		if _, ok := headerIdx[key]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing header column: %s", key)})
			return
		}
	}
	getVal := func(record []string, key string) string {
		idx, ok := headerIdx[key]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var (
		totalRows   int
		createdRows int
		failures    = make([]userImportError, 0)
	)
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			failures = append(failures, userImportError{Row: rowNum, Error: fmt.Sprintf("failed to read row: %v", err)})
			continue
		}
		totalRows++

		fullName := getVal(row, "full_name")
		email := strings.ToLower(getVal(row, "email"))
		password := getVal(row, "password")
		role := strings.ToLower(getVal(row, "role"))
		activeStr := getVal(row, "active")

		fail := func(msg string) {
			failures = append(failures, userImportError{Row: rowNum, Email: email, Error: msg})
		}
		if fullName == "" || email == "" || password == "" {
			fail("full_name, email, and password are required")
			continue
		}
		if role == "" {
			role = models.RoleEditor
		}
		if !IsValidRole(role) {
			fail("invalid role")
			continue
		}
		activeVal, provided := parseBoolDefaultTrue(activeStr)
		if activeStr != "" && !provided {
			fail("invalid active value")
			continue
		}
		hashed, hashErr := utils.HashPassword(password)
		if hashErr != nil {
			fail(fmt.Sprintf("failed to hash password: %v", hashErr))
			continue
		}

		user := models.User{FullName: fullName, Email: email, Password: hashed, Role: role, Active: activeVal}
		if err := uc.DB.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				fail("email already exists")
			} else {
				fail(fmt.Sprintf("failed to insert user: %v", err))
			}
			continue
		}
		createdRows++
	}

	slog.InfoContext(c.Request.Context(), "users imported", "total", totalRows, "inserted", createdRows, "failed", len(failures))
	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"total_rows": totalRows,
			"inserted":   createdRows,
			"failed":     len(failures),
		},
		"errors": failures,
	})
}
