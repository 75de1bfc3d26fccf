package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/utils"
)

func newUserRouter(t *testing.T) (*gin.Engine, *gorm.DB, models.User) {
	t.Helper()
	db := database.OpenTestDB(t)
	me := models.User{FullName: "Admin", Email: "admin@abic.ph", Password: "x", Role: models.RoleAdmin, Active: true}
	require.NoError(t, db.Create(&me).Error)

	ctrl := &UserController{DB: db}
	r := gin.New()
	g := r.Group("/users", asUser(me))
	g.GET("", ctrl.ListUsers)
	g.POST("", ctrl.CreateUser)
	g.POST("/import", ctrl.ImportUsers)
	g.GET("/:id", ctrl.GetUser)
	g.PUT("/:id", ctrl.UpdateUser)
	g.DELETE("/:id", ctrl.DeleteUser)
	return r, db, me
}

func TestCreateUser(t *testing.T) {
	r, db, _ := newUserRouter(t)

	w := doJSON(t, r, http.MethodPost, "/users", map[string]any{"full_name": "Ed", "email": "Ed@ABIC.ph", "password": "longenough"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var u models.User
	require.NoError(t, db.First(&u, "id = ?", decodeBody(t, w)["id"]).Error)
	assert.Equal(t, "ed@abic.ph", u.Email)
	assert.Equal(t, models.RoleEditor, u.Role)
	assert.True(t, u.Active)
	assert.True(t, utils.CheckPassword(u.Password, "longenough"))

	assert.Equal(t, http.StatusConflict, doJSON(t, r, http.MethodPost, "/users", map[string]any{"full_name": "Ed 2", "email": "ed@abic.ph", "password": "longenough"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/users", map[string]any{"full_name": "Short", "email": "s@abic.ph", "password": "short"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/users", map[string]any{"full_name": "Root", "email": "r@abic.ph", "password": "longenough", "role": "root"}).Code)

	w = doJSON(t, r, http.MethodGet, "/users/"+u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), u.Password)
}

func TestUpdateUser_SelfProtection(t *testing.T) {
	r, db, me := newUserRouter(t)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/users/"+me.ID, map[string]any{"role": "editor"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPut, "/users/"+me.ID, map[string]any{"active": false}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodDelete, "/users/"+me.ID, nil).Code)

	w := doJSON(t, r, http.MethodPut, "/users/"+me.ID, map[string]any{"full_name": "Chief", "password": "new-password"})
	require.Equal(t, http.StatusOK, w.Code)
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", me.ID).Error)
	assert.Equal(t, "Chief", u.FullName)
	assert.True(t, utils.CheckPassword(u.Password, "new-password"))
}

func TestDeleteUser_RemovesRefreshTokens(t *testing.T) {
	r, db, _ := newUserRouter(t)
	other := models.User{FullName: "Ed", Email: "ed@abic.ph", Password: "x", Role: models.RoleEditor, Active: true}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.RefreshToken{TokenID: "jti-1", UserIDRef: other.ID, TokenHash: "h1"}).Error)

	require.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/users/"+other.ID, nil).Code)

	var tokens int64
	db.Model(&models.RefreshToken{}).Where("user_id_ref = ?", other.ID).Count(&tokens)
	assert.Zero(t, tokens)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/users/"+other.ID, nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodDelete, "/users/not-a-uuid", nil).Code)
}

func uploadCSV(t *testing.T, r http.Handler, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImportUsers(t *testing.T) {
	r, db, _ := newUserRouter(t)

	csvData := "\xEF\xBB\xBFFull_Name;Email;Password;Role;Active\r\n" +
		"Maria Santos;maria@abic.ph;secret123;editor;yes\r\n" +
		"Pedro Cruz;PEDRO@abic.ph;secret123;;no\r\n" +
		"Dup Admin;admin@abic.ph;secret123;admin;\r\n" +
		"Bad Role;bad@abic.ph;secret123;owner;\r\n" +
		"Bad Active;act@abic.ph;secret123;editor;maybe\r\n" +
		";missing@abic.ph;secret123;;\r\n"

	w := uploadCSV(t, r, "staff.CSV", []byte(csvData))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Summary struct {
			TotalRows int `json:"total_rows"`
			Inserted  int `json:"inserted"`
			Failed    int `json:"failed"`
		} `json:"summary"`
		Errors []userImportError `json:"errors"`
	}
	decodeInto(t, w, &out)
	assert.Equal(t, 6, out.Summary.TotalRows)
	assert.Equal(t, 2, out.Summary.Inserted)
	assert.Equal(t, 4, out.Summary.Failed)
	require.Len(t, out.Errors, 4)
	assert.Equal(t, userImportError{Row: 4, Email: "admin@abic.ph", Error: "email already exists"}, out.Errors[0])
	assert.Equal(t, "invalid role", out.Errors[1].Error)
	assert.Equal(t, "invalid active value", out.Errors[2].Error)
	assert.Equal(t, 7, out.Errors[3].Row)

	var pedro models.User
	require.NoError(t, db.First(&pedro, "email = ?", "pedro@abic.ph").Error)
	assert.False(t, pedro.Active)
	assert.Equal(t, models.RoleEditor, pedro.Role)

	assert.Equal(t, http.StatusBadRequest, uploadCSV(t, r, "staff.xlsx", []byte(csvData)).Code)
	assert.Equal(t, http.StatusBadRequest, uploadCSV(t, r, "empty.csv", []byte("  \n")).Code)
	assert.Equal(t, http.StatusBadRequest, uploadCSV(t, r, "nohdr.csv", []byte("name,email\nA,a@b.c\n")).Code)
}

func TestParseBoolDefaultTrue(t *testing.T) {
	tests := []struct {
		in        string
		want, set bool
	}{
		{"", true, false},
		{"Yes", true, true},
		{"inactive", false, true},
		{"0", false, true},
		{"perhaps", true, false},
	}
	for _, tt := range tests {
		got, set := parseBoolDefaultTrue(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.set, set, tt.in)
	}
}
