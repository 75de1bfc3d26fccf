package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/models"
)

func TestContactSubmit(t *testing.T) {
	r, ctrl := newContactRouter(t)
	d, pub := newDispatcher()
	ctrl.Notifier = d

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing message", map[string]any{"name": "A", "email": "a@example.com"}, http.StatusBadRequest},
		{"bad email", map[string]any{"name": "A", "email": "nope", "message": "hi"}, http.StatusBadRequest},
		{"bad phone", map[string]any{"name": "A", "email": "a@example.com", "message": "hi", "phone": "12"}, http.StatusBadRequest},
		{"malformed json", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doJSON(t, r, http.MethodPost, "/contact", tt.body).Code)
		})
	}
	assert.Empty(t, pub.Events())

	w := doJSON(t, r, http.MethodPost, "/contact", map[string]any{
		"name": " Ana Cruz ", "email": "ANA@example.com", "phone": "02 8123 4567", "message": "Need bookkeeping",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeBody(t, w)["id"].(string)

	var rec models.ContactSubmission
	require.NoError(t, ctrl.DB.First(&rec, "id = ?", id).Error)
	assert.Equal(t, "Ana Cruz", rec.Name)
	assert.Equal(t, "ana@example.com", rec.Email)
	assert.Equal(t, models.ContactNew, rec.Status)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "contact", events[0].Kind)
	assert.Equal(t, "Message from Ana Cruz", events[0].Title)
	assert.Equal(t, id, events[0].ID)
}

func TestQuoteSubmit(t *testing.T) {
	d, pub := newDispatcher()
	ctrl := &QuoteController{DB: database.OpenTestDB(t), Notifier: d}
	r := gin.New()
	r.POST("/quote", ctrl.Submit)
	r.PATCH("/quote/:id/status", ctrl.UpdateStatus)

	base := func() map[string]any {
		return map[string]any{"full_name": "Ben", "email": "ben@example.com", "services": []string{"Audit", " Payroll "}}
	}

	noServices := base()
	noServices["services"] = []string{}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/quote", noServices).Code)
	blankService := base()
	blankService["services"] = []string{""}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/quote", blankService).Code)

	body := base()
	body["budget"] = 50000
	w := doJSON(t, r, http.MethodPost, "/quote", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decodeBody(t, w)["id"].(string)

	var q models.Quote
	require.NoError(t, ctrl.DB.First(&q, "id = ?", id).Error)
	assert.Equal(t, "50000", q.Budget)
	assert.JSONEq(t, `["Audit","Payroll"]`, string(q.Services))
	assert.Equal(t, models.QuotePending, q.Status)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Quote request: Audit, Payroll", events[0].Title)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodPatch, "/quote/"+id+"/status", map[string]string{"status": "sent"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPatch, "/quote/"+id+"/status", map[string]string{"status": "replied"}).Code)
}

func TestHRConsultationSubmit(t *testing.T) {
	prev := validationClock
	validationClock = func() time.Time { return time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { validationClock = prev })

	d, pub := newDispatcher()
	ctrl := &HRConsultationController{DB: database.OpenTestDB(t), Notifier: d}
	r := gin.New()
	r.POST("/hr", ctrl.Submit)

	body := func(date string) map[string]any {
		return map[string]any{
			"company_name":   "Acme Corp",
			"contact_person": "Carla",
			"email":          "carla@acme.ph",
			"phone":          "09171234567",
			"company_size":   120,
			"preferred_date": date,
		}
	}

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/hr", body("2026-06-09")).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/hr", body("June 20")).Code)

	w := doJSON(t, r, http.MethodPost, "/hr", body("2026-06-10"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec models.HRConsultation
	require.NoError(t, ctrl.DB.First(&rec, "id = ?", decodeBody(t, w)["id"]).Error)
	assert.Equal(t, "120", rec.CompanySize)
	assert.Equal(t, models.HRPending, rec.Status)

	require.Len(t, pub.Events(), 1)
	assert.Equal(t, "HR consultation for Acme Corp", pub.Events()[0].Title)

	assert.Equal(t, http.StatusCreated, doJSON(t, r, http.MethodPost, "/hr", body("")).Code)
}

func TestValidatePhone(t *testing.T) {
	type probe struct {
		Phone string `binding:"phone"`
	}
	for phone, ok := range map[string]bool{
		"":                 true,
		"+63 917 123 4567": true,
		"02 8123-4567":     true,
		"09171234567":      true,
		"12345":            false,
		"phone":            false,
		"+63-917-123-456-": false,
	} {
		err := bindingValidate(probe{Phone: phone})
		assert.Equal(t, ok, err == nil, phone)
	}
}
