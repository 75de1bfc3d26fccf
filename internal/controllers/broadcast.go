package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/abic-consultancy/abic_backend/internal/metrics"
	"github.com/abic-consultancy/abic_backend/internal/notify"
)

// announceSubmission records a stored public submission and fans it out to the
// admin live feed and the notification queue.
func announceSubmission(c *gin.Context, d *notify.Dispatcher, ev notify.Event) {
	metrics.SubmissionsTotal.WithLabelValues(ev.Kind).Inc()
	d.Dispatch(c.Request.Context(), ev)
}
