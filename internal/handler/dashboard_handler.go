package handler

import (
	"net/http"
	"time"

	"zalama/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	repo *repository.DashboardRepository
	log  *logrus.Logger
}

func NewDashboardHandler(repo *repository.DashboardRepository, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{repo: repo, log: log}
}

// Stats returns the headline figures and the last 12 months of advances.
func (h *DashboardHandler) Stats(c *gin.Context) {
	partnerID := uintQuery(c, "partenaire_id")
	stats, err := h.repo.Stats(c.Request.Context(), partnerID)
	if err != nil {
		fail(c, h.log, "DashboardHandler", "Stats", err)
		return
	}
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)
	monthly, err := h.repo.AdvancesByMonth(c.Request.Context(), partnerID, from)
	if err != nil {
		fail(c, h.log, "DashboardHandler", "Stats", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": stats, "avances_par_mois": monthly})
}
