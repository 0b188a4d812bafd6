package handler

import (
	"net/http"
	"strconv"

	"zalama/internal/middleware"
	"zalama/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MarketingHandler struct {
	svc *service.MarketingService
	log *logrus.Logger
}

func NewMarketingHandler(svc *service.MarketingService, log *logrus.Logger) *MarketingHandler {
	return &MarketingHandler{svc: svc, log: log}
}

func (h *MarketingHandler) SendSMS(c *gin.Context) {
	var req service.MarketingSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	campaign, err := h.svc.SendSMS(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "MarketingHandler", "SendSMS", err)
		return
	}
	ok(c, http.StatusOK, campaign)
}

func (h *MarketingHandler) SendEmail(c *gin.Context) {
	var req service.MarketingEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	campaign, err := h.svc.SendEmail(c.Request.Context(), req, middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "MarketingHandler", "SendEmail", err)
		return
	}
	ok(c, http.StatusOK, campaign)
}

func (h *MarketingHandler) Campaigns(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	list, err := h.svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, h.log, "MarketingHandler", "Campaigns", err)
		return
	}
	ok(c, http.StatusOK, list)
}
