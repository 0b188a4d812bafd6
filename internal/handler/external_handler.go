package handler

import (
	"context"
	"net/http"

	"zalama/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TemplateSender is the part of service.TemplateService the handler uses.
type TemplateSender interface {
	Templates() []string
	Send(ctx context.Context, req service.TemplateRequest) (*service.TemplateResults, error)
}

// ExternalHandler serves partner systems authenticated by API key.
type ExternalHandler struct {
	templates TemplateSender
	log       *logrus.Logger
}

func NewExternalHandler(templates TemplateSender, log *logrus.Logger) *ExternalHandler {
	return &ExternalHandler{templates: templates, log: log}
}

func (h *ExternalHandler) ListTemplates(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"templates": h.templates.Templates()})
}

func (h *ExternalHandler) SendTemplate(c *gin.Context) {
	var req service.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	res, err := h.templates.Send(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, "ExternalHandler", "SendTemplate", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": req.Template, "results": res})
}
