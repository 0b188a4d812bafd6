package handler

import (
	"fmt"
	"net/http"
	"strings"

	"zalama/internal/models"
	"zalama/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type PartnerHandler struct {
	repo  *repository.PartnerRepository
	audit auditTrail
	log   *logrus.Logger
}

func NewPartnerHandler(repo *repository.PartnerRepository, audit *repository.AuditLogRepository, log *logrus.Logger) *PartnerHandler {
	return &PartnerHandler{repo: repo, audit: auditTrail{audit, log}, log: log}
}

func (h *PartnerHandler) List(c *gin.Context) {
	page, limit := pageQuery(c)
	list, total, err := h.repo.List(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, limit)
	if err != nil {
		fail(c, h.log, "PartnerHandler", "List", err)
		return
	}
	paged(c, list, total, page, limit)
}

func (h *PartnerHandler) Get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "PartnerHandler", "Get", partnerErr(err))
		return
	}
	ok(c, http.StatusOK, p)
}

type partnerRequest struct {
	Nom       string `json:"nom" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Telephone string `json:"telephone"`
	Adresse   string `json:"adresse"`
	Secteur   string `json:"secteur"`
}

func (h *PartnerHandler) Create(c *gin.Context) {
	var req partnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	p := &models.Partner{
		Nom:       strings.TrimSpace(req.Nom),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Telephone: req.Telephone,
		Adresse:   req.Adresse,
		Secteur:   req.Secteur,
		Actif:     true,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		fail(c, h.log, "PartnerHandler", "Create", err)
		return
	}
	h.audit.record(c, "partenaire_cree", "partenaire", fmt.Sprint(p.ID))
	ok(c, http.StatusCreated, p)
}

type updatePartnerRequest struct {
	Nom       *string `json:"nom"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Telephone *string `json:"telephone"`
	Adresse   *string `json:"adresse"`
	Secteur   *string `json:"secteur"`
	Actif     *bool   `json:"actif"`
}

func (h *PartnerHandler) Update(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req updatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	updates := map[string]interface{}{}
	if req.Nom != nil {
		updates["nom"] = strings.TrimSpace(*req.Nom)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Telephone != nil {
		updates["telephone"] = *req.Telephone
	}
	if req.Adresse != nil {
		updates["adresse"] = *req.Adresse
	}
	if req.Secteur != nil {
		updates["secteur"] = *req.Secteur
	}
	if req.Actif != nil {
		updates["actif"] = *req.Actif
	}
	if len(updates) == 0 {
		badRequest(c, "Aucun champ à modifier")
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, updates); err != nil {
		fail(c, h.log, "PartnerHandler", "Update", err)
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "PartnerHandler", "Update", partnerErr(err))
		return
	}
	h.audit.record(c, "partenaire_modifie", "partenaire", fmt.Sprint(id))
	ok(c, http.StatusOK, p)
}
