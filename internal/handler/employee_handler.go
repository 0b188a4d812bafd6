package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"zalama/internal/middleware"
	"zalama/internal/models"
	"zalama/internal/repository"
	"zalama/internal/service"
	"zalama/pkg/phone"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// EmployeeSyncer is the part of service.EmployeeSyncService the handler uses.
type EmployeeSyncer interface {
	Sync(ctx context.Context, req service.SyncRequest) (*service.SyncReport, error)
}

type EmployeeHandler struct {
	repo     *repository.EmployeeRepository
	partners *repository.PartnerRepository
	sync     EmployeeSyncer
	region   string
	audit    auditTrail
	log      *logrus.Logger
}

func NewEmployeeHandler(
	repo *repository.EmployeeRepository,
	partners *repository.PartnerRepository,
	sync EmployeeSyncer,
	region string,
	audit *repository.AuditLogRepository,
	log *logrus.Logger,
) *EmployeeHandler {
	return &EmployeeHandler{repo: repo, partners: partners, sync: sync, region: region, audit: auditTrail{audit, log}, log: log}
}

func (h *EmployeeHandler) List(c *gin.Context) {
	page, limit := pageQuery(c)
	list, total, err := h.repo.List(c.Request.Context(), uintQuery(c, "partenaire_id"), strings.TrimSpace(c.Query("search")), page, limit)
	if err != nil {
		fail(c, h.log, "EmployeeHandler", "List", err)
		return
	}
	paged(c, list, total, page, limit)
}

func (h *EmployeeHandler) Get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "EmployeeHandler", "Get", employeeErr(err))
		return
	}
	ok(c, http.StatusOK, e)
}

type createEmployeeRequest struct {
	PartnerID  uint   `json:"partenaire_id" binding:"required"`
	Nom        string `json:"nom" binding:"required"`
	Prenom     string `json:"prenom"`
	Email      string `json:"email" binding:"omitempty,email"`
	Telephone  string `json:"telephone"`
	Poste      string `json:"poste"`
	SalaireNet int64  `json:"salaire_net" binding:"gte=0"`
}

func (h *EmployeeHandler) Create(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	if _, err := h.partners.GetByID(c.Request.Context(), req.PartnerID); err != nil {
		fail(c, h.log, "EmployeeHandler", "Create", partnerErr(err))
		return
	}
	tel, valid := h.normalizePhone(c, req.Telephone)
	if !valid {
		return
	}
	e := &models.Employee{
		PartnerID:  req.PartnerID,
		Nom:        strings.TrimSpace(req.Nom),
		Prenom:     strings.TrimSpace(req.Prenom),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Telephone:  tel,
		Poste:      req.Poste,
		SalaireNet: req.SalaireNet,
		Actif:      true,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		fail(c, h.log, "EmployeeHandler", "Create", err)
		return
	}
	h.audit.record(c, "employe_cree", "employe", fmt.Sprint(e.ID))
	ok(c, http.StatusCreated, e)
}

type updateEmployeeRequest struct {
	Nom        *string `json:"nom"`
	Prenom     *string `json:"prenom"`
	Email      *string `json:"email" binding:"omitempty,email"`
	Telephone  *string `json:"telephone"`
	Poste      *string `json:"poste"`
	SalaireNet *int64  `json:"salaire_net" binding:"omitempty,gte=0"`
	Actif      *bool   `json:"actif"`
}

func (h *EmployeeHandler) Update(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	updates := map[string]interface{}{}
	if req.Nom != nil {
		updates["nom"] = strings.TrimSpace(*req.Nom)
	}
	if req.Prenom != nil {
		updates["prenom"] = strings.TrimSpace(*req.Prenom)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Telephone != nil {
		tel, valid := h.normalizePhone(c, *req.Telephone)
		if !valid {
			return
		}
		updates["telephone"] = tel
	}
	if req.Poste != nil {
		updates["poste"] = *req.Poste
	}
	if req.SalaireNet != nil {
		updates["salaire_net"] = *req.SalaireNet
	}
	if req.Actif != nil {
		updates["actif"] = *req.Actif
	}
	if len(updates) == 0 {
		badRequest(c, "Aucun champ à modifier")
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, updates); err != nil {
		fail(c, h.log, "EmployeeHandler", "Update", err)
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "EmployeeHandler", "Update", employeeErr(err))
		return
	}
	h.audit.record(c, "employe_modifie", "employe", fmt.Sprint(id))
	ok(c, http.StatusOK, e)
}

// Sync creates or links the auth accounts of employees.
func (h *EmployeeHandler) Sync(c *gin.Context) {
	var req service.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	rep, err := h.sync.Sync(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, "EmployeeHandler", "Sync", err)
		return
	}
	h.audit.record(c, "employes_synchronises", "employe", req.Action)
	ok(c, http.StatusOK, rep)
}

type fcmTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RegisterFCMToken saves the push token of the signed-in employee's device.
func (h *EmployeeHandler) RegisterFCMToken(c *gin.Context) {
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	e, err := h.repo.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, h.log, "EmployeeHandler", "RegisterFCMToken", employeeErr(err))
		return
	}
	if err := h.repo.Update(c.Request.Context(), e.ID, map[string]interface{}{"fcm_token": req.Token}); err != nil {
		fail(c, h.log, "EmployeeHandler", "RegisterFCMToken", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *EmployeeHandler) normalizePhone(c *gin.Context, raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", true
	}
	tel, err := phone.Normalize(raw, h.region)
	if err != nil {
		badRequest(c, "Numéro de téléphone invalide")
		return "", false
	}
	return tel, true
}

func employeeErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return service.ErrEmployeeNotFound
	}
	return err
}

func partnerErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return service.ErrPartnerNotFound
	}
	return err
}
