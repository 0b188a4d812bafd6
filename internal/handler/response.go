package handler

import (
	"errors"
	"net/http"
	"strconv"

	"zalama/config"
	"zalama/internal/repository"
	"zalama/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type apiError struct {
	status  int
	code    string
	message string
}

// knownErrors maps service and repository errors to the API error body.
var knownErrors = []struct {
	err error
	apiError
}{
	{service.ErrTransactionNotFound, apiError{http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction introuvable"}},
	{service.ErrTransactionNotEligible, apiError{http.StatusBadRequest, "TRANSACTION_NOT_ELIGIBLE", "La transaction n'est pas effectuée"}},
	{service.ErrAlreadyReimbursed, apiError{http.StatusConflict, "ALREADY_REIMBURSED", "Un remboursement existe déjà pour cette transaction"}},
	{service.ErrReimbursementNotFound, apiError{http.StatusNotFound, "REIMBURSEMENT_NOT_FOUND", "Remboursement introuvable"}},
	{service.ErrReimbursementClosed, apiError{http.StatusConflict, "REIMBURSEMENT_CLOSED", "Ce remboursement est déjà clôturé"}},
	{service.ErrInvalidTransition, apiError{http.StatusBadRequest, "INVALID_TRANSITION", "Changement de statut non autorisé"}},
	{service.ErrNothingToPay, apiError{http.StatusNotFound, "NOTHING_TO_PAY", "Aucun remboursement en attente pour ce partenaire"}},
	{service.ErrPaymentInProgress, apiError{http.StatusConflict, "PAYMENT_IN_PROGRESS", "Un paiement est déjà en cours d'initiation pour ce partenaire"}},
	{service.ErrPaymentOutstanding, apiError{http.StatusConflict, "PAYMENT_OUTSTANDING", "Un paiement précédent est encore ouvert ou déjà réglé, vérifiez son statut"}},
	{service.ErrGateway, apiError{http.StatusBadGateway, "GATEWAY_ERROR", "Le service de paiement Lengo est indisponible"}},
	{service.ErrInvalidSignature, apiError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Signature invalide"}},
	{service.ErrAdvanceNotFound, apiError{http.StatusNotFound, "ADVANCE_NOT_FOUND", "Demande d'avance introuvable"}},
	{service.ErrAdvanceDecided, apiError{http.StatusConflict, "ADVANCE_DECIDED", "Cette demande a déjà été traitée"}},
	{service.ErrEmployeeNotFound, apiError{http.StatusNotFound, "EMPLOYEE_NOT_FOUND", "Employé introuvable"}},
	{service.ErrPartnerNotFound, apiError{http.StatusNotFound, "PARTNER_NOT_FOUND", "Partenaire introuvable"}},
	{service.ErrNoRecipient, apiError{http.StatusBadRequest, "NO_RECIPIENT", "Aucun destinataire joignable"}},
	{service.ErrUnknownEvent, apiError{http.StatusBadRequest, "UNKNOWN_EVENT", "Événement inconnu"}},
	{service.ErrUnknownTemplate, apiError{http.StatusBadRequest, "UNKNOWN_TEMPLATE", "Modèle de notification inconnu"}},
	{service.ErrUnknownAction, apiError{http.StatusBadRequest, "UNKNOWN_ACTION", "Action de synchronisation inconnue"}},
	{service.ErrAlreadyLinked, apiError{http.StatusConflict, "ALREADY_LINKED", "Cet employé possède déjà un compte"}},
	{service.ErrNoAccount, apiError{http.StatusNotFound, "NO_ACCOUNT", "Aucun compte ne correspond à l'email de l'employé"}},
	{service.ErrEmailExists, apiError{http.StatusConflict, "EMAIL_EXISTS", "Cet email est déjà utilisé"}},
	{service.ErrInvalidCreds, apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email ou mot de passe incorrect"}},
	{service.ErrAccountDisabled, apiError{http.StatusForbidden, "ACCOUNT_DISABLED", "Compte désactivé"}},
	{service.ErrInvalidAmount, apiError{http.StatusBadRequest, "INVALID_AMOUNT", "Le montant doit être positif"}},
	{service.ErrAdvanceTooLarge, apiError{http.StatusBadRequest, "AMOUNT_TOO_LARGE", "Le montant dépasse le salaire net de l'employé"}},
	{service.ErrEmployeeOff, apiError{http.StatusBadRequest, "EMPLOYEE_INACTIVE", "Cet employé est inactif"}},
	{service.ErrCampaignsUnavailable, apiError{http.StatusServiceUnavailable, "CAMPAIGNS_UNAVAILABLE", "Historique des campagnes indisponible"}},
	{repository.ErrNotFound, apiError{http.StatusNotFound, "NOT_FOUND", "Ressource introuvable"}},
	{repository.ErrDuplicate, apiError{http.StatusConflict, "DUPLICATE", "Cette ressource existe déjà"}},
}

var internalError = apiError{http.StatusInternalServerError, "INTERNAL_ERROR", "Une erreur interne est survenue"}

func lookup(err error) (apiError, bool) {
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			return k.apiError, true
		}
	}
	return internalError, false
}

// fail writes {success:false, error, code}. Unmapped errors are logged and answered generically.
func fail(c *gin.Context, log *logrus.Logger, module, funcName string, err error) {
	e, known := lookup(err)
	if !known || e.status >= http.StatusInternalServerError {
		config.LogError(log, module, funcName, c.Request.Method+" "+c.FullPath(), nil, err)
	}
	c.JSON(e.status, gin.H{"success": false, "error": e.message, "code": e.code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message, "code": "VALIDATION_ERROR"})
}

func invalidBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Données invalides",
		"code":    "VALIDATION_ERROR",
		"details": err.Error(),
	})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func paged(c *gin.Context, data interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// idParam parses a positive numeric path parameter; it writes the 400 itself.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Identifiant invalide")
		return 0, false
	}
	return uint(id), true
}

func uintQuery(c *gin.Context, name string) uint {
	v, _ := strconv.ParseUint(c.Query(name), 10, 64)
	return uint(v)
}

func pageQuery(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	return page, limit
}
