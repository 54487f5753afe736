package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/certhub/certificates_api/internal/middleware"
	"github.com/certhub/certificates_api/internal/models"
	"github.com/certhub/certificates_api/internal/service"
	"github.com/certhub/certificates_api/internal/utils"
)

// MergePatchContentType is the only media type accepted for partial updates.
const MergePatchContentType = "application/merge-patch+json"

// CertificateItemManager is the lifecycle collaborator behind the HTTP
// endpoints.
type CertificateItemManager interface {
	Create(ctx context.Context, req *service.CreateCertificateItemRequest, caller *models.Caller) (*models.CertificateItem, error)
	Patch(ctx context.Context, id string, req *service.PatchCertificateItemRequest, caller *models.Caller) (*models.CertificateItem, error)
	GetWithCosts(id string, caller *models.Caller) (*models.CertificateItem, error)
}

// CertificateItemHandler handles certificate item HTTP endpoints.
type CertificateItemHandler struct {
	items     CertificateItemManager
	validator *service.CertificateItemValidator
}

// NewCertificateItemHandler constructs a CertificateItemHandler.
func NewCertificateItemHandler(items CertificateItemManager, validator *service.CertificateItemValidator) *CertificateItemHandler {
	return &CertificateItemHandler{items: items, validator: validator}
}

// CreateCertificateItem handles POST /orderable/certificates
func (h *CertificateItemHandler) CreateCertificateItem(c *gin.Context) {
	var req service.CreateCertificateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "Invalid request body")
		return
	}

	if errs := h.validator.ValidateCreate(&req); len(errs) > 0 {
		utils.ValidationErrors(c, 400, errs)
		return
	}

	caller := middleware.GetCaller(c)
	if caller == nil {
		utils.Error(c, 401, "Unauthorized")
		return
	}

	item, err := h.items.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(201, item)
}

// GetCertificateItem handles GET /orderable/certificates/:id
func (h *CertificateItemHandler) GetCertificateItem(c *gin.Context) {
	caller := middleware.GetCaller(c)
	if caller == nil {
		utils.Error(c, 401, "Unauthorized")
		return
	}

	item, err := h.items.GetWithCosts(c.Param("id"), caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(200, item)
}

// PatchCertificateItem handles PATCH /orderable/certificates/:id
func (h *CertificateItemHandler) PatchCertificateItem(c *gin.Context) {
	if c.ContentType() != MergePatchContentType {
		utils.Error(c, 415, "Content-Type must be "+MergePatchContentType)
		return
	}

	var req service.PatchCertificateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "Invalid request body")
		return
	}

	if errs := h.validator.ValidatePatch(&req); len(errs) > 0 {
		utils.ValidationErrors(c, 400, errs)
		return
	}

	caller := middleware.GetCaller(c)
	if caller == nil {
		utils.Error(c, 401, "Unauthorized")
		return
	}

	item, err := h.items.Patch(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(200, item)
}

func (h *CertificateItemHandler) handleError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var companyNotFound *service.CompanyNotFoundError

	switch {
	case errors.As(err, &validation):
		utils.ValidationErrors(c, 400, validation.Errors)
	case errors.Is(err, utils.ErrCertificateNotFound):
		utils.Error(c, 404, "Certificate item not found")
	case errors.As(err, &companyNotFound):
		utils.Error(c, 400, companyNotFound.Error())
	case errors.Is(err, utils.ErrCompanyService):
		utils.Error(c, 502, "Company profile service unavailable")
	default:
		log.Error().Err(err).
			Str("request_id", utils.GetRequestID(c)).
			Msg("certificate item request failed")
		utils.Error(c, 500, "Internal server error")
	}
}
