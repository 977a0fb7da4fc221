package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/service"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// BillingHandler serves the composed billing view for the authenticated
// company.
type BillingHandler struct {
	statusService service.BillingStatusService
	log           *logger.Logger
}

func NewBillingHandler(statusService service.BillingStatusService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		statusService: statusService,
		log:           log,
	}
}

// GetBillingStatus returns the billing status for the caller's company
// @Summary Get billing status
// @Description Returns plan, subscription status, trial and module composition
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BillingStatusResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /v1/billing/status [get]
func (h *BillingHandler) GetBillingStatus(c *gin.Context) {
	companyID := types.GetCompanyID(c.Request.Context())
	if companyID == "" {
		c.Error(ierr.NewError("company context is required").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	response, err := h.statusService.GetBillingStatus(c.Request.Context(), companyID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetEntitlements returns resolved limits for the caller's company
// @Summary Get entitlements
// @Description Returns the resolved value for every entitlement key
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.EntitlementsResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /v1/billing/entitlements [get]
func (h *BillingHandler) GetEntitlements(c *gin.Context) {
	companyID := types.GetCompanyID(c.Request.Context())
	if companyID == "" {
		c.Error(ierr.NewError("company context is required").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	response, err := h.statusService.GetEntitlements(c.Request.Context(), companyID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
