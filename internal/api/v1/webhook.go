package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradeflowhq/tradeflow/internal/api/dto"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/integration/stripe"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/service"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// maxWebhookBodyBytes caps the raw payload read; Stripe events are far
// smaller than this.
const maxWebhookBodyBytes = int64(1 << 20)

// WebhookHandler receives Stripe webhook deliveries. Only the signature
// check can reject a request; once an event is authenticated the endpoint
// acknowledges with 200 regardless of processing outcome, because a non-2xx
// would make Stripe redeliver an event we may have partially applied, and
// the idempotency marker already makes redelivery safe.
type WebhookHandler struct {
	verifier   stripe.SignatureVerifier
	dispatcher service.WebhookDispatchService
	log        *logger.Logger
}

func NewWebhookHandler(
	verifier stripe.SignatureVerifier,
	dispatcher service.WebhookDispatchService,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		log:        log,
	}
}

// HandleStripeWebhook processes a Stripe webhook delivery
// @Summary Receive Stripe webhook events
// @Description Verifies the event signature and applies billing state changes
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} dto.WebhookAckResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	event, err := h.verifier.VerifyWebhook(body, c.GetHeader(types.HeaderStripeSignature))
	if err != nil {
		h.log.Warnw("webhook signature verification failed", "error", err)
		c.Error(err)
		return
	}

	if err := h.dispatcher.ProcessEvent(c.Request.Context(), event); err != nil {
		// Acknowledged anyway. Unresolvable events (no company) would fail
		// forever, and failed writes rolled back with their event marker so
		// Stripe's own retry schedule can reapply them.
		h.log.Errorw("webhook event processing failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err,
		)
	}

	c.JSON(http.StatusOK, dto.WebhookAckResponse{OK: true})
}
