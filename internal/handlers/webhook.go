package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/services"
)

const webhookSecretHeader = "X-Secret"

// WebhookHandler receives provider change notifications and exposes
// the protected webhook admin operations.
type WebhookHandler struct {
	log     *logger.Logger
	service services.WebhookService
	igdb    igdb.Client
}

func NewWebhookHandler(log *logger.Logger, service services.WebhookService, client igdb.Client) *WebhookHandler {
	return &WebhookHandler{
		log:     log.With("handler", "WebhookHandler"),
		service: service,
		igdb:    client,
	}
}

// Receive serves POST /webhooks/igdb/:event with the raw record as
// body. The provider echoes the shared secret in a header.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if err := h.service.VerifySecret(c.GetHeader(webhookSecretHeader)); err != nil {
		RespondAppError(c, err)
		return
	}
	var raw igdb.Record
	if err := c.ShouldBindJSON(&raw); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	event := services.WebhookEvent(c.Param("event"))
	if err := h.service.HandleEvent(c.Request.Context(), event, raw); err != nil {
		RespondAppError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) Register(c *gin.Context) {
	var body struct {
		CallbackURL string `json:"callback_url" binding:"required"`
		Method      string `json:"method" binding:"required"`
		Secret      string `json:"secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	record, err := h.igdb.RegisterWebhook(c.Request.Context(), body.CallbackURL, body.Method, body.Secret)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, record)
}

func (h *WebhookHandler) List(c *gin.Context) {
	records, err := h.igdb.ListWebhooks(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, records)
}

func (h *WebhookHandler) Delete(c *gin.Context) {
	webhookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	if err := h.igdb.DeleteWebhook(c.Request.Context(), webhookID); err != nil {
		RespondAppError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WebhookHandler) Test(c *gin.Context) {
	webhookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", err)
		return
	}
	entityID, err := strconv.ParseInt(c.Query("entityId"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_entity", err)
		return
	}
	if err := h.igdb.TestWebhook(c.Request.Context(), webhookID, entityID); err != nil {
		RespondAppError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
