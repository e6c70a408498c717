package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/services"
)

type GameHandler struct {
	log   *logger.Logger
	store services.GameStoreService
}

func NewGameHandler(log *logger.Logger, store services.GameStoreService) *GameHandler {
	return &GameHandler{log: log.With("handler", "GameHandler"), store: store}
}

// GetByProviderID serves GET /api/games/:igdbID. A cached row returns
// immediately; a miss fetches from the provider inline.
func (h *GameHandler) GetByProviderID(c *gin.Context) {
	igdbID, err := strconv.ParseInt(c.Param("igdbID"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_id", fmt.Errorf("igdbID must be an integer"))
		return
	}
	game, err := h.store.GetByIGDBID(c.Request.Context(), igdbID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, game)
}

// GetBySlug serves GET /api/games/slug/:slug.
func (h *GameHandler) GetBySlug(c *gin.Context) {
	game, err := h.store.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, game)
}

// Browse serves GET /api/games, ordered by rating count.
func (h *GameHandler) Browse(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	games, err := h.store.Browse(c.Request.Context(), limit, offset)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, games)
}
