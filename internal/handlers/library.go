package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamepile/gamepile-backend/internal/clients/platforms"
	"github.com/gamepile/gamepile-backend/internal/clients/steam"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/middleware"
	"github.com/gamepile/gamepile-backend/internal/repos"
	"github.com/gamepile/gamepile-backend/internal/services"
)

// LibraryHandler owns the per-user surface: account linking, sync,
// cache review and import.
type LibraryHandler struct {
	log       *logger.Logger
	sync      services.SyncService
	importer  services.ImporterService
	adapters  map[library.Platform]platforms.Adapter
	steamAuth *steam.OpenID
	links     repos.PlatformLinkRepo
	cache     repos.PlatformCacheRepo
	userGames repos.UserGameRepo
}

func NewLibraryHandler(
	log *logger.Logger,
	syncService services.SyncService,
	importer services.ImporterService,
	adapters []platforms.Adapter,
	steamAuth *steam.OpenID,
	links repos.PlatformLinkRepo,
	cache repos.PlatformCacheRepo,
	userGames repos.UserGameRepo,
) *LibraryHandler {
	byPlatform := make(map[library.Platform]platforms.Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	return &LibraryHandler{
		log:       log.With("handler", "LibraryHandler"),
		sync:      syncService,
		importer:  importer,
		adapters:  byPlatform,
		steamAuth: steamAuth,
		links:     links,
		cache:     cache,
		userGames: userGames,
	}
}

func parsePlatform(c *gin.Context) (library.Platform, bool) {
	platform := library.Platform(c.Param("platform"))
	switch platform {
	case library.PlatformPSN, library.PlatformSteam:
		return platform, true
	default:
		RespondError(c, http.StatusBadRequest, "bad_platform", fmt.Errorf("unknown platform %q", platform))
		return "", false
	}
}

// LinkAccount serves POST /api/library/link/:platform. The credential
// is platform-specific: a PSN online id or a Steam64 id.
func (h *LibraryHandler) LinkAccount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no user in context"))
		return
	}
	platform, ok := parsePlatform(c)
	if !ok {
		return
	}
	var body struct {
		Credential string `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	adapter := h.adapters[platform]
	if adapter == nil {
		RespondError(c, http.StatusBadRequest, "bad_platform", fmt.Errorf("platform %q not configured", platform))
		return
	}
	account, err := adapter.VerifyAccount(c.Request.Context(), body.Credential)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if err := h.links.Upsert(c.Request.Context(), nil, &library.PlatformLink{
		UserID:      userID,
		Platform:    platform,
		AccountID:   account.ID,
		AccountName: account.Username,
	}); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, account)
}

// SteamLogin serves GET /api/library/steam/login: the OpenID redirect
// URL the client should send the browser to.
func (h *LibraryHandler) SteamLogin(c *gin.Context) {
	RespondOK(c, gin.H{"login_url": h.steamAuth.LoginURL()})
}

// SteamCallback serves GET /api/library/steam/callback and links the
// verified Steam64 id to the caller.
func (h *LibraryHandler) SteamCallback(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no user in context"))
		return
	}
	steamID, err := h.steamAuth.VerifyCallback(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "openid_failed", err)
		return
	}
	account, err := h.adapters[library.PlatformSteam].VerifyAccount(c.Request.Context(), steamID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if err := h.links.Upsert(c.Request.Context(), nil, &library.PlatformLink{
		UserID:      userID,
		Platform:    library.PlatformSteam,
		AccountID:   account.ID,
		AccountName: account.Username,
	}); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, account)
}

// Sync serves POST /api/library/sync/:platform.
func (h *LibraryHandler) Sync(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no user in context"))
		return
	}
	platform, ok := parsePlatform(c)
	if !ok {
		return
	}
	delta, err := h.sync.SyncLibrary(c.Request.Context(), userID, platform)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, delta)
}

// Cache serves GET /api/library/cache/:platform, the matched/pending
// titles awaiting import.
func (h *LibraryHandler) Cache(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no user in context"))
		return
	}
	platform, ok := parsePlatform(c)
	if !ok {
		return
	}
	entries, err := h.cache.GetForUserPlatform(c.Request.Context(), nil, userID, platform)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, entries)
}

// Import serves POST /api/library/import/:platform.
func (h *LibraryHandler) Import(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no user in context"))
		return
	}
	platform, ok := parsePlatform(c)
	if !ok {
		return
	}
	var body struct {
		Items []services.ImportItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_body", err)
		return
	}
	delta, err := h.importer.ImportGames(c.Request.Context(), userID, platform, body.Items)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, delta)
}

// List serves GET /api/library, the user's full library.
func (h *LibraryHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no user in context"))
		return
	}
	entries, err := h.userGames.GetByUser(c.Request.Context(), nil, userID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, entries)
}
