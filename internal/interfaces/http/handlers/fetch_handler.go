package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clipgate/clipgate/internal/application/service"
	"github.com/clipgate/clipgate/pkg/errors"
)

// FetchHandler exposes the fetch use case over HTTP.
type FetchHandler struct {
	fetchService service.FetchAppService
}

// NewFetchHandler creates a new FetchHandler.
func NewFetchHandler(fetchService service.FetchAppService) *FetchHandler {
	return &FetchHandler{fetchService: fetchService}
}

type previewRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	URL    string `json:"url" binding:"required"`
}

// Preview handles POST /v1/previews.
func (h *FetchHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("invalid request body").WithCause(err))
		return
	}

	preview, err := h.fetchService.Describe(c.Request.Context(), req.UserID, req.URL)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, preview)
}

// Fetch handles POST /v1/requests.
func (h *FetchHandler) Fetch(c *gin.Context) {
	var req service.FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("invalid request body").WithCause(err))
		return
	}

	result, err := h.fetchService.Fetch(c.Request.Context(), req)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, result)
}

// FetchPair handles POST /v1/requests/pair.
func (h *FetchHandler) FetchPair(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, errors.ErrInvalidRequest("invalid request body").WithCause(err))
		return
	}

	result, err := h.fetchService.FetchPair(c.Request.Context(), req.UserID, req.URL)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, result)
}

// ConfirmDelivery handles POST /v1/deliveries.
func (h *FetchHandler) ConfirmDelivery(c *gin.Context) {
	var conf service.DeliveryConfirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		sendError(c, errors.ErrInvalidRequest("invalid request body").WithCause(err))
		return
	}

	if err := h.fetchService.ConfirmDelivery(c.Request.Context(), conf); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}

// ResolveToken handles GET /v1/tokens/:token.
func (h *FetchHandler) ResolveToken(c *gin.Context) {
	token := c.Param("token")

	url, err := h.fetchService.ResolveToken(c.Request.Context(), token)
	if err != nil {
		sendError(c, err)
		return
	}
	if url == "" {
		sendError(c, errors.ErrNotFound("unknown or expired token"))
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{"url": url})
}

// UserStats handles GET /v1/users/:id/stats.
func (h *FetchHandler) UserStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		sendError(c, errors.ErrInvalidRequest("invalid user id"))
		return
	}

	stats, err := h.fetchService.UserStats(c.Request.Context(), userID)
	if err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, stats)
}
