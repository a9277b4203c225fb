package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/middleware"
	sol "xforce-terminal-backend/internal/platform/solana"
)

// ChainHandler exposes read-only node queries.
type ChainHandler struct {
	chain *sol.Client
}

func NewChainHandler(chain *sol.Client) *ChainHandler {
	return &ChainHandler{chain: chain}
}

func (h *ChainHandler) RegisterRoutes(router *gin.RouterGroup) {
	chain := router.Group("/chain")
	{
		chain.GET("/health", h.health)
		chain.GET("/epoch", h.epoch)
		chain.GET("/account/:address", h.account)
		chain.GET("/account/:address/signatures", h.signatures)
	}
}

func (h *ChainHandler) health(c *gin.Context) {
	version, err := h.chain.Health(c.Request.Context())
	if err != nil {
		middleware.Abort(c, errors.NewChainError("health check failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"network": h.chain.Network(),
		"version": version,
	})
}

func (h *ChainHandler) epoch(c *gin.Context) {
	info, err := h.chain.EpochInfo(c.Request.Context())
	if err != nil {
		middleware.Abort(c, errors.NewChainError("epoch query failed", err))
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ChainHandler) account(c *gin.Context) {
	info, err := h.chain.Account(c.Request.Context(), c.Param("address"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ChainHandler) signatures(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			middleware.Abort(c, errors.NewValidationError("limit", "limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}

	sigs, err := h.chain.SignaturesForAddress(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signatures": sigs})
}
