package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/swap/models"
	"xforce-terminal-backend/internal/features/swap/service"
)

type SwapHandler struct {
	swaps *service.SwapService
}

func NewSwapHandler(swaps *service.SwapService) *SwapHandler {
	return &SwapHandler{swaps: swaps}
}

func (h *SwapHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	swap := router.Group("/swap")
	{
		swap.GET("/quote", h.quote)
		swap.POST("/execute", requireAuth, h.execute)
	}

	tx := router.Group("/transactions")
	tx.Use(requireAuth)
	{
		tx.POST("/submit", h.submit)
		tx.GET("", h.history)
	}
}

func (h *SwapHandler) quote(c *gin.Context) {
	inputMint := c.Query("inputMint")
	outputMint := c.Query("outputMint")
	if inputMint == "" || outputMint == "" {
		middleware.Abort(c, errors.NewValidationError("mints", "inputMint and outputMint are required"))
		return
	}

	amount, err := strconv.ParseUint(c.Query("amount"), 10, 64)
	if err != nil || amount == 0 {
		middleware.Abort(c, errors.NewValidationError("amount", "must be a positive integer in base units"))
		return
	}

	slippageBps := 0
	if raw := c.Query("slippageBps"); raw != "" {
		slippageBps, err = strconv.Atoi(raw)
		if err != nil || slippageBps < 0 {
			middleware.Abort(c, errors.NewValidationError("slippageBps", "must be a non-negative integer"))
			return
		}
	}

	quote, route, err := h.swaps.Quote(c.Request.Context(), inputMint, outputMint, amount, slippageBps)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote, "route": route})
}

func (h *SwapHandler) execute(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	var req models.ExecuteSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "inputMint, outputMint and amount are required"))
		return
	}

	resp, err := h.swaps.Execute(c.Request.Context(), userID, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SwapHandler) submit(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	var req models.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "signedTransaction, mints and amounts are required"))
		return
	}

	resp, err := h.swaps.Submit(c.Request.Context(), userID, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SwapHandler) history(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	swaps, err := h.swaps.History(c.Request.Context(), userID, limit)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	if swaps == nil {
		swaps = []models.Swap{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": swaps})
}
