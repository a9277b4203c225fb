package http

import (
	"context"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/contracts/batchswap"
	"xforce-terminal-backend/internal/features/contracts/models"
	"xforce-terminal-backend/internal/features/contracts/registry"
)

// Blockhasher supplies a recent blockhash for transaction composition.
type Blockhasher interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

type ContractsHandler struct {
	registry     *registry.Registry
	plugin       *batchswap.Plugin
	chain        Blockhasher
	feeRecipient string
}

func NewContractsHandler(reg *registry.Registry, plugin *batchswap.Plugin, chain Blockhasher, feeRecipient string) *ContractsHandler {
	return &ContractsHandler{registry: reg, plugin: plugin, chain: chain, feeRecipient: feeRecipient}
}

func (h *ContractsHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	contracts := router.Group("/contracts")
	{
		contracts.GET("", h.list)
		contracts.GET("/:name", h.get)
		contracts.GET("/:name/metadata", h.metadata)
		contracts.GET("/:name/health", h.health)
		contracts.POST("/batch-swap", requireAuth, h.batchSwap)
		contracts.POST("/execute-swap", requireAuth, h.executeSwap)
	}
}

func (h *ContractsHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"contracts": h.registry.All()})
}

func (h *ContractsHandler) get(c *gin.Context) {
	name := c.Param("name")
	plugin, ok := h.registry.Get(name)
	if !ok {
		middleware.Abort(c, errors.NewNotFoundError("plugin", name))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"name":      plugin.Name(),
		"version":   plugin.Version(),
		"programId": plugin.ProgramID(),
	})
}

func (h *ContractsHandler) metadata(c *gin.Context) {
	name := c.Param("name")
	plugin, ok := h.registry.Get(name)
	if !ok {
		middleware.Abort(c, errors.NewNotFoundError("plugin", name))
		return
	}
	c.JSON(http.StatusOK, plugin.Metadata())
}

func (h *ContractsHandler) health(c *gin.Context) {
	name := c.Param("name")
	plugin, ok := h.registry.Get(name)
	if !ok {
		middleware.Abort(c, errors.NewNotFoundError("plugin", name))
		return
	}

	if err := plugin.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"name": name, "healthy": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "healthy": true})
}

type batchSwapRequest struct {
	Transaction   string            `json:"transaction" binding:"required"`
	UserPublicKey string            `json:"userPublicKey" binding:"required"`
	Swaps         []models.SwapSpec `json:"swaps" binding:"required"`
	FeeRecipient  string            `json:"feeRecipient"`
}

func (h *ContractsHandler) batchSwap(c *gin.Context) {
	var req batchSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "transaction, userPublicKey and swaps are required"))
		return
	}

	composer := h.plugin.Composer()
	if composer == nil {
		middleware.Abort(c, errors.New(errors.ErrCodeInternal, "Batch swap plugin is not configured"))
		return
	}

	user, err := solana.PublicKeyFromBase58(req.UserPublicKey)
	if err != nil {
		middleware.Abort(c, errors.NewValidationError("userPublicKey", "invalid public key"))
		return
	}

	recipient := req.FeeRecipient
	if recipient == "" {
		recipient = h.feeRecipient
	}
	var feeRecipient *solana.PublicKey
	if recipient != "" {
		fr, err := solana.PublicKeyFromBase58(recipient)
		if err != nil {
			middleware.Abort(c, errors.NewValidationError("feeRecipient", "invalid public key"))
			return
		}
		feeRecipient = &fr
	}

	blockhash, lastValid, err := h.chain.LatestBlockhash(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	composed, err := composer.ComposeBatch(req.Transaction, user, req.Swaps, feeRecipient, blockhash)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction":          composed,
		"lastValidBlockHeight": lastValid,
		"swapCount":            len(req.Swaps),
	})
}

type executeSwapRequest struct {
	UserPublicKey           string `json:"userPublicKey" binding:"required"`
	SourceTokenAccount      string `json:"sourceTokenAccount" binding:"required"`
	DestinationTokenAccount string `json:"destinationTokenAccount" binding:"required"`
	InputMint               string `json:"inputMint" binding:"required"`
	OutputMint              string `json:"outputMint" binding:"required"`
	Amount                  uint64 `json:"amount" binding:"required"`
	MinOutputAmount         uint64 `json:"minOutputAmount" binding:"required"`
	ExpectedOutputAmount    uint64 `json:"expectedOutputAmount"`
}

func (h *ContractsHandler) executeSwap(c *gin.Context) {
	var req executeSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "accounts, mints and amounts are required"))
		return
	}

	composer := h.plugin.Composer()
	if composer == nil {
		middleware.Abort(c, errors.New(errors.ErrCodeInternal, "Batch swap plugin is not configured"))
		return
	}

	keys := make([]solana.PublicKey, 0, 5)
	for _, field := range []struct {
		name  string
		value string
	}{
		{"userPublicKey", req.UserPublicKey},
		{"sourceTokenAccount", req.SourceTokenAccount},
		{"destinationTokenAccount", req.DestinationTokenAccount},
		{"inputMint", req.InputMint},
		{"outputMint", req.OutputMint},
	} {
		key, err := solana.PublicKeyFromBase58(field.value)
		if err != nil {
			middleware.Abort(c, errors.NewValidationError(field.name, "invalid public key"))
			return
		}
		keys = append(keys, key)
	}

	expected := req.ExpectedOutputAmount
	if expected == 0 {
		expected = req.MinOutputAmount
	}

	blockhash, lastValid, err := h.chain.LatestBlockhash(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	composed, err := composer.ComposeExecute(
		keys[0], keys[1], keys[2], keys[3], keys[4],
		req.Amount, req.MinOutputAmount, expected, blockhash,
	)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction":          composed,
		"lastValidBlockHeight": lastValid,
	})
}
