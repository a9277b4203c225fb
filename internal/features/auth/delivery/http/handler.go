package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/auth/models"
	"xforce-terminal-backend/internal/features/auth/service"
)

type AuthHandler struct {
	auth    *service.AuthService
	wallets *service.WalletService
}

func NewAuthHandler(auth *service.AuthService, wallets *service.WalletService) *AuthHandler {
	return &AuthHandler{auth: auth, wallets: wallets}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.login)
		auth.GET("/me", requireAuth, h.me)

		wallet := auth.Group("/wallet")
		{
			wallet.POST("/complete-setup", h.completeSetup)
			wallet.POST("/login-challenge", h.loginChallenge)
			wallet.POST("/login", h.walletLogin)
		}
	}

	// The setup page opens this as a link, so the token rides in the
	// query string.
	router.GET("/wallet/setup/validate", h.validateSetup)
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "username, email and password are required"))
		return
	}

	resp, err := h.auth.Signup(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "emailOrUsername and password are required"))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) me(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) validateSetup(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		middleware.Abort(c, errors.NewValidationError("token", "required"))
		return
	}

	resp, err := h.wallets.ValidateSetup(c.Request.Context(), models.ValidateSetupRequest{SetupToken: token})
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) completeSetup(c *gin.Context) {
	var req models.CompleteSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "setup_token, wallet_address, signature and challenge are required"))
		return
	}

	resp, err := h.wallets.CompleteSetup(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) loginChallenge(c *gin.Context) {
	var req models.WalletChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("wallet_address", "required"))
		return
	}

	resp, err := h.wallets.LoginChallenge(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) walletLogin(c *gin.Context) {
	var req models.WalletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, errors.NewValidationError("body", "wallet_address, signature and challenge are required"))
		return
	}

	resp, err := h.wallets.Login(c.Request.Context(), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
