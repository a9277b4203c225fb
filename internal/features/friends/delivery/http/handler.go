package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/common/middleware"
	"xforce-terminal-backend/internal/features/friends/models"
	"xforce-terminal-backend/internal/features/friends/service"
)

type FriendsHandler struct {
	friends *service.FriendsService
}

func NewFriendsHandler(friends *service.FriendsService) *FriendsHandler {
	return &FriendsHandler{friends: friends}
}

func (h *FriendsHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	friends := router.Group("/friends")
	friends.Use(requireAuth)
	{
		friends.GET("", h.list)
		friends.POST("/request", h.request)
		friends.POST("/:id/accept", h.accept)
		friends.POST("/:id/reject", h.reject)
		friends.POST("/:id/block", h.block)
	}

	router.GET("/users/search", requireAuth, h.search)
}

func callerAndTarget(c *gin.Context) (int64, int64, bool) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return 0, 0, false
	}
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		middleware.Abort(c, errors.NewValidationError("id", "must be a numeric user id"))
		return 0, 0, false
	}
	return userID, targetID, true
}

func (h *FriendsHandler) list(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	resp, err := h.friends.List(c.Request.Context(), userID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FriendsHandler) request(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	var body models.FriendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.Abort(c, errors.NewValidationError("user_id", "required"))
		return
	}

	if err := h.friends.Request(c.Request.Context(), userID, body.UserID); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusPending})
}

func (h *FriendsHandler) accept(c *gin.Context) {
	userID, targetID, ok := callerAndTarget(c)
	if !ok {
		return
	}
	if err := h.friends.Accept(c.Request.Context(), userID, targetID); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusAccepted})
}

func (h *FriendsHandler) reject(c *gin.Context) {
	userID, targetID, ok := callerAndTarget(c)
	if !ok {
		return
	}
	if err := h.friends.Reject(c.Request.Context(), userID, targetID); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusRejected})
}

func (h *FriendsHandler) block(c *gin.Context) {
	userID, targetID, ok := callerAndTarget(c)
	if !ok {
		return
	}
	if err := h.friends.Block(c.Request.Context(), userID, targetID); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusBlocked})
}

func (h *FriendsHandler) search(c *gin.Context) {
	userID, ok := middleware.AuthUserID(c)
	if !ok {
		middleware.Abort(c, errors.NewUnauthorizedError("Authentication required"))
		return
	}

	results, err := h.friends.SearchUsers(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": results})
}
