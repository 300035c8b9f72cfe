package push

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bhawani9828/slack-clone-sub001/logger"
)

type registerTokenReq struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
	UserID   string `json:"userId"`
}

// RegisterTokenHandler accepts a device token upload and replaces the
// caller's binding for that platform.
func RegisterTokenHandler(store TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerTokenReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
			return
		}
		userID := c.GetString("userId")
		if userID == "" {
			userID = req.UserID
		}
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if req.Platform == "" {
			req.Platform = "web"
		}
		b := TokenBinding{
			UserID:    userID,
			Token:     req.Token,
			Platform:  req.Platform,
			UpdatedAt: time.Now(),
		}
		if err := store.Save(c.Request.Context(), b); err != nil {
			logger.Errorf("push: save token for %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store failure"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
