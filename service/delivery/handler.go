package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type markReadReq struct {
	MessageID string `json:"messageId" binding:"required"`
}

// MarkReadHandler lets a client confirm a read over REST, used when
// the socket is gone but the app is still foregrounded.
func MarkReadHandler(p *Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req markReadReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messageId is required"})
			return
		}
		userID := c.GetString("userId")
		msg := p.Lookup(req.MessageID)
		if msg == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown message"})
			return
		}
		if userID != "" && msg.ReceiverID != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not the receiver"})
			return
		}
		changed := p.AckRead(req.MessageID)
		c.JSON(http.StatusOK, gin.H{"ok": true, "changed": changed})
	}
}
