package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/aichar"
	"github.com/JongGun06/dialx-back/internal/chat"
	"github.com/JongGun06/dialx-back/internal/common"
	"github.com/JongGun06/dialx-back/internal/httpapi/middleware"
)

type Handler struct {
	ChatSvc *chat.Service
	CharSvc *aichar.Service
}

func NewHandler(chatSvc *chat.Service, charSvc *aichar.Service) *Handler {
	return &Handler{ChatSvc: chatSvc, CharSvc: charSvc}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func userIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
