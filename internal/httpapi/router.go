package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/auth"
	"github.com/JongGun06/dialx-back/internal/common"
	"github.com/JongGun06/dialx-back/internal/gateway"
	"github.com/JongGun06/dialx-back/internal/httpapi/handlers"
	"github.com/JongGun06/dialx-back/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, hub *gateway.Hub, verifier auth.Verifier) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// WebSocket gateway; authenticates inside the handler so it can
	// accept the dedicated token field.
	r.GET("/ws", hub.HandleWS)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(verifier))

	authGroup.GET("/chats", h.FindAllForUser)
	authGroup.GET("/chats/:id", h.FindChatByID)
	authGroup.GET("/chats/:id/messages", h.FindMessagesForChat)
	authGroup.POST("/chats/:id/messages", h.CreateMessage)
	authGroup.POST("/chats/private", h.CreateOrFindPrivateChat)
	authGroup.POST("/chats/group", h.CreateGroupChat)
	authGroup.PATCH("/chats/:id/avatar", h.UpdateChatAvatar)
	authGroup.PATCH("/chats/:id/members", h.AddMembers)
	authGroup.DELETE("/chats/:id/members/:memberId", h.RemoveMember)

	authGroup.POST("/characters", h.CreateCharacter)
	authGroup.GET("/characters", h.ListCharacters)
	authGroup.GET("/characters/:id/messages", h.FindMessagesForCharacter)
	authGroup.PATCH("/characters/:id/avatar", h.UpdateCharacterAvatar)

	return r
}
