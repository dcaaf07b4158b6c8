package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/common"
)

type createCharacterReq struct {
	Name      string `json:"name" binding:"required"`
	Persona   string `json:"persona" binding:"required"`
	AvatarURL string `json:"avatarUrl"`
}

func (h *Handler) CreateCharacter(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createCharacterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	character, err := h.CharSvc.CreateCharacter(c.Request.Context(), uid, req.Name, req.Persona, req.AvatarURL)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, character)
}

func (h *Handler) ListCharacters(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	characters, err := h.CharSvc.CharactersForUser(c.Request.Context(), uid)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, gin.H{"characters": characters})
}

func (h *Handler) FindMessagesForCharacter(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	views, err := h.CharSvc.MessagesForCharacter(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, gin.H{"messages": views})
}

func (h *Handler) UpdateCharacterAvatar(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req updateAvatarReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	character, err := h.CharSvc.UpdateCharacterAvatar(c.Request.Context(), c.Param("id"), uid, req.AvatarURL)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, character)
}
