package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JongGun06/dialx-back/internal/common"
)

type createMessageReq struct {
	Content  string `json:"content"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

func (h *Handler) CreateMessage(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	view, err := h.ChatSvc.CreateMessage(c.Request.Context(), c.Param("id"), uid, req.Content, req.FileURL, req.FileType)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, view)
}

func (h *Handler) FindAllForUser(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	views, err := h.ChatSvc.FindAllForUser(c.Request.Context(), uid)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, gin.H{"chats": views})
}

func (h *Handler) FindChatByID(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	view, err := h.ChatSvc.FindChatByID(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, view)
}

func (h *Handler) FindMessagesForChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	views, err := h.ChatSvc.FindMessagesForChat(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, gin.H{"messages": views})
}

type createPrivateChatReq struct {
	ProfileID string `json:"profileId" binding:"required"`
}

func (h *Handler) CreateOrFindPrivateChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createPrivateChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	view, err := h.ChatSvc.CreateOrFindPrivateChat(c.Request.Context(), uid, req.ProfileID)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, view)
}

type createGroupChatReq struct {
	Name       string   `json:"name" binding:"required"`
	ProfileIDs []string `json:"profileIds"`
	AvatarURL  string   `json:"avatarUrl"`
}

func (h *Handler) CreateGroupChat(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createGroupChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	view, err := h.ChatSvc.CreateGroupChat(c.Request.Context(), uid, req.ProfileIDs, req.Name, req.AvatarURL)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, view)
}

type updateAvatarReq struct {
	AvatarURL string `json:"avatarUrl" binding:"required"`
}

func (h *Handler) UpdateChatAvatar(c *gin.Context) {
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

	view, err := h.ChatSvc.UpdateAvatar(c.Request.Context(), c.Param("id"), uid, req.AvatarURL)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, view)
}

type manageMembersReq struct {
	ProfileIDs []string `json:"profileIds" binding:"required"`
}

func (h *Handler) AddMembers(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req manageMembersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	view, err := h.ChatSvc.AddMembers(c.Request.Context(), c.Param("id"), uid, req.ProfileIDs)
	if err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, view)
}

func (h *Handler) RemoveMember(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	if err := h.ChatSvc.RemoveMember(c.Request.Context(), c.Param("id"), uid, c.Param("memberId")); err != nil {
		common.FailErr(c, err)
		return
	}
	common.OK(c, nil)
}
