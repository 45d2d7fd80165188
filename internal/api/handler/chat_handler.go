package handler

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/api/dto"
	"Alumnet/internal/pkg/response"
	"Alumnet/internal/pkg/util"
	"Alumnet/internal/service"

	"github.com/gin-gonic/gin"
)

// Presence 在线用户查询
type Presence interface {
	OnlineUsers() []string
}

type ChatHandler struct {
	chatSvc    service.ChatService
	messageSvc service.MessageService
	presence   Presence
	pageCfg    config.ChatConfig
}

func NewChatHandler(chatSvc service.ChatService, messageSvc service.MessageService, presence Presence, pageCfg config.ChatConfig) *ChatHandler {
	return &ChatHandler{
		chatSvc:    chatSvc,
		messageSvc: messageSvc,
		presence:   presence,
		pageCfg:    pageCfg,
	}
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: c.GetString("user_id"),
		Name:   c.GetString("name"),
	}
}

func (s *ChatHandler) pagination(c *gin.Context) (int, int) {
	return util.ParsePagination(c.Query("page"), c.Query("pageSize"), s.pageCfg.DefaultPageSize, s.pageCfg.MaxPageSize)
}

// RequestConnection 发起连接请求
func (s *ChatHandler) RequestConnection(c *gin.Context) {
	var req dto.ConnectionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	conv, err := s.chatSvc.RequestConnection(c.Request.Context(), actorFrom(c), req.TargetUserID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conv)
}

// ManageRequest 接受或拒绝收到的请求
func (s *ChatHandler) ManageRequest(c *gin.Context) {
	var req dto.ManageRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	conv, err := s.chatSvc.ResolveRequest(c.Request.Context(), actorFrom(c), req.ConversationID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conv)
}

func (s *ChatHandler) GetPendingRequests(c *gin.Context) {
	page, pageSize := s.pagination(c)
	res, err := s.chatSvc.ListPendingRequestsReceived(c.Request.Context(), c.GetString("user_id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ChatHandler) GetMyChats(c *gin.Context) {
	page, pageSize := s.pagination(c)
	res, err := s.chatSvc.ListActiveConversations(c.Request.Context(), c.GetString("user_id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// SendMessage 发送消息
func (s *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	msg, err := s.messageSvc.SendMessage(c.Request.Context(), c.GetString("user_id"), req.ConversationID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msg)
}

// OpenConversation 获取历史消息，第一页会清零未读
func (s *ChatHandler) OpenConversation(c *gin.Context) {
	page, pageSize := s.pagination(c)
	res, err := s.messageSvc.OpenConversation(c.Request.Context(), c.GetString("user_id"), c.Param("conversationId"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ChatHandler) GetOnlineUsers(c *gin.Context) {
	response.Success(c, s.presence.OnlineUsers())
}
