package dto

import (
	"Alumnet/internal/model"
	"time"
)

// ConnectionRequestDTO 发起/重新发起连接请求
type ConnectionRequestDTO struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
	Message      string `json:"message" validate:"max=500"`
}

// ManageRequestDTO 处理连接请求
type ManageRequestDTO struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Status         string `json:"status" binding:"required"`
}

// SendMessageDTO 发送消息
type SendMessageDTO struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" validate:"max=4000"`
}

// ConversationDTO 会话摘要，附带对方身份与当前用户未读数
type ConversationDTO struct {
	ID             string                   `json:"id"`
	Participants   []string                 `json:"participants"`
	Initiator      string                   `json:"initiator"`
	RequestMessage string                   `json:"requestMessage,omitempty"`
	Status         model.ConversationStatus `json:"status"`
	Counterpart    *UserSimpleDTO           `json:"counterpart,omitempty"`
	LastMessage    *model.Message           `json:"lastMessage,omitempty"`
	UnreadCount    int64                    `json:"unreadCount"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// ConversationMessagesDTO 会话消息分页，按时间正序
type ConversationMessagesDTO struct {
	ConversationID string           `json:"conversationId"`
	Page           int              `json:"page"`
	PageSize       int              `json:"pageSize"`
	Messages       []*model.Message `json:"messages"`
}

// NewRequestEvent newRequest 事件负载
type NewRequestEvent struct {
	SenderName     string `json:"senderName"`
	ConversationID string `json:"conversationId"`
}

// RequestAcceptedEvent requestAccepted 事件负载
type RequestAcceptedEvent struct {
	ConversationID string `json:"conversationId"`
	AccepterName   string `json:"accepterName"`
}
