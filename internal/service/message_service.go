package service

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/model"
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageService 会话内消息收发与已读状态
type MessageService interface {
	SendMessage(ctx context.Context, senderID, conversationID, content string) (*model.Message, error)
	OpenConversation(ctx context.Context, viewerID, conversationID string, page, pageSize int) (*dto.ConversationMessagesDTO, error)
}

type messageServiceImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo repository.MessageRepo
	emitter     EventEmitter
}

func NewMessageService(convRepo repository.ConversationRepo, messageRepo repository.MessageRepo, emitter EventEmitter) MessageService {
	return &messageServiceImpl{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		emitter:     emitter,
	}
}

// SendMessage 仅 ACCEPTED 会话可发送；对方未读数通过单文档原子自增维护
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderID, conversationID, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	conv, err := loadConversation(ctx, s.convRepo, conversationID)
	if err != nil {
		return nil, err
	}
	recipientID, ok := conv.Counterpart(senderID)
	if !ok {
		return nil, ErrNotParticipant
	}
	if conv.Status != model.StatusAccepted {
		return nil, ErrNotConnected
	}

	msg := &model.Message{
		ID:           primitive.NewObjectID(),
		Conversation: conv.ID,
		Sender:       senderID,
		Content:      content,
		IsRead:       false,
		CreatedAt:    time.Now(),
	}
	if err = s.messageRepo.SaveMessage(ctx, msg); err != nil {
		log.ErrorContext(ctx, "save message failed", "conversationID", conversationID, "err", err)
		return nil, UnExpectedError
	}

	applied, err := s.convRepo.AppendMessage(ctx, conv.ID, msg.ID, recipientID)
	if err != nil || !applied {
		// 会话摘要未更新，撤回已写入的消息
		if delErr := s.messageRepo.DeleteMessage(ctx, msg.ID); delErr != nil {
			log.ErrorContext(ctx, "rollback message failed", "messageID", msg.ID.Hex(), "err", delErr)
		}
		if err != nil {
			log.ErrorContext(ctx, "append message to conversation failed", "conversationID", conversationID, "err", err)
			return nil, UnExpectedError
		}
		return nil, ErrNotConnected
	}

	s.emitter.EmitToUser(recipientID, consts.EventNewMessage, msg)
	return msg, nil
}

// OpenConversation 拉取历史消息；只有第一页视为已读
func (s *messageServiceImpl) OpenConversation(ctx context.Context, viewerID, conversationID string, page, pageSize int) (*dto.ConversationMessagesDTO, error) {
	conv, err := loadConversation(ctx, s.convRepo, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}

	if page < 1 {
		page = 1
	}
	skip, limit := pageWindow(page, pageSize)
	messages, err := s.messageRepo.GetHistory(ctx, conv.ID, skip, limit)
	if err != nil {
		log.ErrorContext(ctx, "get message history failed", "conversationID", conversationID, "err", err)
		return nil, UnExpectedError
	}

	if page == 1 {
		if err = s.convRepo.ResetUnread(ctx, conv.ID, viewerID); err != nil {
			log.ErrorContext(ctx, "reset unread failed", "conversationID", conversationID, "err", err)
			return nil, UnExpectedError
		}
		if _, err = s.messageRepo.MarkReadFromOthers(ctx, conv.ID, viewerID); err != nil {
			log.ErrorContext(ctx, "mark messages read failed", "conversationID", conversationID, "err", err)
			return nil, UnExpectedError
		}
		for _, m := range messages {
			if m.Sender != viewerID {
				m.IsRead = true
			}
		}
	}

	// 查询为倒序，返回前翻转为时间正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return &dto.ConversationMessagesDTO{
		ConversationID: conversationID,
		Page:           page,
		PageSize:       int(limit),
		Messages:       messages,
	}, nil
}
