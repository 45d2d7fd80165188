package service

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/model"
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/repository"
	"context"
	"math"
	log "log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Actor 由鉴权层提供的调用者身份
type Actor struct {
	UserID string
	Name   string
}

func (a Actor) displayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.UserID
}

// EventEmitter 向在线用户投递实时事件，不在线时丢弃
type EventEmitter interface {
	EmitToUser(userID, event string, payload any) bool
}

// IdentityLookup 批量解析用户公开身份
type IdentityLookup interface {
	GetUserSimpleInfos(ctx context.Context, ids []string) (map[string]*dto.UserSimpleDTO, error)
}

// ChatService 连接请求状态机
type ChatService interface {
	RequestConnection(ctx context.Context, requester Actor, targetID, message string) (*dto.ConversationDTO, error)
	ResolveRequest(ctx context.Context, actor Actor, conversationID string, decision string) (*dto.ConversationDTO, error)
	ListPendingRequestsReceived(ctx context.Context, userID string, page, pageSize int) (*dto.Page[*dto.ConversationDTO], error)
	ListActiveConversations(ctx context.Context, userID string, page, pageSize int) (*dto.Page[*dto.ConversationDTO], error)
	RemindStalePending(ctx context.Context, olderThan time.Duration, batch int64) (int, error)
}

type chatServiceImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo repository.MessageRepo
	userRepo    repository.UserRepo
	identity    IdentityLookup
	emitter     EventEmitter
	notifier    Notifier
}

func NewChatService(
	convRepo repository.ConversationRepo,
	messageRepo repository.MessageRepo,
	userRepo repository.UserRepo,
	identity IdentityLookup,
	emitter EventEmitter,
	notifier Notifier,
) ChatService {
	return &chatServiceImpl{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		identity:    identity,
		emitter:     emitter,
		notifier:    notifier,
	}
}

// RequestConnection 发起连接请求；被拒绝过的会话重新进入 PENDING
func (s *chatServiceImpl) RequestConnection(ctx context.Context, requester Actor, targetID, message string) (*dto.ConversationDTO, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" || requester.UserID == "" {
		return nil, ErrParamInvalid
	}
	if requester.UserID == targetID {
		return nil, ErrSelfRequest
	}
	message = strings.TrimSpace(message)

	target, err := s.userRepo.GetUserById(ctx, targetID)
	if err != nil {
		log.ErrorContext(ctx, "get target user failed", "targetID", targetID, "err", err)
		return nil, UnExpectedError
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	pairKey := model.PairKey(requester.UserID, targetID)
	conv, err := s.convRepo.GetConversationByPairKey(ctx, pairKey)
	if err != nil {
		log.ErrorContext(ctx, "get conversation by pair failed", "pairKey", pairKey, "err", err)
		return nil, UnExpectedError
	}

	now := time.Now()
	if conv == nil {
		conv = &model.Conversation{
			PairKey:        pairKey,
			Participants:   []string{requester.UserID, targetID},
			Initiator:      requester.UserID,
			RequestMessage: message,
			Status:         model.StatusPending,
			UnreadCounts:   map[string]int64{requester.UserID: 0, targetID: 0},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err = s.convRepo.CreateConversation(ctx, conv); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				// 同一对用户并发首次请求，唯一索引拦下后到的一方
				return nil, s.conflictForPair(ctx, pairKey)
			}
			log.ErrorContext(ctx, "create conversation failed", "pairKey", pairKey, "err", err)
			return nil, UnExpectedError
		}
	} else {
		switch conv.Status {
		case model.StatusPending:
			return nil, ErrRequestPending
		case model.StatusAccepted:
			return nil, ErrAlreadyConnected
		}

		ok, err := s.convRepo.ReopenRequest(ctx, conv.ID, requester.UserID, message)
		if err != nil {
			log.ErrorContext(ctx, "reopen request failed", "conversationID", conv.ID.Hex(), "err", err)
			return nil, UnExpectedError
		}
		if !ok {
			return nil, s.conflictFor(ctx, conv.ID)
		}
		conv.Status = model.StatusPending
		conv.Initiator = requester.UserID
		conv.RequestMessage = message
		conv.RemindedAt = nil
		conv.UpdatedAt = now
	}

	convID := conv.ID.Hex()
	s.emitter.EmitToUser(targetID, consts.EventNewRequest, &dto.NewRequestEvent{
		SenderName:     requester.displayName(),
		ConversationID: convID,
	})
	s.notifier.NotifyUser(ctx, targetID,
		"New connection request",
		connectionRequestMail(requester.displayName(), message),
	)

	log.InfoContext(ctx, "connection requested", "conversationID", convID, "requester", requester.UserID, "target", targetID)
	return s.toConversationDTO(ctx, conv, requester.UserID, nil), nil
}

// ResolveRequest 接受或拒绝收到的请求，发起人不能处理自己的请求
func (s *chatServiceImpl) ResolveRequest(ctx context.Context, actor Actor, conversationID string, decision string) (*dto.ConversationDTO, error) {
	status := model.ConversationStatus(strings.ToUpper(strings.TrimSpace(decision)))
	if !status.IsDecision() {
		return nil, ErrInvalidDecision
	}

	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actor.UserID) {
		return nil, ErrNotParticipant
	}
	if conv.Initiator == actor.UserID {
		return nil, ErrCannotResolveOwnRequest
	}
	if conv.Status != model.StatusPending {
		return nil, ErrRequestResolved
	}

	ok, err := s.convRepo.ResolveRequest(ctx, conv.ID, status, conv.Participants)
	if err != nil {
		log.ErrorContext(ctx, "resolve request failed", "conversationID", conversationID, "err", err)
		return nil, UnExpectedError
	}
	if !ok {
		return nil, ErrRequestResolved
	}

	conv.Status = status
	conv.UpdatedAt = time.Now()
	if status == model.StatusAccepted {
		if conv.UnreadCounts == nil {
			conv.UnreadCounts = make(map[string]int64, len(conv.Participants))
		}
		for _, p := range conv.Participants {
			if _, exists := conv.UnreadCounts[p]; !exists {
				conv.UnreadCounts[p] = 0
			}
		}

		s.emitter.EmitToUser(conv.Initiator, consts.EventRequestAccepted, &dto.RequestAcceptedEvent{
			ConversationID: conversationID,
			AccepterName:   actor.displayName(),
		})
		s.notifier.NotifyUser(ctx, conv.Initiator,
			"Your connection request was accepted",
			requestAcceptedMail(actor.displayName()),
		)
	}

	log.InfoContext(ctx, "connection request resolved", "conversationID", conversationID, "actor", actor.UserID, "status", status)
	return s.toConversationDTO(ctx, conv, actor.UserID, nil), nil
}

// ListPendingRequestsReceived 收到且未处理的请求
func (s *chatServiceImpl) ListPendingRequestsReceived(ctx context.Context, userID string, page, pageSize int) (*dto.Page[*dto.ConversationDTO], error) {
	skip, limit := pageWindow(page, pageSize)
	list, total, err := s.convRepo.ListPendingReceived(ctx, userID, skip, limit)
	if err != nil {
		log.ErrorContext(ctx, "list pending requests failed", "userID", userID, "err", err)
		return nil, UnExpectedError
	}
	return s.toPage(ctx, list, total, userID, page, pageSize, false), nil
}

// ListActiveConversations 已连接会话，附带对方身份、最后一条消息与未读数
func (s *chatServiceImpl) ListActiveConversations(ctx context.Context, userID string, page, pageSize int) (*dto.Page[*dto.ConversationDTO], error) {
	skip, limit := pageWindow(page, pageSize)
	list, total, err := s.convRepo.ListActive(ctx, userID, skip, limit)
	if err != nil {
		log.ErrorContext(ctx, "list active conversations failed", "userID", userID, "err", err)
		return nil, UnExpectedError
	}
	return s.toPage(ctx, list, total, userID, page, pageSize, true), nil
}

// RemindStalePending 提醒长时间未处理请求的接收方，每个请求只提醒一次
func (s *chatServiceImpl) RemindStalePending(ctx context.Context, olderThan time.Duration, batch int64) (int, error) {
	now := time.Now()
	list, err := s.convRepo.ListStalePending(ctx, now.Add(-olderThan), batch)
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}

	initiators := make([]string, 0, len(list))
	for _, conv := range list {
		initiators = append(initiators, conv.Initiator)
	}
	identities := s.lookupIdentities(ctx, initiators)

	reminded := 0
	for _, conv := range list {
		target, ok := conv.Counterpart(conv.Initiator)
		if !ok {
			continue
		}
		senderName := conv.Initiator
		if info, ok := identities[conv.Initiator]; ok && info.FullName != "" {
			senderName = info.FullName
		}

		ok, err = s.convRepo.MarkReminded(ctx, conv.ID, now)
		if err != nil {
			log.ErrorContext(ctx, "mark reminded failed", "conversationID", conv.ID.Hex(), "err", err)
			continue
		}
		// 扫描之后已被处理
		if !ok {
			continue
		}
		s.notifier.NotifyUser(ctx, target, "Pending connection request", pendingReminderMail(senderName))
		reminded++
	}
	return reminded, nil
}

func (s *chatServiceImpl) loadConversation(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return loadConversation(ctx, s.convRepo, conversationID)
}

// conflictFor 条件更新未命中时，按最新状态给出冲突原因
func (s *chatServiceImpl) conflictFor(ctx context.Context, convID primitive.ObjectID) error {
	latest, err := s.convRepo.GetConversation(ctx, convID)
	if err != nil {
		return ErrConversationExists
	}
	return conflictOf(latest)
}

// conflictForPair 唯一索引冲突后按 pair_key 重新读取
func (s *chatServiceImpl) conflictForPair(ctx context.Context, pairKey string) error {
	latest, err := s.convRepo.GetConversationByPairKey(ctx, pairKey)
	if err != nil {
		log.WarnContext(ctx, "reload conversation after duplicate key failed", "pairKey", pairKey, "err", err)
		return ErrConversationExists
	}
	return conflictOf(latest)
}

func conflictOf(latest *model.Conversation) error {
	if latest == nil {
		return ErrConversationExists
	}
	switch latest.Status {
	case model.StatusAccepted:
		return ErrAlreadyConnected
	case model.StatusPending:
		return ErrRequestPending
	default:
		return ErrConversationExists
	}
}

func (s *chatServiceImpl) toPage(ctx context.Context, list []*model.Conversation, total int64, viewerID string, page, pageSize int, withLastMessage bool) *dto.Page[*dto.ConversationDTO] {
	counterpartIDs := make([]string, 0, len(list))
	lastIDs := make([]primitive.ObjectID, 0, len(list))
	for _, conv := range list {
		if other, ok := conv.Counterpart(viewerID); ok {
			counterpartIDs = append(counterpartIDs, other)
		}
		if withLastMessage && conv.LastMessage != nil {
			lastIDs = append(lastIDs, *conv.LastMessage)
		}
	}

	identities := s.lookupIdentities(ctx, counterpartIDs)

	lastMessages := make(map[primitive.ObjectID]*model.Message, len(lastIDs))
	if len(lastIDs) > 0 {
		messages, err := s.messageRepo.GetMessagesByIDs(ctx, lastIDs)
		if err != nil {
			log.WarnContext(ctx, "load last messages failed", "err", err)
		}
		for _, m := range messages {
			lastMessages[m.ID] = m
		}
	}

	items := make([]*dto.ConversationDTO, 0, len(list))
	for _, conv := range list {
		item := newConversationDTO(conv, viewerID)
		if other, ok := conv.Counterpart(viewerID); ok {
			item.Counterpart = identities[other]
		}
		if conv.LastMessage != nil {
			item.LastMessage = lastMessages[*conv.LastMessage]
		}
		items = append(items, item)
	}

	return &dto.Page[*dto.ConversationDTO]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}

func (s *chatServiceImpl) toConversationDTO(ctx context.Context, conv *model.Conversation, viewerID string, last *model.Message) *dto.ConversationDTO {
	item := newConversationDTO(conv, viewerID)
	item.LastMessage = last
	if other, ok := conv.Counterpart(viewerID); ok {
		item.Counterpart = s.lookupIdentities(ctx, []string{other})[other]
	}
	return item
}

// lookupIdentities 身份只用于展示，失败时降级为空
func (s *chatServiceImpl) lookupIdentities(ctx context.Context, ids []string) map[string]*dto.UserSimpleDTO {
	if len(ids) == 0 || s.identity == nil {
		return map[string]*dto.UserSimpleDTO{}
	}
	identities, err := s.identity.GetUserSimpleInfos(ctx, ids)
	if err != nil {
		log.WarnContext(ctx, "identity lookup failed", "err", err)
		return map[string]*dto.UserSimpleDTO{}
	}
	return identities
}

func newConversationDTO(conv *model.Conversation, viewerID string) *dto.ConversationDTO {
	return &dto.ConversationDTO{
		ID:             conv.ID.Hex(),
		Participants:   conv.Participants,
		Initiator:      conv.Initiator,
		RequestMessage: conv.RequestMessage,
		Status:         conv.Status,
		UnreadCount:    conv.UnreadFor(viewerID),
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}
}

func loadConversation(ctx context.Context, convRepo repository.ConversationRepo, conversationID string) (*model.Conversation, error) {
	oid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	conv, err := convRepo.GetConversation(ctx, oid)
	if err != nil {
		log.ErrorContext(ctx, "get conversation failed", "conversationID", conversationID, "err", err)
		return nil, UnExpectedError
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// pageWindow page 从 1 开始，页码过大时 skip 截断为 MaxInt64（结果为空页）
func pageWindow(page, pageSize int) (skip, limit int64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	limit = int64(pageSize)
	if int64(page-1) > math.MaxInt64/limit {
		return math.MaxInt64, limit
	}
	return int64(page-1) * limit, limit
}
