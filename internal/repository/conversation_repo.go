package repository

import (
	"Alumnet/internal/model"
	mongoPkg "Alumnet/internal/pkg/mongo"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, convID primitive.ObjectID) (*model.Conversation, error)
	GetConversationByPairKey(ctx context.Context, pairKey string) (*model.Conversation, error)

	ReopenRequest(ctx context.Context, convID primitive.ObjectID, requesterID, message string) (bool, error)
	ResolveRequest(ctx context.Context, convID primitive.ObjectID, decision model.ConversationStatus, participants []string) (bool, error)
	AppendMessage(ctx context.Context, convID primitive.ObjectID, msgID primitive.ObjectID, recipientID string) (bool, error)
	ResetUnread(ctx context.Context, convID primitive.ObjectID, userID string) error

	ListPendingReceived(ctx context.Context, userID string, skip, limit int64) ([]*model.Conversation, int64, error)
	ListActive(ctx context.Context, userID string, skip, limit int64) ([]*model.Conversation, int64, error)
	ListStalePending(ctx context.Context, before time.Time, limit int64) ([]*model.Conversation, error)
	MarkReminded(ctx context.Context, convID primitive.ObjectID, at time.Time) (bool, error)
}

type conversationRepoImpl struct {
	col *mongo.Collection
}

func NewConversationRepo(db *mongo.Database) ConversationRepo {
	return &conversationRepoImpl{
		col: db.Collection(mongoPkg.ConversationCollection),
	}
}

// unreadKey 未读计数字段路径
func unreadKey(userID string) string {
	return "unread_counts." + userID
}

// reopenUpdate REJECTED -> PENDING，重置发起人与附言
func reopenUpdate(requesterID, message string, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"status":          model.StatusPending,
			"initiator":       requesterID,
			"request_message": message,
			"updated_at":      now,
		},
		"$unset": bson.M{"reminded_at": ""},
	}
}

// resolveUpdate 设置处理结果；接受时用 $inc 0 为缺失的计数补零而不覆盖已有值
func resolveUpdate(decision model.ConversationStatus, participants []string, now time.Time) bson.M {
	update := bson.M{
		"$set": bson.M{
			"status":     decision,
			"updated_at": now,
		},
	}
	if decision == model.StatusAccepted {
		inc := bson.M{}
		for _, p := range participants {
			inc[unreadKey(p)] = 0
		}
		update["$inc"] = inc
	}
	return update
}

// appendMessageUpdate 更新最后一条消息并原子自增对方未读数
func appendMessageUpdate(msgID primitive.ObjectID, recipientID string, now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"last_message": msgID,
			"updated_at":   now,
		},
		"$inc": bson.M{unreadKey(recipientID): 1},
	}
}

// CreateConversation 创建会话，pair_key 冲突时返回 mongo 重复键错误
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	res, err := s.col.InsertOne(ctx, conv)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		conv.ID = id
	}
	return nil
}

// GetConversation 根据会话 ID 获取会话，不存在时返回 nil
func (s *conversationRepoImpl) GetConversation(ctx context.Context, convID primitive.ObjectID) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.col.FindOne(ctx, bson.M{"_id": convID}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// GetConversationByPairKey 根据用户对获取会话
func (s *conversationRepoImpl) GetConversationByPairKey(ctx context.Context, pairKey string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.col.FindOne(ctx, bson.M{"pair_key": pairKey}).Decode(&conv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// ReopenRequest 仅当状态为 REJECTED 时重新发起
func (s *conversationRepoImpl) ReopenRequest(ctx context.Context, convID primitive.ObjectID, requesterID, message string) (bool, error) {
	filter := bson.M{"_id": convID, "status": model.StatusRejected}
	res, err := s.col.UpdateOne(ctx, filter, reopenUpdate(requesterID, message, time.Now()))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ResolveRequest 仅当状态为 PENDING 时接受/拒绝
func (s *conversationRepoImpl) ResolveRequest(ctx context.Context, convID primitive.ObjectID, decision model.ConversationStatus, participants []string) (bool, error) {
	filter := bson.M{"_id": convID, "status": model.StatusPending}
	res, err := s.col.UpdateOne(ctx, filter, resolveUpdate(decision, participants, time.Now()))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// AppendMessage 单文档原子更新：lastMessage + 对方未读 +1
func (s *conversationRepoImpl) AppendMessage(ctx context.Context, convID primitive.ObjectID, msgID primitive.ObjectID, recipientID string) (bool, error) {
	filter := bson.M{"_id": convID, "status": model.StatusAccepted}
	res, err := s.col.UpdateOne(ctx, filter, appendMessageUpdate(msgID, recipientID, time.Now()))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// ResetUnread 清零指定用户的未读数
func (s *conversationRepoImpl) ResetUnread(ctx context.Context, convID primitive.ObjectID, userID string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": convID},
		bson.M{"$set": bson.M{unreadKey(userID): 0}},
	)
	return err
}

// ListPendingReceived 收到的待处理请求，按时间倒序
func (s *conversationRepoImpl) ListPendingReceived(ctx context.Context, userID string, skip, limit int64) ([]*model.Conversation, int64, error) {
	filter := bson.M{
		"participants": userID,
		"initiator":    bson.M{"$ne": userID},
		"status":       model.StatusPending,
	}
	return s.findPage(ctx, filter, skip, limit)
}

// ListActive 已建立连接的会话，按最近更新排序
func (s *conversationRepoImpl) ListActive(ctx context.Context, userID string, skip, limit int64) ([]*model.Conversation, int64, error) {
	filter := bson.M{
		"participants": userID,
		"status":       model.StatusAccepted,
	}
	return s.findPage(ctx, filter, skip, limit)
}

// ListStalePending 长时间未处理且未提醒过的请求
func (s *conversationRepoImpl) ListStalePending(ctx context.Context, before time.Time, limit int64) ([]*model.Conversation, error) {
	filter := bson.M{
		"status":      model.StatusPending,
		"updated_at":  bson.M{"$lt": before},
		"reminded_at": bson.M{"$exists": false},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*model.Conversation, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkReminded 记录提醒时间
func (s *conversationRepoImpl) MarkReminded(ctx context.Context, convID primitive.ObjectID, at time.Time) (bool, error) {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": convID, "status": model.StatusPending},
		bson.M{"$set": bson.M{"reminded_at": at}},
	)
	return err
}

func (s *conversationRepoImpl) findPage(ctx context.Context, filter bson.M, skip, limit int64) ([]*model.Conversation, int64, error) {
	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "updated_at", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*model.Conversation, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
