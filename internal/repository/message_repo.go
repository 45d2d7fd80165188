package repository

import (
	"Alumnet/internal/model"
	mongoPkg "Alumnet/internal/pkg/mongo"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *model.Message) error
	DeleteMessage(ctx context.Context, msgID primitive.ObjectID) error
	GetMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Message, error)
	GetHistory(ctx context.Context, convID primitive.ObjectID, skip, limit int64) ([]*model.Message, error)
	MarkReadFromOthers(ctx context.Context, convID primitive.ObjectID, viewerID string) (int64, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection(mongoPkg.MessageCollection),
	}
}

// markReadFilter 对方发送且未读的消息
func markReadFilter(convID primitive.ObjectID, viewerID string) bson.M {
	return bson.M{
		"conversation": convID,
		"sender":       bson.M{"$ne": viewerID},
		"is_read":      false,
	}
}

// SaveMessage 将消息存入 MongoDB
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, msg)
	return err
}

// DeleteMessage 会话更新失败时回滚已写入的消息
func (s *messageRepoImpl) DeleteMessage(ctx context.Context, msgID primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": msgID})
	return err
}

// GetMessagesByIDs 批量查询（会话列表的最后一条消息）
func (s *messageRepoImpl) GetMessagesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.Message, error) {
	if len(ids) == 0 {
		return []*model.Message{}, nil
	}
	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	messages := make([]*model.Message, 0, len(ids))
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetHistory 按时间倒序分页拉取，最新的在前
func (s *messageRepoImpl) GetHistory(ctx context.Context, convID primitive.ObjectID, skip, limit int64) ([]*model.Message, error) {
	findOptions := options.Find().
		SetSort(bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, bson.M{"conversation": convID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	messages := make([]*model.Message, 0)
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkReadFromOthers 将对方发来的未读消息全部标记为已读
func (s *messageRepoImpl) MarkReadFromOthers(ctx context.Context, convID primitive.ObjectID, viewerID string) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		markReadFilter(convID, viewerID),
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
