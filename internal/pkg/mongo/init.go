package mongo

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ConversationCollection = "conversations"
	MessageCollection      = "messages"
	UserCollection         = "users"
)

// InitMongo 建立连接并返回 Database 引用，同时初始化 Schema
func InitMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 建立连接
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URL).
		SetMonitor(logger.NewMongoMonitor()),
	)
	if err != nil {
		return nil, err
	}

	// 检查连通性
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)

	if err = EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}

	log.Info("MongoDB initialized successfully", "db", cfg.Database)
	return db, nil
}

// EnsureIndexes 创建业务所需索引（幂等）
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ConversationCollection: {
			// 每对用户至多一个会话
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_pair_key")},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "status", Value: 1}, {Key: "updated_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
		},
		MessageCollection: {
			{Keys: bson.D{{Key: "conversation", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "conversation", Value: 1}, {Key: "is_read", Value: 1}, {Key: "sender", Value: 1}}},
		},
		UserCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

// Disconnect 关闭底层客户端
func Disconnect(ctx context.Context, db *mongo.Database) {
	if db == nil {
		return
	}
	if err := db.Client().Disconnect(ctx); err != nil {
		log.Error("MongoDB disconnect failed", "err", err)
	}
}
