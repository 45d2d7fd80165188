package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 会话中的一条消息，除 IsRead 外不可变
type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Conversation primitive.ObjectID `bson:"conversation" json:"conversationId"`
	Sender       string             `bson:"sender" json:"sender"`
	Content      string             `bson:"content" json:"content"`
	IsRead       bool               `bson:"is_read" json:"isRead"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
}
