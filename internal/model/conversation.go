package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversationStatus 会话（连接请求）状态
type ConversationStatus string

const (
	StatusPending  ConversationStatus = "PENDING"
	StatusAccepted ConversationStatus = "ACCEPTED"
	StatusRejected ConversationStatus = "REJECTED"
)

// IsDecision 是否为合法的请求处理结果
func (s ConversationStatus) IsDecision() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Conversation 两个用户之间的关系记录，覆盖请求阶段与聊天阶段
type Conversation struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PairKey        string              `bson:"pair_key" json:"-"` // 有序 uid1:uid2，唯一索引
	Participants   []string            `bson:"participants" json:"participants"`
	Initiator      string              `bson:"initiator" json:"initiator"`
	RequestMessage string              `bson:"request_message,omitempty" json:"requestMessage,omitempty"`
	Status         ConversationStatus  `bson:"status" json:"status"`
	LastMessage    *primitive.ObjectID `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	UnreadCounts   map[string]int64    `bson:"unread_counts" json:"unreadCounts"`
	RemindedAt     *time.Time          `bson:"reminded_at,omitempty" json:"-"`
	CreatedAt      time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updatedAt"`
}

// PairKey 生成与顺序无关的会话唯一键
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// HasParticipant 判断用户是否为会话成员
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Counterpart 返回对方用户 ID
func (c *Conversation) Counterpart(userID string) (string, bool) {
	if !c.HasParticipant(userID) {
		return "", false
	}
	for _, p := range c.Participants {
		if p != userID {
			return p, true
		}
	}
	return "", false
}

// UnreadFor 返回指定用户的未读数，缺失时为 0
func (c *Conversation) UnreadFor(userID string) int64 {
	if c.UnreadCounts == nil {
		return 0
	}
	return c.UnreadCounts[userID]
}
