package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKey_IsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("a1", "b2"), PairKey("b2", "a1"))
	assert.Equal(t, "a1:b2", PairKey("b2", "a1"))
}

func TestConversation_Counterpart(t *testing.T) {
	conv := &Conversation{Participants: []string{"u1", "u2"}}

	other, ok := conv.Counterpart("u1")
	assert.True(t, ok)
	assert.Equal(t, "u2", other)

	other, ok = conv.Counterpart("u2")
	assert.True(t, ok)
	assert.Equal(t, "u1", other)

	_, ok = conv.Counterpart("u3")
	assert.False(t, ok)
}

func TestConversation_UnreadForDefaultsToZero(t *testing.T) {
	conv := &Conversation{}
	assert.Equal(t, int64(0), conv.UnreadFor("u1"))

	conv.UnreadCounts = map[string]int64{"u1": 3}
	assert.Equal(t, int64(3), conv.UnreadFor("u1"))
	assert.Equal(t, int64(0), conv.UnreadFor("u2"))
}

func TestConversationStatus_IsDecision(t *testing.T) {
	tests := []struct {
		status ConversationStatus
		want   bool
	}{
		{StatusAccepted, true},
		{StatusRejected, true},
		{StatusPending, false},
		{ConversationStatus("accepted"), false},
		{ConversationStatus(""), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.IsDecision(), "status %q", tt.status)
	}
}
