package model

import (
	"time"
)

// 对话阶段
const (
	PhaseConversation           = "conversation"
	PhaseDocumentationGenerated = "documentation_generated"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation 对话实体
// 以内存为准；Mongo 归档和 Redis 快照共用同一结构
type Conversation struct {
	ID           string           `bson:"_id" json:"id"`
	ProjectIdea  string           `bson:"project_idea" json:"project_idea"`
	Messages     []Message        `bson:"messages" json:"messages"`
	Phase        string           `bson:"phase" json:"phase"`
	Document     *ProjectDocument `bson:"document,omitempty" json:"document,omitempty"`
	StartedAt    time.Time        `bson:"started_at" json:"started_at"`
	LastActivity time.Time        `bson:"last_activity" json:"last_activity"`
}

// Message 消息，追加后不可变
type Message struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Clone 返回对话的深拷贝，供持有锁之外的读取方使用
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Messages = make([]Message, len(c.Messages))
	copy(dup.Messages, c.Messages)
	if c.Document != nil {
		dup.Document = c.Document.Clone()
	}
	return &dup
}

// LastAssistantMessage 返回最近一条 assistant 消息
func (c *Conversation) LastAssistantMessage() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}
