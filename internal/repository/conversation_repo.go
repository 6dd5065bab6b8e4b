package repository

import (
	"sync"
	"time"

	"architect/internal/model"
)

// ConversationRepo 进程内对话存储（权威数据源）
// 外层 RWMutex 只保护映射本身；每个对话持有独立互斥锁，串行化同一对话的
// 读写，不同对话互不阻塞，提供商外呼期间也不持有映射锁
type ConversationRepo struct {
	mu            sync.RWMutex
	conversations map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	conv *model.Conversation
}

// NewConversationRepo 创建内存对话存储
func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{
		conversations: make(map[string]*entry),
	}
}

// Create 登记一个新对话
func (r *ConversationRepo) Create(conv *model.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conv.ID] = &entry{conv: conv}
}

// Snapshot 返回对话的深拷贝
func (r *ConversationRepo) Snapshot(id string) (*model.Conversation, bool) {
	r.mu.RLock()
	e, ok := r.conversations[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.Clone(), true
}

// WithLock 在对话自身的锁内执行 fn
// fn 可以直接修改对话（包括耗时的提供商外呼期间持有锁）；对话不存在时
// 返回 false 且 fn 不执行
func (r *ConversationRepo) WithLock(id string, fn func(conv *model.Conversation) error) (bool, error) {
	r.mu.RLock()
	e, ok := r.conversations[id]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return true, fn(e.conv)
}

// Count 当前对话数
func (r *ConversationRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}

// RemoveExpiredBefore 删除最后活跃时间早于 cutoff 的对话，返回被删 id
func (r *ConversationRepo) RemoveExpiredBefore(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string
	for id, e := range r.conversations {
		// 拿不到锁说明对话正在处理请求，必然未过期，跳过
		if !e.mu.TryLock() {
			continue
		}
		if e.conv.LastActivity.Before(cutoff) {
			expired = append(expired, id)
		}
		e.mu.Unlock()
	}
	for _, id := range expired {
		delete(r.conversations, id)
	}
	return expired
}
