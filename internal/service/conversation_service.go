package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"architect/internal/ai"
	"architect/internal/metrics"
	"architect/internal/model"
	"architect/internal/pkg/cache"
	"architect/internal/pkg/id"
	"architect/internal/repository"
)

// 普通回复的上下文摘要边界
const (
	digestMessages   = 6
	digestMaxContent = 150
)

// 触发文档生成的关键词，小写子串匹配
// 列表刻意宽松，属于对外可观察行为，不要收紧
var documentationKeywords = []string{
	"generate docs", "create docs", "generate documentation", "create documentation",
	"docs ready", "documentation ready", "generate project docs", "create project docs",
	"ready for docs", "ready for documentation", "generate everything", "create everything",
	"docs folder", "documentation folder", "project docs", "project documentation",
	"generate project", "create project", "project ready", "docs please",
	"yes", "yes please", "sure", "okay", "go ahead", "generate", "create", "do it",
	"solution", "ideal solution", "best solution", "provide solution", "give me solution",
	"help me", "show me", "tell me", "what should", "how should", "recommend",
}

// Result 对话操作结果
type Result struct {
	ConversationID string
	Response       string
	Phase          string
}

// ConversationService 对话服务 - 业务逻辑层
// 职责: 维护对话生命周期，编排 AI 层，触发文档生成
type ConversationService struct {
	orchestrator *ai.Orchestrator
	repo         *repository.ConversationRepo
	cache        *cache.RedisCache       // 可选，对话快照
	archive      *repository.ArchiveRepo // 可选，写穿归档
	metrics      *metrics.Metrics
	maxAge       time.Duration
}

// NewConversationService 创建对话服务
// cache、archive、metrics 均可为 nil
func NewConversationService(
	orchestrator *ai.Orchestrator,
	repo *repository.ConversationRepo,
	convCache *cache.RedisCache,
	archive *repository.ArchiveRepo,
	m *metrics.Metrics,
	maxAge time.Duration,
) *ConversationService {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &ConversationService{
		orchestrator: orchestrator,
		repo:         repo,
		cache:        convCache,
		archive:      archive,
		metrics:      m,
		maxAge:       maxAge,
	}
}

// Start 基于项目想法开启新对话
func (s *ConversationService) Start(ctx context.Context, projectIdea string) *Result {
	conversationID := id.New()

	reply := s.orchestrator.GenerateText(ctx, startPrompt(projectIdea))

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:          conversationID,
		ProjectIdea: projectIdea,
		Phase:       model.PhaseConversation,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: projectIdea, Timestamp: now},
			{Role: model.RoleAssistant, Content: reply, Timestamp: now},
		},
		StartedAt:    now,
		LastActivity: now,
	}

	s.repo.Create(conv)
	s.metrics.SetActiveConversations(s.repo.Count())
	s.persistSnapshot(conv.Clone())

	log.Info().Str("conversation_id", conversationID).Str("project_idea", projectIdea).
		Msg("started conversation")

	return &Result{
		ConversationID: conversationID,
		Response:       reply,
		Phase:          model.PhaseConversation,
	}
}

// Continue 继续既有对话
// 未知 ID 等价于用该消息重新 Start（恢复策略，永不报错）；若配置了 Redis
// 则先尝试从快照恢复
func (s *ConversationService) Continue(ctx context.Context, conversationID, userMessage string) *Result {
	result := &Result{ConversationID: conversationID}

	handle := func(conv *model.Conversation) error {
		now := time.Now().UTC()
		conv.Messages = append(conv.Messages, model.Message{
			Role: model.RoleUser, Content: userMessage, Timestamp: now,
		})

		var reply string
		if shouldGenerateDocumentation(userMessage) {
			doc := s.orchestrator.GenerateDocument(ctx, conv.ProjectIdea, conv.Messages)
			conv.Document = doc
			conv.Phase = model.PhaseDocumentationGenerated
			reply = s.orchestrator.GenerateText(ctx, documentationReadyPrompt(doc.Name()))
		} else {
			reply = s.orchestrator.GenerateText(ctx,
				continuePrompt(conv.ProjectIdea, buildDigest(conv.Messages), userMessage))
		}

		conv.Messages = append(conv.Messages, model.Message{
			Role: model.RoleAssistant, Content: reply, Timestamp: time.Now().UTC(),
		})
		conv.LastActivity = time.Now().UTC()
		// 文档一旦生成阶段保持不变
		if conv.Document != nil {
			conv.Phase = model.PhaseDocumentationGenerated
		}

		result.Response = reply
		result.Phase = conv.Phase
		s.persistSnapshot(conv.Clone())
		return nil
	}

	found, _ := s.repo.WithLock(conversationID, handle)
	if !found {
		if conv := s.restoreFromCache(ctx, conversationID); conv != nil {
			s.repo.Create(conv)
			s.metrics.SetActiveConversations(s.repo.Count())
			found, _ = s.repo.WithLock(conversationID, handle)
		}
	}
	if !found {
		// 兜底：把消息当作新的项目想法
		return s.Start(ctx, userMessage)
	}

	log.Info().Str("conversation_id", conversationID).Int("response_length", len(result.Response)).
		Msg("continued conversation")
	return result
}

// Get 查询对话快照，不存在返回 nil
func (s *ConversationService) Get(ctx context.Context, conversationID string) *model.Conversation {
	if conv, ok := s.repo.Snapshot(conversationID); ok {
		return conv
	}
	if conv := s.restoreFromCache(ctx, conversationID); conv != nil {
		s.repo.Create(conv)
		s.metrics.SetActiveConversations(s.repo.Count())
		return conv.Clone()
	}
	return nil
}

// Cleanup 删除闲置超过阈值的对话，返回删除数
// 由 cron 调度或管理端点触发，绝不挂在请求路径上
func (s *ConversationService) Cleanup(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-s.maxAge)
	expired := s.repo.RemoveExpiredBefore(cutoff)

	if s.cache != nil && len(expired) > 0 {
		keys := make([]string, len(expired))
		for i, cid := range expired {
			keys[i] = cache.ConversationCacheKey(cid)
		}
		if err := s.cache.Delete(ctx, keys...); err != nil {
			log.Warn().Err(err).Msg("failed to delete conversation snapshots")
		}
	}
	if s.archive != nil {
		if _, err := s.archive.PruneBefore(ctx, cutoff); err != nil {
			log.Warn().Err(err).Msg("failed to prune conversation archive")
		}
	}

	s.metrics.SetActiveConversations(s.repo.Count())
	s.metrics.RecordSwept(len(expired))

	if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("cleaned up expired conversations")
	}
	return len(expired)
}

// persistSnapshot 写出 Redis 快照与 Mongo 归档，失败只告警
func (s *ConversationService) persistSnapshot(conv *model.Conversation) {
	if s.cache == nil && s.archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.cache != nil {
		key := cache.ConversationCacheKey(conv.ID)
		if err := s.cache.Set(ctx, key, conv, s.maxAge); err != nil {
			log.Warn().Err(err).Str("conversation_id", conv.ID).
				Msg("failed to cache conversation snapshot")
		}
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, conv); err != nil {
			log.Warn().Err(err).Str("conversation_id", conv.ID).
				Msg("failed to archive conversation")
		}
	}
}

// restoreFromCache 尝试从 Redis 快照恢复对话
func (s *ConversationService) restoreFromCache(ctx context.Context, conversationID string) *model.Conversation {
	if s.cache == nil || !id.IsValid(conversationID) {
		return nil
	}

	var conv model.Conversation
	key := cache.ConversationCacheKey(conversationID)
	if err := s.cache.Get(ctx, key, &conv); err != nil {
		return nil
	}
	if conv.ID == "" {
		return nil
	}

	log.Info().Str("conversation_id", conversationID).Msg("restored conversation from cache")
	return &conv
}

// shouldGenerateDocumentation 判断用户是否在要求生成文档
func shouldGenerateDocumentation(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range documentationKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// buildDigest 摘要最近 6 条消息，每条内容截断到 150 字符
func buildDigest(messages []model.Message) string {
	recent := messages
	if len(recent) > digestMessages {
		recent = recent[len(recent)-digestMessages:]
	}

	parts := make([]string, 0, len(recent))
	for _, msg := range recent {
		role := "User"
		if msg.Role == model.RoleAssistant {
			role = "Assistant"
		}
		content := msg.Content
		// 按字符截断，不能切在多字节字符中间
		if runes := []rune(content); len(runes) > digestMaxContent {
			content = string(runes[:digestMaxContent]) + "..."
		}
		parts = append(parts, role+": "+content)
	}
	return strings.Join(parts, " | ")
}

func startPrompt(projectIdea string) string {
	return fmt.Sprintf(`You are a helpful AI assistant. A user wants to build: %s

Respond naturally and helpfully. Understand their project and be ready to help them with documentation when they ask for it.`, projectIdea)
}

func continuePrompt(projectIdea, digest, userMessage string) string {
	return fmt.Sprintf(`You are a helpful AI assistant continuing a conversation about a project.

Project: %s
Recent conversation: %s
User's input: %s

Respond naturally and helpfully. If they ask for documentation, solutions, or help with implementation, be ready to help.`, projectIdea, digest, userMessage)
}

func documentationReadyPrompt(projectName string) string {
	return fmt.Sprintf(`Perfect! I've created documentation for your project: %s

Your docs/ folder includes:
- Project overview
- Backend and frontend guides
- Setup instructions
- Implementation guide

The documentation is ready for download!`, projectName)
}
