package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"architect/internal/ai"
	"architect/internal/model"
	"architect/internal/repository"
	"architect/internal/service"
)

type stubProvider struct {
	text     string
	document string
}

func (p *stubProvider) Name() string    { return "anthropic" }
func (p *stubProvider) Available() bool { return true }

func (p *stubProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	return p.text, nil
}

func (p *stubProvider) GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error) {
	return p.document, nil
}

func (p *stubProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{"claude-3-5-sonnet-20241022"}, nil
}

func (p *stubProvider) TestKey(ctx context.Context) ai.KeyStatus {
	return ai.KeyStatus{Status: ai.KeyStatusValid}
}

func newTestRouter(t *testing.T) (*gin.Engine, *ai.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := &stubProvider{
		text:     "Sure, sounds great!",
		document: `{"project_name": "Todo App", "description": "A todo app", "file_structure": {"backend": [{"path": "main.py", "content": "print('hi')"}]}}`,
	}
	orchestrator := ai.NewOrchestrator([]ai.Provider{provider}, time.Second, nil)
	svc := service.NewConversationService(
		orchestrator, repository.NewConversationRepo(), nil, nil, nil, 24*time.Hour)

	engine := gin.New()
	convHandler := NewConversationHandler(svc)
	providerHandler := NewProviderHandler(orchestrator)

	v1 := engine.Group("/api/v1")
	v1.POST("/conversation/start", convHandler.Start)
	v1.POST("/conversation/continue", convHandler.Continue)
	v1.POST("/conversation/cleanup", convHandler.Cleanup)
	v1.GET("/conversation/:id", convHandler.Get)
	v1.GET("/conversation/:id/download", convHandler.DownloadProject)
	v1.GET("/conversation/:id/response/download", convHandler.DownloadResponse)
	v1.GET("/models/performance", providerHandler.Performance)

	return engine, orchestrator
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestConversationFlow(t *testing.T) {
	engine, _ := newTestRouter(t)

	// 开启对话
	w := doJSON(t, engine, http.MethodPost, "/api/v1/conversation/start",
		map[string]string{"project_idea": "a todo app"})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d, body = %s", w.Code, w.Body.String())
	}

	var started model.ConversationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if started.Phase != model.PhaseConversation {
		t.Errorf("phase = %q, want %q", started.Phase, model.PhaseConversation)
	}
	if started.ConversationID == "" {
		t.Fatal("missing conversation_id")
	}

	// 文档还没生成，下载应 404
	w = doJSON(t, engine, http.MethodGet, "/api/v1/conversation/"+started.ConversationID+"/download", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("premature download status = %d, want 404", w.Code)
	}

	// 触发文档生成
	w = doJSON(t, engine, http.MethodPost, "/api/v1/conversation/continue",
		map[string]string{"conversation_id": started.ConversationID, "message": "yes please"})
	if w.Code != http.StatusOK {
		t.Fatalf("continue status = %d", w.Code)
	}

	var continued model.ConversationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &continued); err != nil {
		t.Fatalf("decode continue response: %v", err)
	}
	if continued.Phase != model.PhaseDocumentationGenerated {
		t.Errorf("phase = %q, want %q", continued.Phase, model.PhaseDocumentationGenerated)
	}

	// 下载 ZIP
	w = doJSON(t, engine, http.MethodGet, "/api/v1/conversation/"+started.ConversationID+"/download", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("content type = %q", ct)
	}

	// 下载回复文本
	w = doJSON(t, engine, http.MethodGet, "/api/v1/conversation/"+started.ConversationID+"/response/download", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("response download status = %d", w.Code)
	}
}

func TestConversationValidation(t *testing.T) {
	engine, _ := newTestRouter(t)

	cases := []struct {
		name    string
		method  string
		path    string
		payload any
		want    int
	}{
		{"start without idea", http.MethodPost, "/api/v1/conversation/start", map[string]string{}, http.StatusBadRequest},
		{"continue without message", http.MethodPost, "/api/v1/conversation/continue", map[string]string{"conversation_id": "x"}, http.StatusBadRequest},
		{"get unknown conversation", http.MethodGet, "/api/v1/conversation/missing", nil, http.StatusNotFound},
		{"download unknown conversation", http.MethodGet, "/api/v1/conversation/missing/download", nil, http.StatusNotFound},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := doJSON(t, engine, c.method, c.path, c.payload)
			if w.Code != c.want {
				t.Errorf("status = %d, want %d", w.Code, c.want)
			}
		})
	}
}

func TestPerformanceEndpoint(t *testing.T) {
	engine, _ := newTestRouter(t)

	doJSON(t, engine, http.MethodPost, "/api/v1/conversation/start",
		map[string]string{"project_idea": "a todo app"})

	w := doJSON(t, engine, http.MethodGet, "/api/v1/models/performance", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("performance status = %d", w.Code)
	}

	var stats map[string]ai.PerformanceStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode performance: %v", err)
	}
	if stats["anthropic"].SuccessCount != 1 {
		t.Errorf("success count = %d, want 1", stats["anthropic"].SuccessCount)
	}
}
