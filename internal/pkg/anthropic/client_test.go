package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"architect/internal/model"
)

func testHistory() []model.Message {
	return []model.Message{
		{Role: model.RoleUser, Content: "a todo app"},
		{Role: model.RoleAssistant, Content: "Tell me more."},
		{Role: model.RoleUser, Content: "I want user accounts"},
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func TestClient_Available(t *testing.T) {
	Convey("Available 只看密钥配置", t, func() {
		So(NewClient(Config{APIKey: "sk-test"}).Available(), ShouldBeTrue)
		So(NewClient(Config{}).Available(), ShouldBeFalse)

		Convey("占位密钥视同未配置", func() {
			So(NewClient(Config{APIKey: "your-claude-api-key-here"}).Available(), ShouldBeFalse)
		})
	})
}

func TestClient_GenerateText(t *testing.T) {
	Convey("GenerateText 调用 Messages API", t, func() {
		var gotPath, gotKey, gotVersion string
		var gotReq messagesRequest

		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-api-key")
			gotVersion = r.Header.Get("anthropic-version")
			_ = json.NewDecoder(r.Body).Decode(&gotReq)

			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{{"type": "text", "text": "Hello there!"}},
			})
		})
		defer srv.Close()

		client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
		text, err := client.GenerateText(context.Background(), "hi")

		So(err, ShouldBeNil)
		So(text, ShouldEqual, "Hello there!")
		So(gotPath, ShouldEqual, "/v1/messages")
		So(gotKey, ShouldEqual, "sk-test")
		So(gotVersion, ShouldEqual, "2023-06-01")
		So(gotReq.Model, ShouldEqual, "claude-3-5-sonnet-20241022")
		So(gotReq.MaxTokens, ShouldEqual, 512)
		So(len(gotReq.Messages), ShouldEqual, 1)
		So(gotReq.Messages[0].Content, ShouldEqual, "hi")
	})

	Convey("GenerateText 错误处理", t, func() {
		Convey("未配置密钥直接返回 ErrNotConfigured", func() {
			client := NewClient(Config{})
			_, err := client.GenerateText(context.Background(), "hi")
			So(err, ShouldEqual, ErrNotConfigured)
		})

		Convey("非 200 响应报错", func() {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})
			defer srv.Close()

			client := NewClient(Config{APIKey: "sk-bad", BaseURL: srv.URL})
			_, err := client.GenerateText(context.Background(), "hi")
			So(err, ShouldNotBeNil)
		})

		Convey("空内容报错", func() {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
			})
			defer srv.Close()

			client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
			_, err := client.GenerateText(context.Background(), "hi")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestClient_GenerateDocument(t *testing.T) {
	Convey("GenerateDocument 使用更大的 token 预算并携带完整对话历史", t, func() {
		var gotReq messagesRequest

		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{{"type": "text", "text": `{"project_name": "Demo"}`}},
			})
		})
		defer srv.Close()

		client := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL})
		raw, err := client.GenerateDocument(context.Background(), "a todo app", testHistory())

		So(err, ShouldBeNil)
		So(raw, ShouldEqual, `{"project_name": "Demo"}`)
		So(gotReq.MaxTokens, ShouldEqual, 8000)
		So(gotReq.Messages[0].Content, ShouldContainSubstring, "a todo app")
		So(gotReq.Messages[0].Content, ShouldContainSubstring, "I want user accounts")
	})
}
