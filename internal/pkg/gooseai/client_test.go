package gooseai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"architect/internal/model"
)

// newEngineServer 模拟 engines 列表和 completions 两个端点
func newEngineServer(t *testing.T, engines []string, completion string) (*httptest.Server, *completionRequest) {
	t.Helper()

	lastReq := &completionRequest{}
	mux := http.NewServeMux()
	mux.HandleFunc("/engines", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]string, 0, len(engines))
		for _, e := range engines {
			data = append(data, map[string]string{"id": e})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})
	mux.HandleFunc("/completions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(lastReq)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]string{{"text": completion}},
		})
	})

	return httptest.NewServer(mux), lastReq
}

func TestClient_Engines(t *testing.T) {
	Convey("Engines 查询远端引擎列表", t, func() {
		srv, _ := newEngineServer(t, []string{"gpt-neo-20b", "gpt-j-6b"}, "")
		defer srv.Close()

		client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
		engines, err := client.Engines(context.Background())

		So(err, ShouldBeNil)
		So(engines, ShouldResemble, []string{"gpt-neo-20b", "gpt-j-6b"})
	})

	Convey("未配置密钥时报错", t, func() {
		client := NewClient(Config{})
		_, err := client.Engines(context.Background())
		So(err, ShouldEqual, ErrNotConfigured)
	})
}

func TestClient_SelectEngine(t *testing.T) {
	Convey("引擎选择遵循偏好顺序", t, func() {
		Convey("偏好引擎在列表里时优先", func() {
			srv, _ := newEngineServer(t, []string{"fairseq-13b", "gpt-neo-20b"}, "")
			defer srv.Close()

			client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
			So(client.selectEngine(context.Background()), ShouldEqual, "gpt-neo-20b")
		})

		Convey("偏好都不在时取第一个可用引擎", func() {
			srv, _ := newEngineServer(t, []string{"fairseq-13b", "fairseq-1-3b"}, "")
			defer srv.Close()

			client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
			So(client.selectEngine(context.Background()), ShouldEqual, "fairseq-13b")
		})

		Convey("列表为空时退回默认引擎", func() {
			srv, _ := newEngineServer(t, nil, "")
			defer srv.Close()

			client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
			So(client.selectEngine(context.Background()), ShouldEqual, "gpt-j-6b")
		})

		Convey("列表接口失败时退回默认引擎", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
			So(client.selectEngine(context.Background()), ShouldEqual, "gpt-j-6b")
		})
	})
}

func TestClient_GenerateText(t *testing.T) {
	Convey("GenerateText 用选中的引擎调用 completions", t, func() {
		srv, lastReq := newEngineServer(t, []string{"gpt-j-6b"}, "  Hello!  ")
		defer srv.Close()

		client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
		text, err := client.GenerateText(context.Background(), "hi")

		So(err, ShouldBeNil)
		So(text, ShouldEqual, "Hello!")
		So(lastReq.Model, ShouldEqual, "gpt-j-6b")
		So(lastReq.MaxTokens, ShouldEqual, 512)
		So(lastReq.Temperature, ShouldEqual, 0.7)
	})
}

func TestClient_GenerateDocument(t *testing.T) {
	Convey("GenerateDocument 上下文只取最近 10 条并编号", t, func() {
		srv, lastReq := newEngineServer(t, []string{"gpt-j-6b"}, `{"project_name": "Demo"}`)
		defer srv.Close()

		var history []model.Message
		for i := 0; i < 12; i++ {
			history = append(history, model.Message{
				Role: model.RoleUser, Content: fmt.Sprintf("message %d", i),
			})
		}

		client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
		raw, err := client.GenerateDocument(context.Background(), "a todo app", history)

		So(err, ShouldBeNil)
		So(raw, ShouldEqual, `{"project_name": "Demo"}`)
		So(lastReq.MaxTokens, ShouldEqual, 4000)
		So(lastReq.Temperature, ShouldEqual, 0.3)
		So(lastReq.Prompt, ShouldContainSubstring, "1. User: message 2")
		So(lastReq.Prompt, ShouldContainSubstring, "10. User: message 11")
		So(lastReq.Prompt, ShouldNotContainSubstring, "message 1\n")
	})

	Convey("空历史使用占位上下文", t, func() {
		srv, lastReq := newEngineServer(t, []string{"gpt-j-6b"}, "ok")
		defer srv.Close()

		client := NewClient(Config{APIKey: "gk-test", BaseURL: srv.URL})
		_, err := client.GenerateDocument(context.Background(), "a todo app", nil)

		So(err, ShouldBeNil)
		So(lastReq.Prompt, ShouldContainSubstring, "No previous conversation.")
	})
}
