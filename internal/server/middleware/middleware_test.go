package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"architect/internal/model"
)

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("panic 被恢复并返回统一错误结构", t, func() {
		engine := gin.New()
		engine.Use(Recovery())
		engine.GET("/boom", func(c *gin.Context) {
			panic("boom")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		engine.ServeHTTP(w, req)

		So(w.Code, ShouldEqual, http.StatusInternalServerError)

		var resp model.ErrorResponse
		So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
		So(resp.Code, ShouldEqual, 50000)
		So(resp.Message, ShouldEqual, "Internal Server Error")
	})

	Convey("正常请求不受影响", t, func() {
		engine := gin.New()
		engine.Use(Recovery())
		engine.GET("/ok", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		engine.ServeHTTP(w, req)

		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldEqual, "ok")
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("每个请求都带 request_id 响应头", t, func() {
		engine := gin.New()
		engine.Use(RequestID())
		engine.GET("/ping", func(c *gin.Context) {
			So(c.GetString("request_id"), ShouldNotBeEmpty)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		engine.ServeHTTP(w, req)

		So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
	})
}
