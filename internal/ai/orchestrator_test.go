package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"architect/internal/model"
)

// fakeProvider 测试用提供商
type fakeProvider struct {
	name      string
	available bool
	text      string
	err       error
	calls     int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeProvider) GenerateDocument(ctx context.Context, idea string, history []model.Message) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{f.name + "-model"}, nil
}

func (f *fakeProvider) TestKey(ctx context.Context) KeyStatus {
	if !f.available {
		return KeyStatus{Status: KeyStatusMissing, Message: "No API key configured"}
	}
	return KeyStatus{Status: KeyStatusValid}
}

func TestOrchestrator_GenerateText(t *testing.T) {
	Convey("GenerateText 按优先级降级", t, func() {
		Convey("首选提供商可用时直接使用", func() {
			primary := &fakeProvider{name: "anthropic", available: true, text: "hello"}
			fallback := &fakeProvider{name: "goose_ai", available: true, text: "fallback"}
			o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

			So(o.GenerateText(context.Background(), "hi"), ShouldEqual, "hello")
			So(primary.calls, ShouldEqual, 1)
			So(fallback.calls, ShouldEqual, 0)
		})

		Convey("首选不可用时降级到备选，且不外呼首选", func() {
			primary := &fakeProvider{name: "anthropic", available: false}
			fallback := &fakeProvider{name: "goose_ai", available: true, text: "fallback"}
			o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

			So(o.GenerateText(context.Background(), "hi"), ShouldEqual, "fallback")
			So(primary.calls, ShouldEqual, 0)
		})

		Convey("首选报错时降级到备选", func() {
			primary := &fakeProvider{name: "anthropic", available: true, err: errors.New("boom")}
			fallback := &fakeProvider{name: "goose_ai", available: true, text: "fallback"}
			o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

			So(o.GenerateText(context.Background(), "hi"), ShouldEqual, "fallback")
			So(primary.calls, ShouldEqual, 1)
			So(fallback.calls, ShouldEqual, 1)
		})

		Convey("全部失败时返回固定占位回复", func() {
			primary := &fakeProvider{name: "anthropic", available: false}
			fallback := &fakeProvider{name: "goose_ai", available: true, err: errors.New("down")}
			o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

			So(o.GenerateText(context.Background(), "hi"), ShouldEqual, PlaceholderResponse)
		})
	})
}

func TestOrchestrator_GenerateDocument(t *testing.T) {
	Convey("GenerateDocument 永不返回空文档", t, func() {
		Convey("成功时解析提供商输出", func() {
			p := &fakeProvider{name: "anthropic", available: true,
				text: `{"project_name": "Demo", "overview": "A demo"}`}
			o := NewOrchestrator([]Provider{p}, time.Second, nil)

			doc := o.GenerateDocument(context.Background(), "a demo app", nil)
			So(doc.Name(), ShouldEqual, "Demo")
		})

		Convey("输出不是 JSON 时得到兜底文档", func() {
			p := &fakeProvider{name: "anthropic", available: true, text: "not json"}
			o := NewOrchestrator([]Provider{p}, time.Second, nil)

			doc := o.GenerateDocument(context.Background(), "a demo app", nil)
			So(doc.GetString("overview"), ShouldEqual, "not json")
		})

		Convey("全部失败时返回失败占位文档", func() {
			p := &fakeProvider{name: "anthropic", available: true, err: errors.New("down")}
			o := NewOrchestrator([]Provider{p}, time.Second, nil)

			doc := o.GenerateDocument(context.Background(), "a demo app", nil)
			So(doc.Name(), ShouldEqual, "Project")
			So(doc.GetString("overview"), ShouldEqual, "Documentation generation failed. Please try again.")
		})
	})
}

func TestOrchestrator_PerformanceStats(t *testing.T) {
	Convey("性能统计", t, func() {
		primary := &fakeProvider{name: "anthropic", available: false}
		fallback := &fakeProvider{name: "goose_ai", available: true, text: "ok"}
		o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

		o.GenerateText(context.Background(), "hi")
		o.GenerateText(context.Background(), "hi")

		stats := o.PerformanceStats()

		Convey("不可用的提供商计为失败", func() {
			So(stats["anthropic"].FailureCount, ShouldEqual, 2)
			So(stats["anthropic"].SuccessCount, ShouldEqual, 0)
			So(stats["anthropic"].SuccessRate, ShouldEqual, 0)
		})

		Convey("成功的提供商累加成功数与成功率", func() {
			So(stats["goose_ai"].SuccessCount, ShouldEqual, 2)
			So(stats["goose_ai"].TotalRequests, ShouldEqual, 2)
			So(stats["goose_ai"].SuccessRate, ShouldEqual, 100)
			So(stats["goose_ai"].AvgResponseTime, ShouldBeGreaterThanOrEqualTo, 0)
		})
	})
}

func TestOrchestrator_IncrementalMean(t *testing.T) {
	Convey("平均耗时是各次成功耗时的算术平均", t, func() {
		p := &fakeProvider{name: "anthropic", available: true}
		o := NewOrchestrator([]Provider{p}, time.Second, nil)

		samples := []time.Duration{
			120 * time.Millisecond,
			480 * time.Millisecond,
			60 * time.Millisecond,
			900 * time.Millisecond,
			240 * time.Millisecond,
		}
		var sum float64
		for _, s := range samples {
			o.recordSuccess("anthropic", s)
			sum += s.Seconds()
		}
		mean := sum / float64(len(samples))

		stats := o.PerformanceStats()["anthropic"]
		So(stats.SuccessCount, ShouldEqual, len(samples))
		So(stats.AvgResponseTime, ShouldAlmostEqual, mean, 0.001)

		Convey("失败不计入平均耗时", func() {
			o.recordFailure("anthropic", 10*time.Second)
			after := o.PerformanceStats()["anthropic"]
			So(after.AvgResponseTime, ShouldAlmostEqual, mean, 0.001)
			So(after.FailureCount, ShouldEqual, 1)
		})
	})
}

func TestOrchestrator_Recommendations(t *testing.T) {
	Convey("推荐按成功率选择，同分取优先级靠前者", t, func() {
		Convey("无历史数据时推荐首选提供商", func() {
			primary := &fakeProvider{name: "anthropic", available: true}
			fallback := &fakeProvider{name: "goose_ai", available: true}
			o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

			recs := o.Recommendations()
			So(len(recs), ShouldEqual, 4)
			for _, task := range []string{"conversation", "documentation", "code", "analysis"} {
				So(recs[task], ShouldEqual, "anthropic")
			}
		})

		Convey("备选成功率更高时推荐备选", func() {
			primary := &fakeProvider{name: "anthropic", available: true, err: errors.New("down")}
			fallback := &fakeProvider{name: "goose_ai", available: true, text: "ok"}
			o := NewOrchestrator([]Provider{primary, fallback}, time.Second, nil)

			o.GenerateText(context.Background(), "hi")

			recs := o.Recommendations()
			So(recs["conversation"], ShouldEqual, "goose_ai")
		})
	})
}
