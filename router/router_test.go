package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sweetpotato0/ai-desk/contrib/provider"
	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/pkg/telemetry"
	"github.com/sweetpotato0/ai-desk/tool"
)

type stubProvider struct {
	calls    atomic.Int32
	compose  func(context.Context, tool.WriteInput) (string, error)
	ideas    func(context.Context, tool.IdeasInput) (*tool.IdeasResult, error)
	focus    func(context.Context, tool.FocusInput) (*tool.FocusResult, error)
	lastTool atomic.Value
}

func (s *stubProvider) Compose(ctx context.Context, in tool.WriteInput) (string, error) {
	s.calls.Add(1)
	s.lastTool.Store(tool.Write)
	if s.compose == nil {
		return "Generated text", nil
	}
	return s.compose(ctx, in)
}

func (s *stubProvider) GenerateIdeas(ctx context.Context, in tool.IdeasInput) (*tool.IdeasResult, error) {
	s.calls.Add(1)
	s.lastTool.Store(tool.Ideas)
	if s.ideas == nil {
		return &tool.IdeasResult{Items: []tool.IdeaItem{{Content: "Idea", Tags: []string{}}}}, nil
	}
	return s.ideas(ctx, in)
}

func (s *stubProvider) SuggestPriorities(ctx context.Context, in tool.FocusInput) (*tool.FocusResult, error) {
	s.calls.Add(1)
	s.lastTool.Store(tool.Focus)
	if s.focus == nil {
		return &tool.FocusResult{Items: []tool.PriorityItem{{Priority: "p", Reason: "r", Category: "c"}}}, nil
	}
	return s.focus(ctx, in)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(p provider.Provider, opts ...Option) *Router {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(provider.Static(p), opts...)
}

func encode(t *testing.T, env Envelope) string {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(data)
}

func requireFailure(t *testing.T, resp Response, status int, kind apperrors.Kind) string {
	t.Helper()
	if resp.Status != status {
		t.Errorf("status = %d, want %d", resp.Status, status)
	}
	if resp.Envelope.OK {
		t.Fatalf("expected failure envelope, got %+v", resp.Envelope)
	}
	if resp.Envelope.Error == nil {
		t.Fatal("failure envelope without error body")
	}
	if resp.Envelope.Error.Code != kind {
		t.Errorf("code = %s, want %s", resp.Envelope.Error.Code, kind)
	}
	return resp.Envelope.Error.Message
}

func TestDispatchSuccess(t *testing.T) {
	t.Run("write returns text", func(t *testing.T) {
		stub := &stubProvider{compose: func(_ context.Context, in tool.WriteInput) (string, error) {
			return "Draft about " + in.Topic, nil
		}}
		resp := newTestRouter(stub).Dispatch(context.Background(),
			[]byte(`{"tool":"write","payload":{"topic":"React","tone":"formal"}}`))

		if resp.Status != http.StatusOK {
			t.Fatalf("status = %d", resp.Status)
		}
		if got, want := encode(t, resp.Envelope), `{"ok":true,"data":"Draft about React"}`; got != want {
			t.Errorf("envelope = %s, want %s", got, want)
		}
	})

	t.Run("empty text keeps data", func(t *testing.T) {
		stub := &stubProvider{compose: func(context.Context, tool.WriteInput) (string, error) { return "", nil }}
		resp := newTestRouter(stub).Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))
		if got, want := encode(t, resp.Envelope), `{"ok":true,"data":""}`; got != want {
			t.Errorf("envelope = %s, want %s", got, want)
		}
	})

	t.Run("ideas scenario", func(t *testing.T) {
		var seen tool.IdeasInput
		stub := &stubProvider{ideas: func(_ context.Context, in tool.IdeasInput) (*tool.IdeasResult, error) {
			seen = in
			return &tool.IdeasResult{Items: []tool.IdeaItem{
				{Content: "Idea 1", Tags: []string{"tag1", "tag2"}},
				{Content: "Idea 2", Tags: []string{"tag3"}},
			}}, nil
		}}
		resp := newTestRouter(stub).Dispatch(context.Background(),
			[]byte(`{"tool":"ideas","payload":{"topic":"Creative writing","count":5,"tags":["writing","creativity"]}}`))

		if resp.Status != http.StatusOK {
			t.Fatalf("status = %d", resp.Status)
		}
		want := `{"ok":true,"data":{"items":[{"content":"Idea 1","tags":["tag1","tag2"]},{"content":"Idea 2","tags":["tag3"]}]}}`
		if got := encode(t, resp.Envelope); got != want {
			t.Errorf("envelope = %s, want %s", got, want)
		}
		if seen.Topic != "Creative writing" || seen.Count != 5 || len(seen.Tags) != 2 {
			t.Errorf("provider saw %+v", seen)
		}
	})

	t.Run("focus returns items", func(t *testing.T) {
		stub := &stubProvider{}
		resp := newTestRouter(stub).Dispatch(context.Background(),
			[]byte(`{"tool":"focus","payload":{"context":"Shipping a release","existingPriorities":["task"],"count":1}}`))
		want := `{"ok":true,"data":{"items":[{"priority":"p","reason":"r","category":"c"}]}}`
		if got := encode(t, resp.Envelope); got != want {
			t.Errorf("envelope = %s, want %s", got, want)
		}
	})

	t.Run("nil result becomes empty items", func(t *testing.T) {
		stub := &stubProvider{focus: func(context.Context, tool.FocusInput) (*tool.FocusResult, error) { return nil, nil }}
		resp := newTestRouter(stub).Dispatch(context.Background(), []byte(`{"tool":"focus","payload":{"context":"x"}}`))
		if got, want := encode(t, resp.Envelope), `{"ok":true,"data":{"items":[]}}`; got != want {
			t.Errorf("envelope = %s, want %s", got, want)
		}
	})
}

func TestDispatchValidationFailures(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		status      int
		kind        apperrors.Kind
		wantMessage string
		exact       bool
	}{
		{"write without topic", `{"tool":"write","payload":{"tone":"neutral","length":"medium"}}`, 400, apperrors.KindValidationOrRuntime, "Required", false},
		{"focus without context", `{"tool":"focus","payload":{"existingPriorities":["task"],"count":3}}`, 400, apperrors.KindValidationOrRuntime, "Required", false},
		{"unknown tool", `{"tool":"invalid-tool","payload":{}}`, 400, apperrors.KindValidationOrRuntime, "Invalid request", true},
		{"missing payload", `{"tool":"write"}`, 400, apperrors.KindValidationOrRuntime, "Invalid request", true},
		{"ideas count out of range", `{"tool":"ideas","payload":{"topic":"x","count":11}}`, 400, apperrors.KindValidationOrRuntime, "less than or equal to 10", false},
		{"invalid json", `invalid json`, 500, apperrors.KindRuntime, "JSON", false},
		{"empty body", ``, 500, apperrors.KindRuntime, "JSON", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubProvider{}
			resp := newTestRouter(stub).Dispatch(context.Background(), []byte(tt.body))

			msg := requireFailure(t, resp, tt.status, tt.kind)
			if tt.exact && msg != tt.wantMessage {
				t.Errorf("message = %q, want %q", msg, tt.wantMessage)
			}
			if !tt.exact && !strings.Contains(msg, tt.wantMessage) {
				t.Errorf("message = %q, want it to contain %q", msg, tt.wantMessage)
			}
			if n := stub.calls.Load(); n != 0 {
				t.Errorf("provider called %d times before validation succeeded", n)
			}
		})
	}
}

func TestDispatchProviderFailures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		kind        apperrors.Kind
		wantMessage string
	}{
		{
			name:        "quota",
			err:         apperrors.Upstream(apperrors.ClassQuota, "OpenRouter", "OpenRouter quota exceeded. Please check your plan/billing.", nil),
			status:      503,
			kind:        apperrors.KindUpstream,
			wantMessage: "OpenRouter quota exceeded. Please check your plan/billing.",
		},
		{
			name:        "unavailable",
			err:         apperrors.Upstream(apperrors.ClassUnavailable, "OpenRouter", "OpenRouter request failed: connection refused", nil),
			status:      503,
			kind:        apperrors.KindUpstream,
			wantMessage: "OpenRouter request failed: connection refused",
		},
		{
			name:        "upstream validation",
			err:         apperrors.Upstream(apperrors.ClassValidation, "OpenRouter", "validation failed: prompt too long", nil),
			status:      400,
			kind:        apperrors.KindValidation,
			wantMessage: "validation failed: prompt too long",
		},
		{
			name:        "plain error",
			err:         errors.New("something broke"),
			status:      500,
			kind:        apperrors.KindRuntime,
			wantMessage: "something broke",
		},
		{
			name:        "plain error mentioning validation is not reclassified",
			err:         errors.New("validation of OpenRouter output"),
			status:      500,
			kind:        apperrors.KindRuntime,
			wantMessage: "validation of OpenRouter output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubProvider{compose: func(context.Context, tool.WriteInput) (string, error) { return "", tt.err }}
			resp := newTestRouter(stub).Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))

			if msg := requireFailure(t, resp, tt.status, tt.kind); msg != tt.wantMessage {
				t.Errorf("message = %q, want %q", msg, tt.wantMessage)
			}
			if n := stub.calls.Load(); n != 1 {
				t.Errorf("provider called %d times, want 1", n)
			}
		})
	}
}

func TestDispatchProviderResolution(t *testing.T) {
	t.Run("factory failure skips capability", func(t *testing.T) {
		stub := &stubProvider{}
		factoryCalls := 0
		r := New(func(context.Context) (provider.Provider, error) {
			factoryCalls++
			return nil, apperrors.NotConfigured("OpenRouter", "OpenRouter API key is required. Set OPENROUTER_API_KEY environment variable.")
		}, WithLogger(quietLogger()))

		resp := r.Dispatch(context.Background(), []byte(`{"tool":"ideas","payload":{"topic":"x"}}`))
		msg := requireFailure(t, resp, 503, apperrors.KindUpstream)
		if !strings.Contains(msg, "OPENROUTER_API_KEY") {
			t.Errorf("message = %q", msg)
		}
		if factoryCalls != 1 || stub.calls.Load() != 0 {
			t.Errorf("factory calls = %d, capability calls = %d", factoryCalls, stub.calls.Load())
		}
	})

	t.Run("factory not consulted for invalid input", func(t *testing.T) {
		factoryCalls := 0
		r := New(func(context.Context) (provider.Provider, error) {
			factoryCalls++
			return &stubProvider{}, nil
		}, WithLogger(quietLogger()))

		r.Dispatch(context.Background(), []byte(`{"tool":"write","payload":{}}`))
		if factoryCalls != 0 {
			t.Errorf("factory called %d times", factoryCalls)
		}
	})

	t.Run("nil factory", func(t *testing.T) {
		resp := New(nil, WithLogger(quietLogger())).Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))
		requireFailure(t, resp, 503, apperrors.KindUpstream)
	})

	t.Run("nil provider", func(t *testing.T) {
		r := New(func(context.Context) (provider.Provider, error) { return nil, nil }, WithLogger(quietLogger()))
		resp := r.Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))
		requireFailure(t, resp, 503, apperrors.KindUpstream)
	})
}

func TestDispatchInvokesExactlyOneCapability(t *testing.T) {
	for _, name := range tool.Names() {
		t.Run(string(name), func(t *testing.T) {
			stub := &stubProvider{}
			payload := `{"topic":"x"}`
			if name == tool.Focus {
				payload = `{"context":"x"}`
			}
			resp := newTestRouter(stub).Dispatch(context.Background(),
				[]byte(`{"tool":"`+string(name)+`","payload":`+payload+`}`))

			if resp.Status != http.StatusOK {
				t.Fatalf("status = %d, envelope = %+v", resp.Status, resp.Envelope)
			}
			if n := stub.calls.Load(); n != 1 {
				t.Errorf("capability calls = %d, want 1", n)
			}
			if got := stub.lastTool.Load(); got != name {
				t.Errorf("invoked %v, want %s", got, name)
			}
		})
	}
}

func TestDispatchIsStructurallyIdempotent(t *testing.T) {
	n := 0
	stub := &stubProvider{ideas: func(context.Context, tool.IdeasInput) (*tool.IdeasResult, error) {
		n++
		items := make([]tool.IdeaItem, n)
		for i := range items {
			items[i] = tool.IdeaItem{Content: "idea", Tags: []string{}}
		}
		return &tool.IdeasResult{Items: items}, nil
	}}
	r := newTestRouter(stub)
	body := []byte(`{"tool":"ideas","payload":{"topic":"x"}}`)

	for i := 0; i < 3; i++ {
		resp := r.Dispatch(context.Background(), body)
		var decoded map[string]json.RawMessage
		if err := json.Unmarshal([]byte(encode(t, resp.Envelope)), &decoded); err != nil {
			t.Fatal(err)
		}
		if string(decoded["ok"]) != "true" {
			t.Fatalf("call %d: ok = %s", i, decoded["ok"])
		}
		var data map[string][]json.RawMessage
		if err := json.Unmarshal(decoded["data"], &data); err != nil {
			t.Fatalf("call %d: data is not {items:[...]}: %v", i, err)
		}
		if len(data["items"]) != i+1 {
			t.Errorf("call %d: items = %d", i, len(data["items"]))
		}
	}
}

func TestDispatchTimeout(t *testing.T) {
	stub := &stubProvider{compose: func(ctx context.Context, _ tool.WriteInput) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	r := newTestRouter(stub, WithTimeout(20*time.Millisecond))

	resp := r.Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))
	if msg := requireFailure(t, resp, 500, apperrors.KindRuntime); msg != "upstream request timed out" {
		t.Errorf("message = %q", msg)
	}

	names := r.chain.Names()
	if names[len(names)-1] != "Deadline" {
		t.Errorf("chain = %v, want Deadline last", names)
	}
	for _, name := range newTestRouter(stub).chain.Names() {
		if name == "Deadline" {
			t.Error("router without a timeout should not add a deadline")
		}
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	stub := &stubProvider{compose: func(context.Context, tool.WriteInput) (string, error) {
		panic("provider exploded")
	}}
	resp := newTestRouter(stub).Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))
	if msg := requireFailure(t, resp, 500, apperrors.KindRuntime); msg != internalError {
		t.Errorf("message = %q", msg)
	}
}

func TestDispatchTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := newTestRouter(&stubProvider{}, WithMetrics(metrics), WithTracer(tp.Tracer("test")))
	r.Dispatch(context.Background(), []byte(`{"tool":"write","payload":{"topic":"x"}}`))
	r.Dispatch(context.Background(), []byte(`{"tool":"nope","payload":{}}`))

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "router.Dispatch" {
		t.Errorf("span name = %q", spans[0].Name())
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != telemetry.MetricRequests {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				toolName, _ := dp.Attributes.Value(attribute.Key("tool"))
				code, _ := dp.Attributes.Value(attribute.Key("code"))
				got[toolName.AsString()+"/"+code.AsString()] += dp.Value
			}
		}
	}
	if got["write/ok"] != 1 || got["unknown/VALIDATION_OR_RUNTIME"] != 1 {
		t.Errorf("request counts = %v", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestServeHTTP(t *testing.T) {
	t.Run("writes envelope and status", func(t *testing.T) {
		r := newTestRouter(&stubProvider{})
		req := httptest.NewRequest(http.MethodPost, "/api/ai/router",
			strings.NewReader(`{"tool":"write","payload":{"topic":"x"}}`))
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !env.OK || string(env.Data.(json.RawMessage)) != `"Generated text"` {
			t.Errorf("envelope = %+v", env)
		}
	})

	t.Run("body read failure", func(t *testing.T) {
		stub := &stubProvider{}
		r := newTestRouter(stub)
		req := httptest.NewRequest(http.MethodPost, "/api/ai/router", failingReader{})
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d", rec.Code)
		}
		var env Envelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.OK || env.Error == nil || env.Error.Code != apperrors.KindRuntime {
			t.Errorf("envelope = %+v", env)
		}
		if stub.calls.Load() != 0 {
			t.Error("provider should not be called")
		}
	})
}
