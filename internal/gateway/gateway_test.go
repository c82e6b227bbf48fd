package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"pedidobot/internal/commands"
	"pedidobot/internal/gateway"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/testsupport"
)

type stubDispatcher struct {
	mu      sync.Mutex
	seen    []commands.Message
	ctxErrs []error
	out     commands.Outcome
}

func (d *stubDispatcher) Dispatch(ctx context.Context, msg commands.Message) commands.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, msg)
	d.ctxErrs = append(d.ctxErrs, ctx.Err())
	return d.out
}

type harness struct {
	handler    http.Handler
	dispatcher *stubDispatcher
	requests   pedidos.Repository
}

func newHarness(t *testing.T, health func(context.Context) error) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithGatewayToken("secret"))
	st := testsupport.MustOpenStore(t, cfg)
	disp := &stubDispatcher{out: commands.Outcome{Handled: true, Command: "pedido", Reply: "ok"}}
	srv := gateway.New(cfg, gateway.Deps{Dispatcher: disp, Requests: st, Health: health})
	return &harness{handler: srv.Handler(), dispatcher: disp, requests: st}
}

func (h *harness) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer secret")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzIsOpen(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestHealthzReportsDegraded(t *testing.T) {
	h := newHarness(t, func(context.Context) error { return errors.New("bridge down") })
	rec := h.do(t, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bridge down") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestWebhookRequiresToken(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(t, http.MethodPost, "/webhook/messages", `{"channel_id":"c","sender_id":"s","text":".ayuda"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(h.dispatcher.seen) != 0 {
		t.Fatal("dispatcher should not run without auth")
	}
}

func TestWebhookDispatchesMessage(t *testing.T) {
	h := newHarness(t, nil)
	body := `{"message_id":"m1","channel_id":"grupo","sender_id":"ana","text":".pedido Berserk",
		"attachment":{"path":"/tmp/berserk.pdf","mime":"application/pdf","original_name":"berserk.pdf"}}`
	rec := h.do(t, http.MethodPost, "/webhook/messages", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp gateway.WebhookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Handled || resp.Command != "pedido" || resp.CorrelationID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(h.dispatcher.seen) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(h.dispatcher.seen))
	}
	msg := h.dispatcher.seen[0]
	if msg.ID != "m1" || msg.ChannelID != "grupo" || msg.SenderID != "ana" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Attachment == nil || msg.Attachment.OriginalName != "berserk.pdf" {
		t.Fatalf("expected attachment, got %+v", msg.Attachment)
	}
}

func TestWebhookDispatchOutlivesClientDisconnect(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	body := `{"message_id":"m2","channel_id":"grupo","sender_id":"ana","text":".votar 1"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/messages", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	h.handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(h.dispatcher.ctxErrs) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(h.dispatcher.ctxErrs))
	}
	if err := h.dispatcher.ctxErrs[0]; err != nil {
		t.Fatalf("dispatch context should not inherit request cancellation, got %v", err)
	}
}

func TestWebhookValidation(t *testing.T) {
	h := newHarness(t, nil)
	cases := map[string]string{
		"malformed":       `{"channel_id":`,
		"missing channel": `{"sender_id":"ana","text":".ayuda"}`,
		"missing sender":  `{"channel_id":"grupo","text":".ayuda"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/webhook/messages", body, true)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
	if len(h.dispatcher.seen) != 0 {
		t.Fatal("invalid bodies must not be dispatched")
	}
}

func TestListAndGetPedidos(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	first, err := h.requests.Create(ctx, pedidos.Draft{Title: "Berserk", RequesterID: "ana", OriginChannelID: "grupo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.requests.Create(ctx, pedidos.Draft{Title: "Monster", RequesterID: "luis", OriginChannelID: "grupo"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := h.do(t, http.MethodGet, "/api/pedidos?requester=ana", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list gateway.PedidoListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != first.ID {
		t.Fatalf("unexpected list %+v", list.Items)
	}

	rec = h.do(t, http.MethodGet, "/api/pedidos/"+strconv.FormatInt(first.ID, 10), "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got pedidos.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "Berserk" || got.State != pedidos.StatePendiente {
		t.Fatalf("unexpected pedido %+v", got)
	}
}

func TestGetPedidoErrors(t *testing.T) {
	h := newHarness(t, nil)
	tests := []struct {
		path string
		want int
	}{
		{"/api/pedidos/999", http.StatusNotFound},
		{"/api/pedidos/abc", http.StatusBadRequest},
		{"/api/pedidos?state=volando", http.StatusBadRequest},
		{"/api/pedidos?limit=-1", http.StatusBadRequest},
		{"/nowhere", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := h.do(t, http.MethodGet, tt.path, "", true)
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.path, tt.want, rec.Code)
		}
	}
}

func TestServerStartAndStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv := gateway.New(cfg, gateway.Deps{Dispatcher: &stubDispatcher{}, Requests: st})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer srv.Stop()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
