package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"pedidobot/internal/config"
	"pedidobot/internal/logging"
	"pedidobot/internal/pedidos"
)

const userAgent = "pedidobot/0.1.0"

// Event names.
const (
	EventPedidoCreated = "pedido.created"
	EventPedidoUpdated = "pedido.updated"
)

// Emitter publishes a named event with an arbitrary JSON-serialisable payload.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any) error
}

// PedidoPayload is the wire shape for request events.
type PedidoPayload struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	State           string `json:"state"`
	Priority        string `json:"priority"`
	Votes           int    `json:"votes"`
	RequesterID     string `json:"requester_id"`
	OriginChannelID string `json:"origin_channel_id"`
	Matches         int    `json:"matches"`
	Note            string `json:"note,omitempty"`
}

// FromRequest projects a request into its event payload.
func FromRequest(req *pedidos.Request) PedidoPayload {
	if req == nil {
		return PedidoPayload{}
	}
	p := PedidoPayload{
		ID:              req.ID,
		Title:           req.DisplayTitle(),
		State:           string(req.State),
		Priority:        string(req.Priority),
		Votes:           req.Votes,
		RequesterID:     req.RequesterID,
		OriginChannelID: req.OriginChannelID,
	}
	if req.Processing != nil {
		p.Matches = len(req.Processing.Matches)
		p.Note = req.Processing.Note
	}
	return p
}

// NewFromConfig builds the emitter set described by cfg. Backends that are
// not configured are skipped; with none configured a Noop is returned.
func NewFromConfig(cfg *config.Config) (Emitter, error) {
	if cfg == nil {
		return Noop{}, nil
	}
	var emitters []Emitter
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
		emitters = append(emitters, NewNtfy(topic, timeout))
	}
	if url := strings.TrimSpace(cfg.Notifications.RedisURL); url != "" {
		redisEmitter, err := NewRedis(url, cfg.Notifications.RedisChannel)
		if err != nil {
			return nil, err
		}
		emitters = append(emitters, redisEmitter)
	}
	switch len(emitters) {
	case 0:
		return Noop{}, nil
	case 1:
		return emitters[0], nil
	default:
		return Fanout(emitters), nil
	}
}

// Ntfy posts events to an ntfy topic URL.
type Ntfy struct {
	endpoint string
	client   *resty.Client
}

// NewNtfy builds an ntfy emitter. Non-positive timeouts default to 10s.
func NewNtfy(endpoint string, timeout time.Duration) *Ntfy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "text/plain; charset=utf-8")
	return &Ntfy{endpoint: endpoint, client: client}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

// Emit implements Emitter.
func (n *Ntfy) Emit(ctx context.Context, event string, data any) error {
	return n.send(ctx, formatPayload(event, data))
}

func formatPayload(event string, data any) payload {
	switch event {
	case EventPedidoCreated:
		p := asPedido(data)
		return payload{
			title:   "pedidobot - Nuevo pedido",
			message: fmt.Sprintf("📥 Pedido #%d: %s (%s)", p.ID, p.Title, p.Priority),
			tags:    []string{"pedidobot", "pedido", "created"},
		}
	case EventPedidoUpdated:
		p := asPedido(data)
		message := fmt.Sprintf("🔄 Pedido #%d: %s [%s]", p.ID, p.Title, p.State)
		if p.Note != "" {
			message += " - " + p.Note
		}
		return payload{
			title:   "pedidobot - Pedido actualizado",
			message: message,
			tags:    []string{"pedidobot", "pedido", "updated"},
		}
	default:
		return payload{
			title:   "pedidobot - " + event,
			message: fmt.Sprint(data),
			tags:    []string{"pedidobot"},
		}
	}
}

func asPedido(data any) PedidoPayload {
	switch v := data.(type) {
	case PedidoPayload:
		return v
	case *PedidoPayload:
		if v != nil {
			return *v
		}
	case *pedidos.Request:
		return FromRequest(v)
	}
	return PedidoPayload{}
}

func (n *Ntfy) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req := n.client.R().SetContext(ctx).SetBody(data.message)
	if data.title != "" {
		req.SetHeader("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.SetHeader("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.SetHeader("Priority", data.priority)
	}

	resp, err := req.Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	if resp.StatusCode() >= 300 {
		body := strings.TrimSpace(resp.String())
		if len(body) > 2048 {
			body = body[:2048]
		}
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode(), body)
	}
	return nil
}

// Fanout delivers each event to every emitter and joins their errors.
type Fanout []Emitter

// Emit implements Emitter.
func (f Fanout) Emit(ctx context.Context, event string, data any) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every member that holds a connection.
func (f Fanout) Close() error {
	var errs []error
	for _, e := range f {
		if closer, ok := e.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

// Noop discards events.
type Noop struct{}

// Emit implements Emitter.
func (Noop) Emit(context.Context, string, any) error { return nil }

type bestEffort struct {
	next   Emitter
	logger *slog.Logger
}

// BestEffort wraps next so failures are logged at WARN and never returned.
func BestEffort(next Emitter, logger *slog.Logger) Emitter {
	if next == nil {
		next = Noop{}
	}
	return &bestEffort{next: next, logger: logging.NewComponentLogger(logger, "notifications")}
}

func (b *bestEffort) Emit(ctx context.Context, event string, data any) error {
	if err := b.next.Emit(ctx, event, data); err != nil {
		attrs := append([]logging.Attr{logging.String("event", event)}, logging.ErrorAttrs(err)...)
		attrs = append(attrs,
			logging.Hint("check ntfy_topic and redis_url in [notifications]"),
			logging.Impact("subscribers missed this event"),
		)
		logging.WarnWithContext(logging.WithContext(ctx, b.logger), "event emit failed", "notification_failed", attrs...)
	}
	return nil
}
