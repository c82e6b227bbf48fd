package logging

import (
	"context"
	"log/slog"
	"time"

	"pedidobot/internal/services"
)

type Attr = slog.Attr

func Any(key string, value any) Attr                { return slog.Any(key, value) }
func Bool(key string, value bool) Attr              { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Float64(key string, value float64) Attr        { return slog.Float64(key, value) }
func Int(key string, value int) Attr                { return slog.Int(key, value) }
func Int64(key string, value int64) Attr            { return slog.Int64(key, value) }
func String(key string, value string) Attr          { return slog.String(key, value) }
func Group(key string, attrs ...Attr) Attr          { return slog.Group(key, Args(attrs...)...) }
func Alert(value string) Attr                       { return slog.String(FieldAlert, value) }
func Pedido(id int64) Attr                          { return slog.Int64(FieldPedidoID, id) }
func Channel(id string) Attr                        { return slog.String(FieldChannelID, id) }
func Event(eventType string) Attr                   { return slog.String(FieldEventType, eventType) }
func Hint(hint string) Attr                         { return slog.String(FieldErrorHint, hint) }
func Impact(impact string) Attr                     { return slog.String(FieldImpact, impact) }

// Error records err under "error"; a nil error is logged as "<nil>" rather
// than dropped so misuse is visible.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// ErrorAttrs returns the error and its services kind.
func ErrorAttrs(err error) []Attr {
	return []Attr{Error(err), String(FieldErrorKind, services.Kind(err))}
}

// Args converts attrs for the variadic ...any logger methods.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op base.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// FieldImpact says what the user will notice because of a warning.
const FieldImpact = "impact"

const defaultHint = "check logs for details"

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Values already present in attrs win over the defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		Event(eventType),
		Hint(defaultHint),
		Impact("operation completed with warnings"),
	)
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext is WarnWithContext for errors, without the impact field.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs, Event(eventType), Hint(defaultHint))
	logger.Error(msg, Args(attrs...)...)
}

func withDefaults(attrs []Attr, defaults ...Attr) []Attr {
	for _, def := range defaults {
		if !hasKey(attrs, def.Key) {
			attrs = append(attrs, def)
		}
	}
	return attrs
}

func hasKey(attrs []Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// DecisionAttrs describes a branch the bot took, such as a classification
// fallback or a duplicate drop.
func DecisionAttrs(decisionType, result, reason string) []Attr {
	return []Attr{
		String(FieldDecisionType, decisionType),
		String("decision_result", result),
		String("decision_reason", reason),
	}
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler        { return NoopHandler{} }
func (NoopHandler) WithGroup(string) slog.Handler             { return NoopHandler{} }
