package services

import "context"

type contextKey int

const (
	pedidoIDKey contextKey = iota
	commandKey
	channelKey
	requestIDKey
)

// WithPedidoID annotates ctx with the pedido being handled. Ids below 1 are
// never stored.
func WithPedidoID(ctx context.Context, id int64) context.Context {
	if id < 1 {
		return ctx
	}
	return context.WithValue(ctx, pedidoIDKey, id)
}

func PedidoIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(pedidoIDKey).(int64)
	return id, ok
}

// WithCommand annotates ctx with the chat command name.
func WithCommand(ctx context.Context, command string) context.Context {
	return withString(ctx, commandKey, command)
}

func CommandFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, commandKey)
}

// WithChannel annotates ctx with the chat channel the message arrived on.
func WithChannel(ctx context.Context, channelID string) context.Context {
	return withString(ctx, channelKey, channelID)
}

func ChannelFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, channelKey)
}

// WithRequestID annotates ctx with the gateway correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}
