package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"pedidobot/internal/commands"
	"pedidobot/internal/logging"
	"pedidobot/internal/pedidos"
	"pedidobot/internal/services"
)

type handlers struct {
	deps   Deps
	logger *slog.Logger
}

// InboundAttachment is the optional file on an inbound message. Path points
// to where the bridge stored the download.
type InboundAttachment struct {
	Path         string `json:"path"`
	Mime         string `json:"mime"`
	OriginalName string `json:"original_name"`
}

// InboundMessage is the webhook body posted by the bridge.
type InboundMessage struct {
	MessageID  string             `json:"message_id"`
	ChannelID  string             `json:"channel_id"`
	SenderID   string             `json:"sender_id"`
	Text       string             `json:"text"`
	Attachment *InboundAttachment `json:"attachment,omitempty"`
}

// WebhookResponse reports what happened to an inbound message.
type WebhookResponse struct {
	Handled       bool   `json:"handled"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	Command       string `json:"command,omitempty"`
	Reply         string `json:"reply,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

func (h *handlers) webhook(c *gin.Context) {
	var in InboundMessage
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	in.ChannelID = strings.TrimSpace(in.ChannelID)
	in.SenderID = strings.TrimSpace(in.SenderID)
	if in.ChannelID == "" || in.SenderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id and sender_id are required"})
		return
	}
	if h.deps.Dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dispatcher unavailable"})
		return
	}

	msg := commands.Message{
		ID:        strings.TrimSpace(in.MessageID),
		ChannelID: in.ChannelID,
		SenderID:  in.SenderID,
		Text:      in.Text,
	}
	if in.Attachment != nil && strings.TrimSpace(in.Attachment.Path) != "" {
		msg.Attachment = &pedidos.Attachment{
			Path:         in.Attachment.Path,
			Mime:         in.Attachment.Mime,
			OriginalName: in.Attachment.OriginalName,
		}
	}

	// A dropped bridge connection must not abort a command the guard has
	// already recorded; the retry would be suppressed as a duplicate.
	out := h.deps.Dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), msg)
	c.JSON(http.StatusOK, WebhookResponse{
		Handled:       out.Handled,
		Duplicate:     out.Duplicate,
		Command:       out.Command,
		Reply:         out.Reply,
		ErrorKind:     services.Kind(out.Err),
		CorrelationID: requestid.Get(c),
	})
}

func (h *handlers) health(c *gin.Context) {
	if h.deps.Health != nil {
		if err := h.deps.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PedidoListResponse wraps listing results.
type PedidoListResponse struct {
	Items []*pedidos.Request `json:"items"`
}

func (h *handlers) listPedidos(c *gin.Context) {
	filter := pedidos.ListFilter{RequesterID: strings.TrimSpace(c.Query("requester"))}
	for _, raw := range c.QueryArray("state") {
		state, ok := pedidos.ParseState(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state " + strconv.Quote(raw)})
			return
		}
		filter.States = append(filter.States, state)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}
	if len(filter.States) == 0 && c.Query("all") == "" {
		filter.ExcludeCancelled = true
	}

	items, err := h.deps.Requests.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if items == nil {
		items = []*pedidos.Request{}
	}
	c.JSON(http.StatusOK, PedidoListResponse{Items: items})
}

func (h *handlers) getPedido(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pedido id"})
		return
	}
	req, err := h.deps.Requests.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch services.Kind(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindAuthorization:
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), h.logger), "api request failed", "api_error",
			logging.ErrorAttrs(err)...)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error(), "error_kind": services.Kind(err)})
}
