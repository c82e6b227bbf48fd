package testsupport

import (
	"context"
	"sync"

	"pedidobot/internal/delivery"
)

// SentMessage is one captured outbound message.
type SentMessage struct {
	ChannelID string
	Text      string
	Document  *delivery.Document
}

// RecordingReplier captures outbound messages in memory.
type RecordingReplier struct {
	mu       sync.Mutex
	messages []SentMessage
	// Err, when set, is returned from every send.
	Err error
}

// SendText implements delivery.Replier.
func (r *RecordingReplier) SendText(_ context.Context, channelID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, SentMessage{ChannelID: channelID, Text: text})
	return nil
}

// SendDocument implements delivery.Replier.
func (r *RecordingReplier) SendDocument(_ context.Context, channelID string, doc delivery.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, SentMessage{ChannelID: channelID, Document: &doc})
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *RecordingReplier) Messages() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.messages...)
}

// Texts returns only the text replies.
func (r *RecordingReplier) Texts() []string {
	var out []string
	for _, msg := range r.Messages() {
		if msg.Document == nil {
			out = append(out, msg.Text)
		}
	}
	return out
}

// LastText returns the most recent text reply or "".
func (r *RecordingReplier) LastText() string {
	texts := r.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}
