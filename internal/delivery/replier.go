package delivery

import "context"

// Document is a file attachment to send.
type Document struct {
	Path     string
	FileName string
	Mime     string
	Caption  string
}

// Replier sends outbound messages to a chat channel.
type Replier interface {
	SendText(ctx context.Context, channelID, text string) error
	SendDocument(ctx context.Context, channelID string, doc Document) error
}
