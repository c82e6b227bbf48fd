package library

import (
	"context"
	"time"
)

// Item is one ingested file in a provider's library.
type Item struct {
	ID                int64
	ProviderChannelID string
	Title             string
	Chapter           string
	Category          string
	Tags              []string
	Format            string
	OriginalName      string
	FilePath          string
	URL               string
	SizeBytes         int64
	AddedAt           time.Time
}

// Query is derived from a classifier result merged with request fields.
type Query struct {
	Title       string
	Chapter     string
	Category    string
	Tags        []string
	Description string
}

// Provider is a channel designated as a source of content.
type Provider struct {
	ChannelID          string
	Name               string
	AutoProcessPedidos bool
	UpdatedAt          time.Time
}

// Catalog lists and records library items.
type Catalog interface {
	ListByProvider(ctx context.Context, providerChannelID string) ([]Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
}

// ProviderDirectory resolves provider channel configuration.
type ProviderDirectory interface {
	// Provider returns nil without error when channelID is not a provider.
	Provider(ctx context.Context, channelID string) (*Provider, error)
}
