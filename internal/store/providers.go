package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pedidobot/internal/library"
	"pedidobot/internal/services"
)

var _ library.ProviderDirectory = (*Store)(nil)

// Provider returns the provider settings for channelID, or nil when the
// channel is not a provider.
func (s *Store) Provider(ctx context.Context, channelID string) (*library.Provider, error) {
	ctx = ensureContext(ctx)
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT channel_id, name, auto_process_pedidos, updated_at FROM providers WHERE channel_id = ?", channelID)
	provider, err := scanProvider(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "get provider", "query failed", err)
	}
	return provider, nil
}

// UpsertProvider creates or replaces provider settings.
func (s *Store) UpsertProvider(ctx context.Context, provider library.Provider) (*library.Provider, error) {
	ctx = ensureContext(ctx)
	provider.ChannelID = strings.TrimSpace(provider.ChannelID)
	if provider.ChannelID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "upsert provider", "channel id required", nil)
	}
	provider.UpdatedAt = s.now()
	auto := 0
	if provider.AutoProcessPedidos {
		auto = 1
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO providers (channel_id, name, auto_process_pedidos, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET name = excluded.name,
		auto_process_pedidos = excluded.auto_process_pedidos, updated_at = excluded.updated_at`,
		provider.ChannelID, strings.TrimSpace(provider.Name), auto, formatTime(provider.UpdatedAt),
	); err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "upsert provider", "write failed", err)
	}
	return &provider, nil
}

// Providers lists every configured provider channel.
func (s *Store) Providers(ctx context.Context) ([]library.Provider, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT channel_id, name, auto_process_pedidos, updated_at FROM providers ORDER BY channel_id")
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "list providers", "query failed", err)
	}
	defer rows.Close()

	var out []library.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "store", "list providers", "scan failed", err)
		}
		out = append(out, *provider)
	}
	return out, rows.Err()
}

func scanProvider(scanner interface{ Scan(dest ...any) error }) (*library.Provider, error) {
	var (
		provider   library.Provider
		auto       int
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&provider.ChannelID, &provider.Name, &auto, &updatedRaw); err != nil {
		return nil, err
	}
	provider.AutoProcessPedidos = auto != 0
	provider.UpdatedAt = parseTime(updatedRaw)
	return &provider, nil
}
