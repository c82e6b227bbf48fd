package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pedidobot/internal/library"
	"pedidobot/internal/services"
)

const libraryColumns = "id, provider_channel_id, title, chapter, category, tags_json, format, original_name, file_path, url, size_bytes, added_at"


var _ library.Catalog = (*Store)(nil)

// AddItem records a library item and returns it with its assigned id.
func (s *Store) AddItem(ctx context.Context, item library.Item) (*library.Item, error) {
	ctx = ensureContext(ctx)
	item.ProviderChannelID = strings.TrimSpace(item.ProviderChannelID)
	if item.ProviderChannelID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add library item", "provider channel required", nil)
	}
	if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.OriginalName) == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "add library item", "title or original name required", nil)
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = s.now()
	}
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO library_items (provider_channel_id, title, chapter, category, tags_json, format,
		original_name, file_path, url, size_bytes, added_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ProviderChannelID,
		strings.TrimSpace(item.Title),
		strings.TrimSpace(item.Chapter),
		strings.TrimSpace(item.Category),
		string(tagsJSON),
		strings.TrimSpace(item.Format),
		item.OriginalName,
		item.FilePath,
		item.URL,
		item.SizeBytes,
		formatTime(item.AddedAt),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "add library item", "insert failed", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "add library item", "read id", err)
	}
	return s.GetItem(ctx, id)
}

// GetItem fetches a library item by id.
func (s *Store) GetItem(ctx context.Context, id int64) (*library.Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+libraryColumns+" FROM library_items WHERE id = ?", id)
	item, err := scanLibraryItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w #%d", library.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "get library item", "query failed", err)
	}
	return item, nil
}

// ListByProvider returns every item of a provider in insertion order.
func (s *Store) ListByProvider(ctx context.Context, providerChannelID string) ([]library.Item, error) {
	return s.listItems(ctx, "WHERE provider_channel_id = ?", strings.TrimSpace(providerChannelID))
}

// ListItems returns every library item in insertion order.
func (s *Store) ListItems(ctx context.Context) ([]library.Item, error) {
	return s.listItems(ctx, "")
}

func (s *Store) listItems(ctx context.Context, where string, args ...any) ([]library.Item, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + libraryColumns + " FROM library_items"
	if where != "" {
		query += " " + where
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "list library", "query failed", err)
	}
	defer rows.Close()

	var items []library.Item
	for rows.Next() {
		item, err := scanLibraryItem(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "store", "list library", "scan failed", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "list library", "iterate failed", err)
	}
	return items, nil
}

func scanLibraryItem(scanner interface{ Scan(dest ...any) error }) (*library.Item, error) {
	var (
		item     library.Item
		tagsJSON string
		addedRaw sql.NullString
	)
	if err := scanner.Scan(
		&item.ID,
		&item.ProviderChannelID,
		&item.Title,
		&item.Chapter,
		&item.Category,
		&tagsJSON,
		&item.Format,
		&item.OriginalName,
		&item.FilePath,
		&item.URL,
		&item.SizeBytes,
		&addedRaw,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for item %d: %w", item.ID, err)
	}
	item.AddedAt = parseTime(addedRaw)
	return &item, nil
}
