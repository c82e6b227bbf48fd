package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pedidobot/internal/pedidos"
	"pedidobot/internal/services"
)

const pedidoColumns = "id, title, description, priority, state, requester_id, origin_channel_id, votes, voter_ids_json, attachment_json, processing_json, created_at, updated_at"

var _ pedidos.Repository = (*Store)(nil)

// Create validates draft, assigns the next id, and inserts a pendiente request.
func (s *Store) Create(ctx context.Context, draft pedidos.Draft) (*pedidos.Request, error) {
	ctx = ensureContext(ctx)
	req, err := pedidos.New(draft, s.now())
	if err != nil {
		return nil, err
	}
	req.ID = s.lastID.Add(1)

	values, err := pedidoValues(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.execWithRetry(ctx,
		"INSERT INTO pedidos ("+pedidoColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		values...,
	); err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "create pedido", "insert failed", err)
	}
	return req, nil
}

// Get fetches a request by id. It returns pedidos.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id int64) (*pedidos.Request, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+pedidoColumns+" FROM pedidos WHERE id = ?", id)
	req, err := scanPedido(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w #%d", pedidos.ErrNotFound, id)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "get pedido", "query failed", err)
	}
	return req, nil
}

// Update runs fn against the stored request inside a transaction while holding
// the request's lock. fn receives a copy; when it returns an error the stored
// row is left untouched and the error is returned unchanged.
func (s *Store) Update(ctx context.Context, id int64, fn func(*pedidos.Request) error) (*pedidos.Request, error) {
	ctx = ensureContext(ctx)
	unlock := s.locks.lock(id)
	defer unlock()

	var updated *pedidos.Request
	var fnErr error
	err := retryOnBusy(ctx, func() error {
		updated, fnErr = nil, nil
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		current, err := scanPedido(tx.QueryRowContext(ctx, "SELECT "+pedidoColumns+" FROM pedidos WHERE id = ?", id))
		if err != nil {
			return err
		}
		next := current.Clone()
		if fnErr = fn(next); fnErr != nil {
			return nil
		}
		next.ID = id
		next.Votes = len(next.VoterIDs)

		values, err := pedidoValues(next)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE pedidos SET title = ?, description = ?, priority = ?, state = ?, requester_id = ?,
			origin_channel_id = ?, votes = ?, voter_ids_json = ?, attachment_json = ?, processing_json = ?,
			created_at = ?, updated_at = ? WHERE id = ?`,
			append(values[1:], id)...,
		); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w #%d", pedidos.ErrNotFound, id)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "update pedido", fmt.Sprintf("pedido #%d", id), err)
	}
	if fnErr != nil {
		return nil, fnErr
	}
	return updated, nil
}

// List returns requests matching filter ordered by priority, votes
// descending, then id.
func (s *Store) List(ctx context.Context, filter pedidos.ListFilter) ([]*pedidos.Request, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if requester := strings.TrimSpace(filter.RequesterID); requester != "" {
		clauses = append(clauses, "requester_id = ?")
		args = append(args, requester)
	}
	if filter.ExcludeCancelled {
		clauses = append(clauses, "state <> ?")
		args = append(args, string(pedidos.StateCancelado))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		clauses = append(clauses, "state IN ("+strings.Join(placeholders, ",")+")")
	}

	query := "SELECT " + pedidoColumns + " FROM pedidos"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY CASE priority WHEN 'alta' THEN 0 WHEN 'media' THEN 1 ELSE 2 END, votes DESC, id ASC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "list pedidos", "query failed", err)
	}
	defer rows.Close()

	var out []*pedidos.Request
	for rows.Next() {
		req, err := scanPedido(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "store", "list pedidos", "scan failed", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "list pedidos", "iterate failed", err)
	}
	return out, nil
}

// CountByState returns the number of requests per state.
func (s *Store) CountByState(ctx context.Context) (map[pedidos.State]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT state, COUNT(1) FROM pedidos GROUP BY state")
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "store", "count pedidos", "query failed", err)
	}
	defer rows.Close()

	counts := make(map[pedidos.State]int)
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return nil, services.Wrap(services.ErrIO, "store", "count pedidos", "scan failed", err)
		}
		counts[pedidos.State(state)] = count
	}
	return counts, rows.Err()
}

func pedidoValues(req *pedidos.Request) ([]any, error) {
	voters := req.VoterIDs
	if voters == nil {
		voters = []string{}
	}
	votersJSON, err := json.Marshal(voters)
	if err != nil {
		return nil, fmt.Errorf("encode voters: %w", err)
	}
	attachmentJSON, err := optionalJSON(req.Attachment)
	if err != nil {
		return nil, fmt.Errorf("encode attachment: %w", err)
	}
	processingJSON, err := optionalJSON(req.Processing)
	if err != nil {
		return nil, fmt.Errorf("encode processing: %w", err)
	}
	return []any{
		req.ID,
		req.Title,
		req.Description,
		string(req.Priority),
		string(req.State),
		req.RequesterID,
		req.OriginChannelID,
		len(voters),
		string(votersJSON),
		attachmentJSON,
		processingJSON,
		formatTime(req.CreatedAt),
		formatTime(req.UpdatedAt),
	}, nil
}

func optionalJSON[T any](value *T) (sql.NullString, error) {
	if value == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func scanPedido(scanner interface{ Scan(dest ...any) error }) (*pedidos.Request, error) {
	var (
		req            pedidos.Request
		priority       string
		state          string
		votersJSON     string
		attachmentJSON sql.NullString
		processingJSON sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)
	if err := scanner.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&priority,
		&state,
		&req.RequesterID,
		&req.OriginChannelID,
		&req.Votes,
		&votersJSON,
		&attachmentJSON,
		&processingJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	req.Priority = pedidos.Priority(priority)
	req.State = pedidos.State(state)
	req.CreatedAt = parseTime(createdRaw)
	req.UpdatedAt = parseTime(updatedRaw)

	if err := json.Unmarshal([]byte(votersJSON), &req.VoterIDs); err != nil {
		return nil, fmt.Errorf("decode voters for pedido %d: %w", req.ID, err)
	}
	if req.VoterIDs == nil {
		req.VoterIDs = []string{}
	}
	if attachmentJSON.Valid && attachmentJSON.String != "" {
		var att pedidos.Attachment
		if err := json.Unmarshal([]byte(attachmentJSON.String), &att); err != nil {
			return nil, fmt.Errorf("decode attachment for pedido %d: %w", req.ID, err)
		}
		req.Attachment = &att
	}
	if processingJSON.Valid && processingJSON.String != "" {
		var proc pedidos.Processing
		if err := json.Unmarshal([]byte(processingJSON.String), &proc); err != nil {
			return nil, fmt.Errorf("decode processing for pedido %d: %w", req.ID, err)
		}
		req.Processing = &proc
	}
	return &req, nil
}
