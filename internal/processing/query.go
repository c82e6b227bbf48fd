package processing

import (
	"path/filepath"
	"strings"

	"pedidobot/internal/classify"
	"pedidobot/internal/library"
	"pedidobot/internal/pedidos"
)

func classifyInput(req *pedidos.Request, provider *library.Provider) classify.Input {
	input := classify.Input{Caption: strings.TrimSpace(req.Title + " " + req.Description)}
	if req.Attachment != nil {
		input.Filename = firstNonEmpty(req.Attachment.OriginalName, filepath.Base(req.Attachment.Path))
	}
	if provider != nil {
		input.ProviderHint = provider.Name
	}
	return input
}

// fallbackQuery builds a query from the raw request when no classification is
// available.
func fallbackQuery(req *pedidos.Request) library.Query {
	title := strings.TrimSpace(req.Title)
	if title == "" && req.Attachment != nil {
		title = strings.TrimSuffix(req.Attachment.OriginalName, filepath.Ext(req.Attachment.OriginalName))
	}
	return library.Query{Title: title, Description: strings.TrimSpace(req.Description)}
}

// mergeQuery overlays a classification on the raw request fields. The
// classifier title wins when present and the description is always kept.
func mergeQuery(req *pedidos.Request, result classify.Result) library.Query {
	q := fallbackQuery(req)
	if title := strings.TrimSpace(result.Title); title != "" {
		q.Title = title
	}
	q.Chapter = strings.TrimSpace(result.Chapter)
	q.Category = strings.TrimSpace(result.Category)
	q.Tags = unionTags(q.Tags, result.Tags)
	return q
}

func unionTags(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	var out []string
	for _, tag := range append(append([]string{}, base...), extra...) {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// describeQuery renders the query for the processing record.
func describeQuery(q library.Query) string {
	parts := make([]string, 0, 5)
	if q.Title != "" {
		parts = append(parts, q.Title)
	}
	if q.Chapter != "" {
		parts = append(parts, "cap "+q.Chapter)
	}
	if q.Category != "" {
		parts = append(parts, "["+q.Category+"]")
	}
	if len(q.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(q.Tags, " #"))
	}
	if q.Description != "" {
		parts = append(parts, q.Description)
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && v != "." {
			return v
		}
	}
	return ""
}
