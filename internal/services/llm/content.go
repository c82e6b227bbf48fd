package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContentClassificationPrompt instructs the model to extract request metadata.
const ContentClassificationPrompt = `You label files and requests shared in a Spanish-speaking reading group.
Given a filename, a caption, and optionally the provider channel name, identify the work.
Respond with JSON only, using this shape:
{"title": "<work title without chapter or volume>", "chapter": "<chapter or episode number as digits, empty if unknown>", "category": "<one of manga, manhwa, comic, novela, libro, revista, otro>", "tags": ["<up to 5 lowercase keywords>"]}
Never invent a chapter number that is not present in the input.`

// ContentInput is what the model sees.
type ContentInput struct {
	Filename     string `json:"filename,omitempty"`
	Caption      string `json:"caption,omitempty"`
	ProviderHint string `json:"provider,omitempty"`
}

// ContentGuess is the decoded classification.
type ContentGuess struct {
	Title    string   `json:"title"`
	Chapter  string   `json:"chapter"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Raw      string   `json:"-"`
}

// ClassifyContent asks the model to label a filename or caption.
func (c *Client) ClassifyContent(ctx context.Context, input ContentInput) (ContentGuess, error) {
	var empty ContentGuess
	if strings.TrimSpace(input.Filename) == "" && strings.TrimSpace(input.Caption) == "" {
		return empty, errors.New("llm classify: filename or caption required")
	}
	prompt, err := json.Marshal(input)
	if err != nil {
		return empty, fmt.Errorf("llm classify: encode input: %w", err)
	}
	content, err := c.CompleteJSON(ctx, ContentClassificationPrompt, string(prompt))
	if err != nil {
		return empty, err
	}
	var guess ContentGuess
	if err := DecodeLLMJSON(content, &guess); err != nil {
		return empty, fmt.Errorf("llm classify: parse payload: %w", err)
	}
	guess.Raw = content
	guess.Title = strings.TrimSpace(guess.Title)
	guess.Chapter = strings.TrimSpace(guess.Chapter)
	guess.Category = strings.ToLower(strings.TrimSpace(guess.Category))
	tags := guess.Tags[:0]
	for _, tag := range guess.Tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tags = append(tags, tag)
		}
	}
	guess.Tags = tags
	if guess.Title == "" {
		return empty, errors.New("llm classify: model returned no title")
	}
	return guess, nil
}
