package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
)

const (
	suggestionSourceRows = 5
	maxSuggestions       = 8
)

// Suggestions derives autocomplete candidates from conversation and prompt
// titles and tags. Results are deduplicated in first-encounter order and
// capped at 8.
func (s *SearchService) Suggestions(ctx context.Context, userID uuid.UUID, query string) ([]string, error) {
	if len(query) < 2 {
		return []string{}, nil
	}

	pattern := likePattern(query)

	var conversations []models.Conversation
	var prompts []models.Prompt

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Select("title", "tags").
			Where("user_id = ?", userID).
			Where("LOWER(title) LIKE ?", pattern).
			Limit(suggestionSourceRows).
			Find(&conversations).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Select("title", "tags").
			Where(s.db.Where("user_id = ?", userID).Or("is_public = ?", true)).
			Where("LOWER(title) LIKE ?", pattern).
			Limit(suggestionSourceRows).
			Find(&prompts).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lowerQuery := strings.ToLower(query)
	seen := make(map[string]struct{})
	suggestions := make([]string, 0, maxSuggestions)

	add := func(candidate string) {
		if !strings.Contains(strings.ToLower(candidate), lowerQuery) {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		suggestions = append(suggestions, candidate)
	}

	for _, conv := range conversations {
		add(conv.Title)
		for _, tag := range conv.Tags {
			add(tag)
		}
	}
	for _, prompt := range prompts {
		add(prompt.Title)
		for _, tag := range prompt.Tags {
			add(tag)
		}
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}
