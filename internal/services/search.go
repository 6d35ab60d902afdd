package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Search entity types.
const (
	SearchTypeAll           = "all"
	SearchTypeConversations = "conversations"
	SearchTypePrompts       = "prompts"
	SearchTypeMessages      = "messages"
)

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SearchFilters is the full filter set accepted by Search. All fields are
// optional and combine with AND semantics; tags match on overlap.
type SearchFilters struct {
	Query      string      `json:"query,omitempty"`
	Type       string      `json:"type,omitempty"` // all, conversations, prompts, messages
	DateRange  *DateRange  `json:"dateRange,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	Categories []uuid.UUID `json:"categories,omitempty"`
	Status     []string    `json:"status,omitempty"`
	Visibility string      `json:"visibility,omitempty"` // all, public, private
	SortBy     string      `json:"sortBy,omitempty"`     // relevance, date, usage
	SortOrder  string      `json:"sortOrder,omitempty"`  // asc, desc
}

// ResultMetadata is the per-kind metadata attached to a SearchResult.
type ResultMetadata interface {
	resultMetadata()
}

type ConversationMeta struct {
	Status   string   `json:"status"`
	Tags     []string `json:"tags"`
	IsPinned bool     `json:"is_pinned"`
}

type PromptMeta struct {
	Category   *CategoryMeta `json:"category,omitempty"`
	Tags       []string      `json:"tags"`
	IsPublic   bool          `json:"is_public"`
	UsageCount int64         `json:"usage_count"`
}

type CategoryMeta struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

type MessageMeta struct {
	Role              string    `json:"role"`
	ConversationID    uuid.UUID `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title"`
}

func (ConversationMeta) resultMetadata() {}
func (PromptMeta) resultMetadata()       {}
func (MessageMeta) resultMetadata()      {}

// SearchResult is built fresh on every search call and never persisted.
type SearchResult struct {
	ID        uuid.UUID      `json:"id"`
	Type      string         `json:"type"` // conversation, prompt, message
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Excerpt   string         `json:"excerpt"`
	Metadata  ResultMetadata `json:"metadata"`
	Score     int            `json:"score"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type TypeFacet struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type TagFacet struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

type CategoryFacet struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type DateRangeFacet struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

type Facets struct {
	Types      []TypeFacet      `json:"types"`
	Tags       []TagFacet       `json:"tags"`
	Categories []CategoryFacet  `json:"categories"`
	DateRanges []DateRangeFacet `json:"dateRanges"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int64          `json:"total"`
	Facets  Facets         `json:"facets"`
}

type SearchService struct {
	db *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search fans the query out to the entity adapters selected by filters.Type,
// merges their results, re-sorts and truncates to limit. Total is the sum of
// per-adapter match counts, taken before the merged list is capped.
func (s *SearchService) Search(ctx context.Context, userID uuid.UUID, filters SearchFilters, limit, offset int) (*SearchResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	// Fixed slots keep merge order (conversations, prompts, messages)
	// independent of adapter completion order.
	var bucketed [3][]SearchResult
	var totals [3]int64

	g, gctx := errgroup.WithContext(ctx)

	if searchesType(filters.Type, SearchTypeConversations) {
		g.Go(func() error {
			results, total, err := s.searchConversations(gctx, userID, filters, limit, offset)
			if err != nil {
				return err
			}
			bucketed[0], totals[0] = results, total
			return nil
		})
	}
	if searchesType(filters.Type, SearchTypePrompts) {
		g.Go(func() error {
			results, total, err := s.searchPrompts(gctx, userID, filters, limit, offset)
			if err != nil {
				return err
			}
			bucketed[1], totals[1] = results, total
			return nil
		})
	}
	if searchesType(filters.Type, SearchTypeMessages) {
		g.Go(func() error {
			results, total, err := s.searchMessages(gctx, userID, filters, limit, offset)
			if err != nil {
				return err
			}
			bucketed[2], totals[2] = results, total
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(bucketed[0])+len(bucketed[1])+len(bucketed[2]))
	for _, bucket := range bucketed {
		results = append(results, bucket...)
	}

	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "relevance"
	}
	sortOrder := filters.SortOrder
	if sortOrder == "" {
		sortOrder = "desc"
	}
	sortResults(results, sortBy, sortOrder)

	if len(results) > limit {
		results = results[:limit]
	}

	return &SearchResponse{
		Results: results,
		Total:   totals[0] + totals[1] + totals[2],
		Facets:  buildFacets(),
	}, nil
}

func searchesType(typeFilter, want string) bool {
	return typeFilter == "" || typeFilter == SearchTypeAll || typeFilter == want
}

// sortResults orders the merged list. The sort is stable so ties keep the
// conversations-prompts-messages merge order.
func sortResults(results []SearchResult, sortBy, sortOrder string) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		var cmp int64
		switch sortBy {
		case "date":
			cmp = b.UpdatedAt.UnixNano() - a.UpdatedAt.UnixNano()
		case "usage":
			cmp = resultUsageCount(b) - resultUsageCount(a)
		default: // relevance
			cmp = int64(b.Score - a.Score)
		}
		if sortOrder == "asc" {
			cmp = -cmp
		}
		return cmp < 0
	})
}

func resultUsageCount(r SearchResult) int64 {
	if meta, ok := r.Metadata.(PromptMeta); ok {
		return meta.UsageCount
	}
	return 0
}

// buildFacets returns the facet scaffolding with zero counts. Real facet
// aggregation across entity kinds is not implemented.
func buildFacets() Facets {
	return Facets{
		Types: []TypeFacet{
			{Type: SearchTypeConversations},
			{Type: SearchTypePrompts},
			{Type: SearchTypeMessages},
		},
		Tags:       []TagFacet{},
		Categories: []CategoryFacet{},
		DateRanges: []DateRangeFacet{
			{Range: "Last 7 days"},
			{Range: "Last 30 days"},
			{Range: "Last 3 months"},
			{Range: "Older"},
		},
	}
}
