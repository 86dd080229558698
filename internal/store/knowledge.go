package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tinkerloft/frontdesk/internal/model"
)

// KnowledgeStore is the authoritative record of learned question/answer pairs.
type KnowledgeStore struct {
	db *sql.DB
}

// NewKnowledgeStore creates a KnowledgeStore backed by db.
func NewKnowledgeStore(db *sql.DB) *KnowledgeStore {
	return &KnowledgeStore{db: db}
}

// SearchResult is a knowledge entry with its relevance score, best first.
type SearchResult struct {
	Entry model.KnowledgeEntry
	Score float64
}

// Add persists a new knowledge entry.
func (s *KnowledgeStore) Add(ctx context.Context, entry model.KnowledgeEntry) error {
	return insertKnowledge(ctx, s.db, entry)
}

func insertKnowledge(ctx context.Context, q querier, entry model.KnowledgeEntry) error {
	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO knowledge_entries (id, question, answer, source, tags, usage_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Question, entry.Answer, string(entry.Source),
		string(tagsJSON), entry.UsageCount, entry.CreatedAt.Time,
	)
	if err != nil {
		return fmt.Errorf("adding knowledge entry: %w", err)
	}
	return nil
}

// Get retrieves a knowledge entry by ID. Returns ErrNotFound if absent.
func (s *KnowledgeStore) Get(ctx context.Context, id string) (*model.KnowledgeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, question, answer, source, tags, usage_count, created_at
		 FROM knowledge_entries WHERE id = ?`, id)

	entry, err := scanKnowledge(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("knowledge entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting knowledge entry: %w", err)
	}
	return entry, nil
}

// List retrieves knowledge entries ordered by created_at descending.
// limit <= 0 means no cap.
func (s *KnowledgeStore) List(ctx context.Context, limit int) ([]model.KnowledgeEntry, error) {
	query := `SELECT id, question, answer, source, tags, usage_count, created_at
		 FROM knowledge_entries ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge entries: %w", err)
	}
	defer rows.Close()

	entries := []model.KnowledgeEntry{}
	for rows.Next() {
		entry, err := scanKnowledge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning knowledge entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Search returns entries relevant to query, best match first. An entry whose
// question contains the whole query outranks token-overlap matches against
// question or answer text. An empty or whitespace query behaves exactly like
// List: every entry is returned.
func (s *KnowledgeStore) Search(ctx context.Context, query string) ([]SearchResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))

	entries, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	if normalized == "" {
		results := make([]SearchResult, 0, len(entries))
		for _, e := range entries {
			results = append(results, SearchResult{Entry: e})
		}
		return results, nil
	}

	tokens := strings.Fields(normalized)
	var results []SearchResult
	for _, e := range entries {
		score := scoreEntry(normalized, tokens, e)
		if score > 0 {
			results = append(results, SearchResult{Entry: e, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.UsageCount > results[j].Entry.UsageCount
	})
	return results, nil
}

// IncrementUsage atomically increments an entry's usage counter.
// Returns ErrNotFound for an unknown ID.
func (s *KnowledgeStore) IncrementUsage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_entries SET usage_count = usage_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("incrementing usage count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("incrementing usage count: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("knowledge entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// Count returns the total number of knowledge entries.
func (s *KnowledgeStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting knowledge entries: %w", err)
	}
	return n, nil
}

// scoreEntry ranks an entry against a normalized query. A whole-query hit on
// the question scores 1.0; otherwise the score is the fraction of query
// tokens found in the question or answer, scaled below the exact-match band.
func scoreEntry(query string, tokens []string, e model.KnowledgeEntry) float64 {
	question := strings.ToLower(e.Question)
	answer := strings.ToLower(e.Answer)

	if strings.Contains(question, query) {
		return 1.0
	}

	matched := 0
	for _, tok := range tokens {
		if strings.Contains(question, tok) || strings.Contains(answer, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens)) * 0.9
}

func scanKnowledge(row rowScanner) (*model.KnowledgeEntry, error) {
	var (
		entry     model.KnowledgeEntry
		source    string
		tagsJSON  string
		createdAt time.Time
	)

	err := row.Scan(&entry.ID, &entry.Question, &entry.Answer, &source, &tagsJSON, &entry.UsageCount, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.Source = model.KnowledgeSource(source)
	entry.CreatedAt = model.NewTimestamp(createdAt)
	if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &entry, nil
}
