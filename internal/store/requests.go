package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tinkerloft/frontdesk/internal/model"
)

// RequestStore is the authoritative record of help requests.
type RequestStore struct {
	db *sql.DB
}

// NewRequestStore creates a RequestStore backed by db.
func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

// RequestCounts holds per-status request totals for the stats endpoint.
type RequestCounts struct {
	Total      int64
	Pending    int64
	Resolved   int64
	Unresolved int64
}

// Create persists a new help request.
func (s *RequestStore) Create(ctx context.Context, req model.HelpRequest) error {
	contextJSON, err := json.Marshal(req.Context)
	if err != nil {
		return fmt.Errorf("encoding request context: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO help_requests (id, question, customer_id, customer_phone, customer_name, context, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Question, req.CustomerID,
		nullString(req.CustomerPhone), nullString(req.CustomerName),
		string(contextJSON), string(req.Status), req.CreatedAt.Time,
	)
	if err != nil {
		return fmt.Errorf("creating help request: %w", err)
	}
	return nil
}

// Get retrieves a help request by ID. Returns ErrNotFound if no such request.
func (s *RequestStore) Get(ctx context.Context, id string) (*model.HelpRequest, error) {
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id string) (*model.HelpRequest, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, question, customer_id, customer_phone, customer_name, context, status, supervisor_answer, supervisor_id, created_at, resolved_at
		 FROM help_requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("help request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting help request: %w", err)
	}
	return req, nil
}

// List retrieves help requests ordered by created_at descending (most recent
// first). status filters by lifecycle state; model.StatusAll matches every
// record. limit caps the result size; limit <= 0 means no cap.
func (s *RequestStore) List(ctx context.Context, status string, limit int) ([]model.HelpRequest, error) {
	query := `SELECT id, question, customer_id, customer_phone, customer_name, context, status, supervisor_answer, supervisor_id, created_at, resolved_at
		 FROM help_requests`
	args := []any{}

	if status != model.StatusAll {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing help requests: %w", err)
	}
	defer rows.Close()

	requests := []model.HelpRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning help request: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// Resolve transitions a request from pending to resolved, recording the
// supervisor's answer. The transition is a single conditional UPDATE, so
// concurrent resolvers serialize: only the first succeeds, later attempts
// observe ErrInvalidState. Returns the updated request.
func (s *RequestStore) Resolve(ctx context.Context, id, supervisorAnswer, supervisorID string) (*model.HelpRequest, error) {
	return resolveRequest(ctx, s.db, id, supervisorAnswer, supervisorID)
}

// ResolveAndLearn performs the resolve transition and records the learned
// knowledge entry in a single transaction: if the knowledge write fails, the
// request stays pending and the whole operation can be retried.
func (s *RequestStore) ResolveAndLearn(ctx context.Context, id, supervisorAnswer, supervisorID string, entry model.KnowledgeEntry) (*model.HelpRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolving help request: %w", err)
	}
	defer tx.Rollback()

	updated, err := resolveRequest(ctx, tx, id, supervisorAnswer, supervisorID)
	if err != nil {
		return nil, err
	}
	if err := insertKnowledge(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("learning supervisor answer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("resolving help request: %w", err)
	}
	return updated, nil
}

func resolveRequest(ctx context.Context, q querier, id, supervisorAnswer, supervisorID string) (*model.HelpRequest, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE help_requests
		 SET status = ?, supervisor_answer = ?, supervisor_id = ?, resolved_at = ?
		 WHERE id = ? AND status = ?`,
		string(model.RequestStatusResolved), supervisorAnswer, supervisorID, time.Now().UTC(),
		id, string(model.RequestStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("resolving help request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolving help request: %w", err)
	}
	if affected == 0 {
		// Distinguish unknown ID from an already-settled request.
		existing, err := getRequest(ctx, q, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("help request %s is %s: %w", id, existing.Status, ErrInvalidState)
	}

	return getRequest(ctx, q, id)
}

// MarkUnresolvedBefore transitions every request still pending at cutoff to
// unresolved, returning how many were updated. Uses the same conditional
// UPDATE as Resolve so it never races a concurrent resolution.
func (s *RequestStore) MarkUnresolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE help_requests SET status = ?, resolved_at = ?
		 WHERE status = ? AND created_at < ?`,
		string(model.RequestStatusUnresolved), time.Now().UTC(),
		string(model.RequestStatusPending), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("marking stale requests unresolved: %w", err)
	}
	return res.RowsAffected()
}

// Counts returns per-status totals in a single query.
func (s *RequestStore) Counts(ctx context.Context) (RequestCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM help_requests GROUP BY status`)
	if err != nil {
		return RequestCounts{}, fmt.Errorf("counting help requests: %w", err)
	}
	defer rows.Close()

	var counts RequestCounts
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return RequestCounts{}, fmt.Errorf("scanning request counts: %w", err)
		}
		counts.Total += n
		switch model.RequestStatus(status) {
		case model.RequestStatusPending:
			counts.Pending = n
		case model.RequestStatusResolved:
			counts.Resolved = n
		case model.RequestStatusUnresolved:
			counts.Unresolved = n
		}
	}
	return counts, rows.Err()
}

// querier is satisfied by both *sql.DB and *sql.Tx, so single-statement
// operations and transactional ones share the same SQL.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRequest.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*model.HelpRequest, error) {
	var (
		req              model.HelpRequest
		customerPhone    sql.NullString
		customerName     sql.NullString
		contextJSON      string
		status           string
		supervisorAnswer sql.NullString
		supervisorID     sql.NullString
		createdAt        time.Time
		resolvedAt       sql.NullTime
	)

	err := row.Scan(&req.ID, &req.Question, &req.CustomerID, &customerPhone, &customerName,
		&contextJSON, &status, &supervisorAnswer, &supervisorID, &createdAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	req.CustomerPhone = customerPhone.String
	req.CustomerName = customerName.String
	req.Status = model.RequestStatus(status)
	req.CreatedAt = model.NewTimestamp(createdAt)
	if supervisorAnswer.Valid {
		req.SupervisorAnswer = &supervisorAnswer.String
	}
	if supervisorID.Valid {
		req.SupervisorID = &supervisorID.String
	}
	if resolvedAt.Valid {
		ts := model.NewTimestamp(resolvedAt.Time)
		req.ResolvedAt = &ts
	}
	if contextJSON != "" && contextJSON != "null" {
		if err := json.Unmarshal([]byte(contextJSON), &req.Context); err != nil {
			return nil, fmt.Errorf("decoding request context: %w", err)
		}
	}
	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
