package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hedoomy/backoffice/internal/shared"
)

// TimelineFilters narrows the activity listing.
type TimelineFilters struct {
	Action     string
	ActorEmail string
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

// Timeline is a page of activity entries.
type Timeline struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

// Reader loads activity entries for the dashboard timeline.
type Reader struct {
	pool *pgxpool.Pool
}

// NewReader returns a Reader.
func NewReader(pool *pgxpool.Pool) *Reader {
	return &Reader{pool: pool}
}

// List returns entries newest first.
func (r *Reader) List(ctx context.Context, filters TimelineFilters) (Timeline, error) {
	if filters.PerPage <= 0 || filters.PerPage > 100 {
		filters.PerPage = 20
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}

	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Action != "" {
		argCount++
		where += ` AND action = $` + strconv.Itoa(argCount)
		args = append(args, filters.Action)
	}
	if filters.ActorEmail != "" {
		argCount++
		where += ` AND actor->>'email' = $` + strconv.Itoa(argCount)
		args = append(args, filters.ActorEmail)
	}
	if !filters.From.IsZero() {
		argCount++
		where += ` AND occurred_at >= $` + strconv.Itoa(argCount)
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		where += ` AND occurred_at <= $` + strconv.Itoa(argCount)
		args = append(args, filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`+where, args...).Scan(&total); err != nil {
		return Timeline{}, err
	}

	query := `SELECT id, action, details, actor, changes, occurred_at FROM activity_logs` + where +
		` ORDER BY occurred_at DESC LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
	args = append(args, filters.PerPage, (filters.Page-1)*filters.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Timeline{}, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var actorJSON []byte
		var changesJSON []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.Details, &actorJSON, &changesJSON, &e.OccurredAt); err != nil {
			return Timeline{}, err
		}
		if err := json.Unmarshal(actorJSON, &e.Actor); err != nil {
			return Timeline{}, err
		}
		if len(changesJSON) > 0 {
			if err := json.Unmarshal(changesJSON, &e.Changes); err != nil {
				return Timeline{}, err
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return Timeline{}, err
	}

	return Timeline{
		Entries:    entries,
		Pagination: shared.NewPagination(filters.Page, filters.PerPage, total),
	}, nil
}
