// Package repository implements the persistence ports on PostgreSQL with sqlx.
// Every repository resolves its connection through database.DB.Conn so calls
// made inside WithinTransaction share the caller's transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskmaster/kanban/internal/domain/ordering"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
)

// notFound maps sql.ErrNoRows to the entity error and wraps everything else.
func notFound(err error, missing error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return missing
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// mustAffect turns an UPDATE or DELETE that matched nothing into missing.
func mustAffect(res sql.Result, missing error, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func uuidArray(ids []uuid.UUID) interface{} {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}

// updatePositions rewrites the positions of one table in a single statement.
func updatePositions(ctx context.Context, db *database.DB, table string, changes []ordering.Change) error {
	if len(changes) == 0 {
		return nil
	}

	ids := make([]int64, len(changes))
	positions := make([]int64, len(changes))
	for i, c := range changes {
		ids[i] = c.ID
		positions[i] = int64(c.Position)
	}

	query := fmt.Sprintf(`
		UPDATE %s AS t
		SET position = c.position, updated_at = NOW()
		FROM unnest($1::bigint[], $2::int[]) AS c(id, position)
		WHERE t.id = c.id`, table)

	if _, err := db.Conn(ctx).ExecContext(ctx, query, pq.Array(ids), pq.Array(positions)); err != nil {
		return fmt.Errorf("update %s positions: %w", table, err)
	}
	return nil
}

func slots(ctx context.Context, db *database.DB, query string, arg interface{}) ([]ordering.Slot, error) {
	var rows []struct {
		ID       int64 `db:"id"`
		Position int   `db:"position"`
	}
	if err := db.Conn(ctx).SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, err
	}
	out := make([]ordering.Slot, len(rows))
	for i, r := range rows {
		out[i] = ordering.Slot{ID: r.ID, Position: r.Position}
	}
	return out, nil
}
