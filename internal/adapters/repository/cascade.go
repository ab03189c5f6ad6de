package repository

import (
	"context"
	"fmt"

	"github.com/taskmaster/kanban/internal/infrastructure/database"
)

// Delete rules per entity. Every statement takes the deleted row's id as $1
// and children are removed before their parents. The foreign keys do not
// cascade, so a missing rule fails the delete instead of leaving orphans.

// taskChildRules removes everything hanging off the tasks selected by scope.
func taskChildRules(scope string) []string {
	return []string{
		`DELETE FROM notifications WHERE task_id IN (` + scope + `)`,
		`DELETE FROM comments WHERE task_id IN (` + scope + `)`,
		`DELETE FROM checklist_items WHERE task_id IN (` + scope + `)`,
		`DELETE FROM attachments WHERE task_id IN (` + scope + `)`,
		`DELETE FROM task_assignees WHERE task_id IN (` + scope + `)`,
		`DELETE FROM task_labels WHERE task_id IN (` + scope + `)`,
	}
}

var taskDeleteRules = taskChildRules(`SELECT $1::bigint`)

var listDeleteRules = append(
	taskChildRules(`SELECT id FROM tasks WHERE list_id = $1`),
	`DELETE FROM tasks WHERE list_id = $1`,
)

var boardDeleteRules = append(
	taskChildRules(`SELECT t.id FROM tasks t JOIN lists l ON l.id = t.list_id WHERE l.board_id = $1`),
	`DELETE FROM tasks WHERE list_id IN (SELECT id FROM lists WHERE board_id = $1)`,
	`DELETE FROM lists WHERE board_id = $1`,
	`DELETE FROM task_labels WHERE label_id IN (SELECT id FROM labels WHERE board_id = $1)`,
	`DELETE FROM labels WHERE board_id = $1`,
	`DELETE FROM notifications WHERE board_id = $1`,
	`DELETE FROM board_invitations WHERE board_id = $1`,
	`DELETE FROM board_members WHERE board_id = $1`,
	`DELETE FROM board_stars WHERE board_id = $1`,
	`DELETE FROM activity_logs WHERE board_id = $1`,
)

var labelDeleteRules = []string{
	`DELETE FROM task_labels WHERE label_id = $1`,
}

// cascadeDelete runs rules and then the parent delete in one transaction,
// joining the caller's transaction when there is one.
func cascadeDelete(ctx context.Context, db *database.DB, table string, rules []string, id int64, missing error) error {
	return db.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, query := range rules {
			if _, err := db.Conn(ctx).ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}

		res, err := db.Conn(ctx).ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
		if err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
		return mustAffect(res, missing, "delete "+table)
	})
}
