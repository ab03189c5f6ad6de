package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/domain/ordering"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

const taskColumns = `id, list_id, title, description, due_date, priority, is_completed, completed_at,
	is_archived, position, is_reminded, remind_days, created_by, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// Create stores the row only; assignees and labels go through the Replace calls.
func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (list_id, title, description, due_date, priority, is_completed, completed_at,
			is_archived, position, is_reminded, remind_days, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		task.ListID, task.Title, task.Description, task.DueDate, task.Priority,
		task.IsCompleted, task.CompletedAt, task.IsArchived, task.Position,
		task.IsReminded, task.RemindDays, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	var task entities.Task
	if err := r.db.Conn(ctx).GetContext(ctx, &task, query, id); err != nil {
		return nil, notFound(err, entities.ErrTaskNotFound, "get task by id")
	}

	if err := r.fillRelations(ctx, []*entities.Task{&task}); err != nil {
		return nil, err
	}

	return &task, nil
}

// Update writes the scalar fields and reads back the stored list and
// position, which only change through MoveToList and UpdatePositions.
func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, due_date = $3, priority = $4, is_completed = $5,
			completed_at = $6, is_archived = $7, is_reminded = $8, remind_days = $9,
			updated_at = NOW()
		WHERE id = $10
		RETURNING list_id, position, updated_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		task.Title, task.Description, task.DueDate, task.Priority, task.IsCompleted,
		task.CompletedAt, task.IsArchived, task.IsReminded, task.RemindDays,
		task.ID,
	).Scan(&task.ListID, &task.Position, &task.UpdatedAt)
	if err != nil {
		return notFound(err, entities.ErrTaskNotFound, "update task")
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return cascadeDelete(ctx, r.db, "tasks", taskDeleteRules, id, entities.ErrTaskNotFound)
}

func (r *TaskRepositoryImpl) ListByList(ctx context.Context, listID int64, includeArchived bool) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE list_id = $1 AND ($2 OR NOT is_archived)
		ORDER BY is_archived, position, id`, taskColumns)

	var tasks []*entities.Task
	if err := r.db.Conn(ctx).SelectContext(ctx, &tasks, query, listID, includeArchived); err != nil {
		return nil, fmt.Errorf("list tasks by list: %w", err)
	}

	if err := r.fillRelations(ctx, tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) Slots(ctx context.Context, listID int64) ([]ordering.Slot, error) {
	out, err := slots(ctx, r.db,
		`SELECT id, position FROM tasks WHERE list_id = $1 AND NOT is_archived ORDER BY position, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("task slots: %w", err)
	}
	return out, nil
}

func (r *TaskRepositoryImpl) MaxPosition(ctx context.Context, listID int64) (int, error) {
	var last int
	err := r.db.Conn(ctx).GetContext(ctx, &last,
		`SELECT COALESCE(MAX(position), 0) FROM tasks WHERE list_id = $1 AND NOT is_archived`, listID)
	if err != nil {
		return 0, fmt.Errorf("max task position: %w", err)
	}
	return last, nil
}

func (r *TaskRepositoryImpl) UpdatePositions(ctx context.Context, changes []ordering.Change) error {
	return updatePositions(ctx, r.db, "tasks", changes)
}

func (r *TaskRepositoryImpl) MoveToList(ctx context.Context, taskID, listID int64, position int) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE tasks SET list_id = $1, position = $2, updated_at = NOW() WHERE id = $3`,
		listID, position, taskID)
	if err != nil {
		return fmt.Errorf("move task: %w", err)
	}
	return mustAffect(res, entities.ErrTaskNotFound, "move task")
}

func (r *TaskRepositoryImpl) ReplaceAssignees(ctx context.Context, taskID int64, userIDs []uuid.UUID) (entities.SetDiff[uuid.UUID], error) {
	conn := r.db.Conn(ctx)

	var current []uuid.UUID
	if err := conn.SelectContext(ctx, &current,
		`SELECT user_id FROM task_assignees WHERE task_id = $1 FOR UPDATE`, taskID); err != nil {
		return entities.SetDiff[uuid.UUID]{}, fmt.Errorf("load assignees: %w", err)
	}

	diff := entities.Diff(current, userIDs)
	if len(diff.Removed) > 0 {
		_, err := conn.ExecContext(ctx,
			`DELETE FROM task_assignees WHERE task_id = $1 AND user_id = ANY($2::uuid[])`,
			taskID, uuidArray(diff.Removed))
		if err != nil {
			return diff, fmt.Errorf("remove assignees: %w", err)
		}
	}
	if len(diff.Added) > 0 {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO task_assignees (task_id, user_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT DO NOTHING`,
			taskID, uuidArray(diff.Added))
		if err != nil {
			return diff, fmt.Errorf("add assignees: %w", err)
		}
	}

	return diff, nil
}

func (r *TaskRepositoryImpl) ReplaceLabels(ctx context.Context, taskID int64, labelIDs []int64) (entities.SetDiff[int64], error) {
	conn := r.db.Conn(ctx)

	var current []int64
	if err := conn.SelectContext(ctx, &current,
		`SELECT label_id FROM task_labels WHERE task_id = $1 FOR UPDATE`, taskID); err != nil {
		return entities.SetDiff[int64]{}, fmt.Errorf("load task labels: %w", err)
	}

	diff := entities.Diff(current, labelIDs)
	if len(diff.Removed) > 0 {
		_, err := conn.ExecContext(ctx,
			`DELETE FROM task_labels WHERE task_id = $1 AND label_id = ANY($2)`,
			taskID, pq.Array(diff.Removed))
		if err != nil {
			return diff, fmt.Errorf("remove task labels: %w", err)
		}
	}
	if len(diff.Added) > 0 {
		_, err := conn.ExecContext(ctx, `
			INSERT INTO task_labels (task_id, label_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING`,
			taskID, pq.Array(diff.Added))
		if err != nil {
			return diff, fmt.Errorf("add task labels: %w", err)
		}
	}

	return diff, nil
}

func (r *TaskRepositoryImpl) ListReminderCandidates(ctx context.Context) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE NOT is_completed AND NOT is_reminded
		  AND due_date IS NOT NULL AND remind_days > 0
		ORDER BY id`, taskColumns)

	var tasks []*entities.Task
	if err := r.db.Conn(ctx).SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}

	if err := r.fillRelations(ctx, tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) MarkReminded(ctx context.Context, taskID int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE tasks SET is_reminded = TRUE WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("mark task reminded: %w", err)
	}
	return mustAffect(res, entities.ErrTaskNotFound, "mark task reminded")
}

// fillRelations loads assignees and label ids for a batch of tasks.
func (r *TaskRepositoryImpl) fillRelations(ctx context.Context, tasks []*entities.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, len(tasks))
	byID := make(map[int64]*entities.Task, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		t.Assignees = []uuid.UUID{}
		t.LabelIDs = []int64{}
		byID[t.ID] = t
	}

	conn := r.db.Conn(ctx)

	var assignees []struct {
		TaskID int64     `db:"task_id"`
		UserID uuid.UUID `db:"user_id"`
	}
	if err := conn.SelectContext(ctx, &assignees,
		`SELECT task_id, user_id FROM task_assignees WHERE task_id = ANY($1) ORDER BY task_id, user_id`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("load task assignees: %w", err)
	}
	for _, a := range assignees {
		t := byID[a.TaskID]
		t.Assignees = append(t.Assignees, a.UserID)
	}

	var labels []struct {
		TaskID  int64 `db:"task_id"`
		LabelID int64 `db:"label_id"`
	}
	if err := conn.SelectContext(ctx, &labels,
		`SELECT task_id, label_id FROM task_labels WHERE task_id = ANY($1) ORDER BY task_id, label_id`,
		pq.Array(ids)); err != nil {
		return fmt.Errorf("load task labels: %w", err)
	}
	for _, l := range labels {
		t := byID[l.TaskID]
		t.LabelIDs = append(t.LabelIDs, l.LabelID)
	}

	return nil
}
