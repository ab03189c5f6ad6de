package repository

import (
	"context"
	"fmt"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

// CommentRepositoryImpl implements the CommentRepository interface
type CommentRepositoryImpl struct {
	db *database.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *database.DB) ports.CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *entities.Comment) error {
	query := `
		INSERT INTO comments (task_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, comment.TaskID, comment.AuthorID, comment.Body).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *CommentRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Comment, error) {
	var comment entities.Comment
	err := r.db.Conn(ctx).GetContext(ctx, &comment,
		`SELECT id, task_id, author_id, body, created_at FROM comments WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, entities.ErrCommentNotFound, "get comment by id")
	}
	return &comment, nil
}

func (r *CommentRepositoryImpl) ListByTask(ctx context.Context, taskID int64) ([]*entities.Comment, error) {
	var comments []*entities.Comment
	err := r.db.Conn(ctx).SelectContext(ctx, &comments, `
		SELECT id, task_id, author_id, body, created_at FROM comments
		WHERE task_id = $1
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepositoryImpl) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return mustAffect(res, entities.ErrCommentNotFound, "delete comment")
}

// ChecklistRepositoryImpl implements the ChecklistRepository interface
type ChecklistRepositoryImpl struct {
	db *database.DB
}

// NewChecklistRepository creates a new checklist repository
func NewChecklistRepository(db *database.DB) ports.ChecklistRepository {
	return &ChecklistRepositoryImpl{db: db}
}

func (r *ChecklistRepositoryImpl) Create(ctx context.Context, item *entities.ChecklistItem) error {
	query := `
		INSERT INTO checklist_items (task_id, content, is_done, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, item.TaskID, item.Content, item.IsDone, item.Position).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create checklist item: %w", err)
	}
	return nil
}

func (r *ChecklistRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.ChecklistItem, error) {
	var item entities.ChecklistItem
	err := r.db.Conn(ctx).GetContext(ctx, &item,
		`SELECT id, task_id, content, is_done, position, created_at FROM checklist_items WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, entities.ErrChecklistNotFound, "get checklist item by id")
	}
	return &item, nil
}

func (r *ChecklistRepositoryImpl) Update(ctx context.Context, item *entities.ChecklistItem) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE checklist_items SET content = $1, is_done = $2 WHERE id = $3`,
		item.Content, item.IsDone, item.ID)
	if err != nil {
		return fmt.Errorf("update checklist item: %w", err)
	}
	return mustAffect(res, entities.ErrChecklistNotFound, "update checklist item")
}

func (r *ChecklistRepositoryImpl) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM checklist_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete checklist item: %w", err)
	}
	return mustAffect(res, entities.ErrChecklistNotFound, "delete checklist item")
}

func (r *ChecklistRepositoryImpl) ListByTask(ctx context.Context, taskID int64) ([]*entities.ChecklistItem, error) {
	var items []*entities.ChecklistItem
	err := r.db.Conn(ctx).SelectContext(ctx, &items, `
		SELECT id, task_id, content, is_done, position, created_at FROM checklist_items
		WHERE task_id = $1
		ORDER BY position, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	return items, nil
}

func (r *ChecklistRepositoryImpl) MaxPosition(ctx context.Context, taskID int64) (int, error) {
	var last int
	err := r.db.Conn(ctx).GetContext(ctx, &last,
		`SELECT COALESCE(MAX(position), 0) FROM checklist_items WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, fmt.Errorf("max checklist position: %w", err)
	}
	return last, nil
}

// AttachmentRepositoryImpl implements the AttachmentRepository interface
type AttachmentRepositoryImpl struct {
	db *database.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *database.DB) ports.AttachmentRepository {
	return &AttachmentRepositoryImpl{db: db}
}

func (r *AttachmentRepositoryImpl) Create(ctx context.Context, a *entities.Attachment) error {
	query := `
		INSERT INTO attachments (task_id, uploader_id, name, url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, a.TaskID, a.UploaderID, a.Name, a.URL).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

func (r *AttachmentRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Attachment, error) {
	var a entities.Attachment
	err := r.db.Conn(ctx).GetContext(ctx, &a,
		`SELECT id, task_id, uploader_id, name, url, created_at FROM attachments WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, entities.ErrAttachmentNotFound, "get attachment by id")
	}
	return &a, nil
}

func (r *AttachmentRepositoryImpl) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return mustAffect(res, entities.ErrAttachmentNotFound, "delete attachment")
}

func (r *AttachmentRepositoryImpl) ListByTask(ctx context.Context, taskID int64) ([]*entities.Attachment, error) {
	var out []*entities.Attachment
	err := r.db.Conn(ctx).SelectContext(ctx, &out, `
		SELECT id, task_id, uploader_id, name, url, created_at FROM attachments
		WHERE task_id = $1
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return out, nil
}

// LabelRepositoryImpl implements the LabelRepository interface
type LabelRepositoryImpl struct {
	db *database.DB
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *database.DB) ports.LabelRepository {
	return &LabelRepositoryImpl{db: db}
}

func (r *LabelRepositoryImpl) Create(ctx context.Context, l *entities.Label) error {
	query := `
		INSERT INTO labels (board_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, l.BoardID, l.Name, l.Color).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create label: %w", err)
	}
	return nil
}

func (r *LabelRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Label, error) {
	var l entities.Label
	err := r.db.Conn(ctx).GetContext(ctx, &l,
		`SELECT id, board_id, name, color, created_at FROM labels WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, entities.ErrLabelNotFound, "get label by id")
	}
	return &l, nil
}

func (r *LabelRepositoryImpl) ListByBoard(ctx context.Context, boardID int64) ([]*entities.Label, error) {
	var labels []*entities.Label
	err := r.db.Conn(ctx).SelectContext(ctx, &labels, `
		SELECT id, board_id, name, color, created_at FROM labels
		WHERE board_id = $1
		ORDER BY name, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return labels, nil
}

func (r *LabelRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return cascadeDelete(ctx, r.db, "labels", labelDeleteRules, id, entities.ErrLabelNotFound)
}
