package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

const boardColumns = `b.id, b.name, b.description, b.owner_id, b.webhook_url, b.created_at, b.updated_at`

// BoardRepositoryImpl implements the BoardRepository interface
type BoardRepositoryImpl struct {
	db *database.DB
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(db *database.DB) ports.BoardRepository {
	return &BoardRepositoryImpl{db: db}
}

func (r *BoardRepositoryImpl) Create(ctx context.Context, board *entities.Board) error {
	query := `
		INSERT INTO boards (name, description, owner_id, webhook_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		board.Name, board.Description, board.OwnerID, board.WebhookURL,
	).Scan(&board.ID, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}

	for _, m := range board.Members {
		if err := r.AddMember(ctx, board.ID, m); err != nil {
			return err
		}
	}

	return nil
}

func (r *BoardRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Board, error) {
	query := fmt.Sprintf(`SELECT %s FROM boards b WHERE b.id = $1`, boardColumns)

	var board entities.Board
	if err := r.db.Conn(ctx).GetContext(ctx, &board, query, id); err != nil {
		return nil, notFound(err, entities.ErrBoardNotFound, "get board by id")
	}

	if err := r.fillMembers(ctx, []*entities.Board{&board}); err != nil {
		return nil, err
	}

	return &board, nil
}

func (r *BoardRepositoryImpl) Update(ctx context.Context, board *entities.Board) error {
	query := `
		UPDATE boards
		SET name = $1, description = $2, webhook_url = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		board.Name, board.Description, board.WebhookURL, board.ID,
	).Scan(&board.UpdatedAt)
	if err != nil {
		return notFound(err, entities.ErrBoardNotFound, "update board")
	}

	return nil
}

// Delete removes the board after its lists, tasks, labels, invitations,
// members, stars, activity and notifications.
func (r *BoardRepositoryImpl) Delete(ctx context.Context, id int64) error {
	return cascadeDelete(ctx, r.db, "boards", boardDeleteRules, id, entities.ErrBoardNotFound)
}

// ListForUser returns owned and joined boards, newest first.
func (r *BoardRepositoryImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Board, error) {
	query := fmt.Sprintf(`
		SELECT %s, EXISTS (
			SELECT 1 FROM board_stars s WHERE s.board_id = b.id AND s.user_id = $1
		) AS is_starred
		FROM boards b
		WHERE b.owner_id = $1
		   OR EXISTS (SELECT 1 FROM board_members m WHERE m.board_id = b.id AND m.user_id = $1)
		ORDER BY b.created_at DESC, b.id DESC`, boardColumns)

	var rows []struct {
		entities.Board
		Starred bool `db:"is_starred"`
	}
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list boards for user: %w", err)
	}

	boards := make([]*entities.Board, len(rows))
	for i := range rows {
		b := rows[i].Board
		b.IsStarred = rows[i].Starred
		boards[i] = &b
	}

	if err := r.fillMembers(ctx, boards); err != nil {
		return nil, err
	}

	return boards, nil
}

func (r *BoardRepositoryImpl) AddMember(ctx context.Context, boardID int64, userID uuid.UUID) error {
	query := `
		INSERT INTO board_members (board_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, boardID, userID); err != nil {
		return fmt.Errorf("add board member: %w", err)
	}
	return nil
}

func (r *BoardRepositoryImpl) RemoveMember(ctx context.Context, boardID int64, userID uuid.UUID) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`DELETE FROM board_members WHERE board_id = $1 AND user_id = $2`, boardID, userID)
	if err != nil {
		return fmt.Errorf("remove board member: %w", err)
	}
	return mustAffect(res, entities.ErrMemberNotFound, "remove board member")
}

func (r *BoardRepositoryImpl) SetStarred(ctx context.Context, boardID int64, userID uuid.UUID, starred bool) error {
	query := `DELETE FROM board_stars WHERE board_id = $1 AND user_id = $2`
	if starred {
		query = `INSERT INTO board_stars (board_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, boardID, userID); err != nil {
		return fmt.Errorf("set board star: %w", err)
	}
	return nil
}

func (r *BoardRepositoryImpl) IsStarred(ctx context.Context, boardID int64, userID uuid.UUID) (bool, error) {
	var starred bool
	err := r.db.Conn(ctx).GetContext(ctx, &starred,
		`SELECT EXISTS (SELECT 1 FROM board_stars WHERE board_id = $1 AND user_id = $2)`, boardID, userID)
	if err != nil {
		return false, fmt.Errorf("check board star: %w", err)
	}
	return starred, nil
}

func (r *BoardRepositoryImpl) fillMembers(ctx context.Context, boards []*entities.Board) error {
	if len(boards) == 0 {
		return nil
	}

	ids := make([]int64, len(boards))
	byID := make(map[int64]*entities.Board, len(boards))
	for i, b := range boards {
		ids[i] = b.ID
		b.Members = []uuid.UUID{}
		byID[b.ID] = b
	}

	var rows []struct {
		BoardID int64     `db:"board_id"`
		UserID  uuid.UUID `db:"user_id"`
	}
	query := `
		SELECT board_id, user_id FROM board_members
		WHERE board_id = ANY($1)
		ORDER BY joined_at, user_id`
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load board members: %w", err)
	}

	for _, row := range rows {
		b := byID[row.BoardID]
		b.Members = append(b.Members, row.UserID)
	}
	return nil
}
