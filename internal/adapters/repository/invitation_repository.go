package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/ports"
)

const invitationColumns = `id, board_id, sender_id, recipient_id, status, created_at, responded_at`

// InvitationRepositoryImpl implements the InvitationRepository interface
type InvitationRepositoryImpl struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) ports.InvitationRepository {
	return &InvitationRepositoryImpl{db: db}
}

func (r *InvitationRepositoryImpl) Create(ctx context.Context, inv *entities.BoardInvitation) error {
	query := `
		INSERT INTO board_invitations (board_id, sender_id, recipient_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query, inv.BoardID, inv.SenderID, inv.RecipientID, inv.Status).
		Scan(&inv.ID, &inv.CreatedAt)
	if isUniqueViolation(err) {
		return entities.ErrInvitationPending
	}
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.BoardInvitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM board_invitations WHERE id = $1`, invitationColumns)

	var inv entities.BoardInvitation
	if err := r.db.Conn(ctx).GetContext(ctx, &inv, query, id); err != nil {
		return nil, notFound(err, entities.ErrInvitationNotFound, "get invitation by id")
	}
	return &inv, nil
}

func (r *InvitationRepositoryImpl) FindPending(ctx context.Context, boardID int64, recipientID uuid.UUID) (*entities.BoardInvitation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM board_invitations
		WHERE board_id = $1 AND recipient_id = $2 AND status = 'pending'`, invitationColumns)

	var inv entities.BoardInvitation
	if err := r.db.Conn(ctx).GetContext(ctx, &inv, query, boardID, recipientID); err != nil {
		return nil, notFound(err, entities.ErrInvitationNotFound, "find pending invitation")
	}
	return &inv, nil
}

func (r *InvitationRepositoryImpl) UpdateStatus(ctx context.Context, inv *entities.BoardInvitation) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE board_invitations SET status = $1, responded_at = $2 WHERE id = $3`,
		inv.Status, inv.RespondedAt, inv.ID)
	if err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}
	return mustAffect(res, entities.ErrInvitationNotFound, "update invitation status")
}

func (r *InvitationRepositoryImpl) ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]*entities.BoardInvitation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM board_invitations
		WHERE recipient_id = $1 AND status = 'pending'
		ORDER BY created_at DESC, id DESC`, invitationColumns)

	var out []*entities.BoardInvitation
	if err := r.db.Conn(ctx).SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list pending invitations: %w", err)
	}
	return out, nil
}
