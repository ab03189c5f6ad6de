package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// InvitationService lets board owners invite users and lets invitees answer.
type InvitationService struct {
	tx          ports.Transactor
	boards      ports.BoardRepository
	users       ports.UserRepository
	invitations ports.InvitationRepository
	activity    ports.ActivityRepository
	notifier    ports.Notifier
	access      access
	logger      *logger.Logger
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	tx ports.Transactor,
	boards ports.BoardRepository,
	users ports.UserRepository,
	invitations ports.InvitationRepository,
	activity ports.ActivityRepository,
	notifier ports.Notifier,
	logger *logger.Logger,
) *InvitationService {
	return &InvitationService{
		tx:          tx,
		boards:      boards,
		users:       users,
		invitations: invitations,
		activity:    activity,
		notifier:    notifier,
		access:      access{boards: boards},
		logger:      logger,
	}
}

// Invite creates a pending invitation for the user named by username or
// email. An existing pending invitation for the same pair is returned as is
// and no new notification is sent.
func (s *InvitationService) Invite(ctx context.Context, actor uuid.UUID, boardID int64, req ports.InviteRequest) (*entities.BoardInvitation, bool, error) {
	board, err := s.access.ownedBoard(ctx, actor, boardID)
	if err != nil {
		return nil, false, err
	}

	invitee, err := s.lookupInvitee(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if board.HasAccess(invitee.ID) {
		return nil, false, entities.ErrAlreadyMember
	}

	existing, err := s.invitations.FindPending(ctx, boardID, invitee.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, entities.ErrInvitationNotFound):
		return nil, false, fmt.Errorf("failed to check invitations: %w", err)
	}

	inv := &entities.BoardInvitation{
		BoardID:     boardID,
		SenderID:    actor,
		RecipientID: invitee.ID,
		Status:      entities.InvitationPending,
		CreatedAt:   time.Now(),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		// A concurrent invite for the same pair won the insert.
		if errors.Is(err, entities.ErrInvitationPending) {
			if existing, ferr := s.invitations.FindPending(ctx, boardID, invitee.ID); ferr == nil {
				return existing, false, nil
			}
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.logger.Infow("Invitation sent", "invitation_id", inv.ID, "board_id", boardID, "recipient_id", invitee.ID)

	s.notifier.InvitationSent(ctx, board, inv)
	return inv, true, nil
}

// Accept adds the recipient to the board and tells the sender.
func (s *InvitationService) Accept(ctx context.Context, actor uuid.UUID, id int64) (*entities.BoardInvitation, error) {
	inv, err := s.recipientInvitation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	board, err := s.boards.GetByID(ctx, inv.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	if err := inv.Accept(time.Now()); err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.invitations.UpdateStatus(ctx, inv); err != nil {
			return fmt.Errorf("failed to update invitation: %w", err)
		}
		if !board.HasAccess(actor) {
			if err := s.boards.AddMember(ctx, board.ID, actor); err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
			board.Members = append(board.Members, actor)
		}
		return logActivity(ctx, s.activity, board.ID, actor, ActionMemberJoined, actor.String())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Invitation accepted", "invitation_id", inv.ID, "board_id", board.ID, "user_id", actor)

	s.notifier.InvitationAccepted(ctx, board, inv)
	return inv, nil
}

// Decline closes the invitation without touching the board.
func (s *InvitationService) Decline(ctx context.Context, actor uuid.UUID, id int64) (*entities.BoardInvitation, error) {
	inv, err := s.recipientInvitation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Decline(time.Now()); err != nil {
		return nil, err
	}
	if err := s.invitations.UpdateStatus(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}

	s.logger.Infow("Invitation declined", "invitation_id", inv.ID, "user_id", actor)
	return inv, nil
}

func (s *InvitationService) ListPending(ctx context.Context, actor uuid.UUID) ([]*entities.BoardInvitation, error) {
	invitations, err := s.invitations.ListPendingForRecipient(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitations: %w", err)
	}
	return invitations, nil
}

func (s *InvitationService) recipientInvitation(ctx context.Context, actor uuid.UUID, id int64) (*entities.BoardInvitation, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv.RecipientID != actor {
		return nil, entities.ErrNotRecipient
	}
	return inv, nil
}

func (s *InvitationService) lookupInvitee(ctx context.Context, req ports.InviteRequest) (*entities.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	var (
		user *entities.User
		err  error
	)
	switch {
	case username != "":
		user, err = s.users.GetByUsername(ctx, username)
	case email != "":
		user, err = s.users.GetByEmail(ctx, strings.ToLower(email))
	default:
		return nil, entities.Required("username")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invitee: %w", err)
	}
	return user, nil
}
