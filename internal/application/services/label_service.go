package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

const defaultLabelColor = "#61bd4f"

type LabelService struct {
	labels ports.LabelRepository
	access access
	logger *logger.Logger
}

func NewLabelService(boards ports.BoardRepository, labels ports.LabelRepository, logger *logger.Logger) *LabelService {
	return &LabelService{
		labels: labels,
		access: access{boards: boards},
		logger: logger,
	}
}

func (s *LabelService) CreateLabel(ctx context.Context, actor uuid.UUID, boardID int64, req ports.CreateLabelRequest) (*entities.Label, error) {
	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.board(ctx, actor, boardID); err != nil {
		return nil, err
	}

	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = defaultLabelColor
	}
	label := &entities.Label{
		BoardID:   boardID,
		Name:      name,
		Color:     color,
		CreatedAt: time.Now(),
	}
	if err := s.labels.Create(ctx, label); err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	return label, nil
}

func (s *LabelService) ListLabels(ctx context.Context, actor uuid.UUID, boardID int64) ([]*entities.Label, error) {
	if _, err := s.access.board(ctx, actor, boardID); err != nil {
		return nil, err
	}
	labels, err := s.labels.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	return labels, nil
}

// DeleteLabel also detaches the label from every task that carries it.
func (s *LabelService) DeleteLabel(ctx context.Context, actor uuid.UUID, id int64) error {
	label, err := s.labels.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get label: %w", err)
	}
	if _, err := s.access.board(ctx, actor, label.BoardID); err != nil {
		return err
	}
	if err := s.labels.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	return nil
}
