package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/infrastructure/metrics"
	"github.com/taskmaster/kanban/internal/ports"
)

// ReminderLockKey serializes sweeps across processes.
const ReminderLockKey = "kanban:reminder-sweep"

// Reminder outcomes recorded per task.
const (
	ReminderSent    = "reminded"
	ReminderSkipped = "skipped"
	ReminderFailed  = "failed"
)

// ReminderService finds tasks whose reminder date has come and notifies
// their assignees once per due cycle.
type ReminderService struct {
	tasks    ports.TaskRepository
	lists    ports.ListRepository
	boards   ports.BoardRepository
	users    ports.UserRepository
	notifier ports.Notifier
	locker   ports.Locker
	lockTTL  time.Duration
	loc      *time.Location
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// ReminderOptions configures a ReminderService. Locker may be nil.
type ReminderOptions struct {
	Locker   ports.Locker
	LockTTL  time.Duration
	Location *time.Location
}

// NewReminderService creates a new reminder service
func NewReminderService(
	tasks ports.TaskRepository,
	lists ports.ListRepository,
	boards ports.BoardRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	opts ReminderOptions,
	m *metrics.Metrics,
	logger *logger.Logger,
) *ReminderService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReminderService{
		tasks:    tasks,
		lists:    lists,
		boards:   boards,
		users:    users,
		notifier: notifier,
		locker:   opts.Locker,
		lockTTL:  ttl,
		loc:      loc,
		metrics:  m,
		logger:   logger.WithComponent("reminder"),
	}
}

// Sweep runs one pass over the reminder candidates. Per-task failures are
// counted and logged; only a failure to load the candidates is returned.
// A task is flagged reminded once all of its assignees were attempted.
func (s *ReminderService) Sweep(ctx context.Context, now time.Time) (*ports.SweepResult, error) {
	result := &ports.SweepResult{}

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, ReminderLockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to take sweep lock: %w", err)
		}
		if !ok {
			s.logger.Infow("Reminder sweep already running elsewhere, skipping")
			return result, nil
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), ReminderLockKey); err != nil {
				s.logger.Warnw("Failed to release sweep lock", "error", err)
			}
		}()
	}

	candidates, err := s.tasks.ListReminderCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	boards := make(map[int64]*entities.Board)
	for _, task := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !task.ReminderDue(now, s.loc) {
			continue
		}
		result.Checked++

		outcome := s.remind(ctx, task, boards)
		switch outcome {
		case ReminderSent:
			result.Reminded++
		case ReminderSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		s.metrics.ObserveReminder(outcome)
	}

	s.logger.Infow("Reminder sweep finished",
		"candidates", len(candidates),
		"checked", result.Checked,
		"reminded", result.Reminded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *ReminderService) remind(ctx context.Context, task *entities.Task, boards map[int64]*entities.Board) string {
	log := s.logger.WithFields("task_id", task.ID)

	if len(task.Assignees) == 0 {
		log.Debugw("Task has no assignees, not reminding")
		return ReminderSkipped
	}

	board, err := s.boardFor(ctx, task, boards)
	if err != nil {
		log.Errorw("Failed to resolve board", "error", err)
		return ReminderFailed
	}

	assignees, err := s.users.GetByIDs(ctx, task.Assignees)
	if err != nil {
		log.Errorw("Failed to load assignees", "error", err)
		return ReminderFailed
	}

	created := s.notifier.TaskReminder(ctx, board, task, assignees)

	if err := s.tasks.MarkReminded(ctx, task.ID); err != nil {
		log.Errorw("Failed to mark task reminded", "error", err)
		return ReminderFailed
	}

	log.Infow("Task reminded", "board_id", board.ID, "assignees", len(assignees), "notifications", created)
	return ReminderSent
}

func (s *ReminderService) boardFor(ctx context.Context, task *entities.Task, cache map[int64]*entities.Board) (*entities.Board, error) {
	list, err := s.lists.GetByID(ctx, task.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	if board, ok := cache[list.BoardID]; ok {
		return board, nil
	}
	board, err := s.boards.GetByID(ctx, list.BoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	cache[list.BoardID] = board
	return board, nil
}
