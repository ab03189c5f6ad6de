package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

type harness struct {
	t     *testing.T
	ctx   context.Context
	store *memStore

	dispatcher *queuedDispatcher
	push       *recordingPush
	email      *mockEmail
	webhook    *mockWebhook
	notifRepo  memNotifications

	boards        *BoardService
	lists         *ListService
	tasks         *TaskService
	comments      *CommentService
	items         *TaskItemService
	labels        *LabelService
	invitations   *InvitationService
	notifications *NotificationService
	reminders     *ReminderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	log := logger.NewNop()
	h := &harness{
		t:          t,
		ctx:        context.Background(),
		store:      store,
		dispatcher: &queuedDispatcher{},
		push:       &recordingPush{},
		email:      &mockEmail{},
		webhook:    &mockWebhook{},
		notifRepo:  memNotifications{s: store, failFor: map[uuid.UUID]error{}},
	}
	h.email.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.webhook.On("Post", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	users := memUsers{s: store}
	boards := memBoards{s: store}
	lists := memLists{s: store}
	tasks := memTasks{s: store}
	activity := memActivity{s: store}

	h.notifications = NewNotificationService(
		h.notifRepo,
		users,
		NotificationChannels{Push: h.push, Email: h.email, Webhook: h.webhook},
		h.dispatcher,
		NotificationSettings{PreviewLength: 50, BaseURL: "https://kanban.example.com", WebhookUsername: "Kanban"},
		log,
	)

	h.boards = NewBoardService(store, boards, lists, tasks, users, activity, log)
	h.lists = NewListService(store, boards, lists, tasks, activity, nil, log)
	h.tasks = NewTaskService(store, TaskRepos{
		Boards:      boards,
		Lists:       lists,
		Tasks:       tasks,
		Labels:      memLabels{s: store},
		Comments:    memComments{s: store},
		Checklist:   memChecklist{s: store},
		Attachments: memAttachments{s: store},
		Activity:    activity,
	}, h.notifications, nil, log)
	h.comments = NewCommentService(store, boards, lists, tasks, memComments{s: store}, activity, h.notifications, log)
	h.items = NewTaskItemService(store, boards, lists, tasks, memChecklist{s: store}, memAttachments{s: store}, log)
	h.labels = NewLabelService(boards, memLabels{s: store}, log)
	h.invitations = NewInvitationService(store, boards, users, memInvitations{s: store}, activity, h.notifications, log)
	h.reminders = NewReminderService(tasks, lists, boards, users, h.notifications, ReminderOptions{Location: time.UTC}, nil, log)
	return h
}

func (h *harness) user(name string) *entities.User {
	h.t.Helper()
	u := &entities.User{
		ID:       uuid.New(),
		Email:    name + "@example.com",
		Username: name,
		IsActive: true,
	}
	require.NoError(h.t, memUsers{s: h.store}.Create(h.ctx, u))
	return u
}

// board creates a board owned by owner with the given extra members.
func (h *harness) board(owner *entities.User, members ...*entities.User) *entities.Board {
	h.t.Helper()
	b, err := h.boards.CreateBoard(h.ctx, owner.ID, ports.CreateBoardRequest{Name: "Sprint"})
	require.NoError(h.t, err)
	for _, m := range members {
		require.NoError(h.t, memBoards{s: h.store}.AddMember(h.ctx, b.ID, m.ID))
	}
	board, err := memBoards{s: h.store}.GetByID(h.ctx, b.ID)
	require.NoError(h.t, err)
	board.Lists = b.Lists
	return board
}

func (h *harness) task(actor *entities.User, listID int64, title string) *entities.Task {
	h.t.Helper()
	task, err := h.tasks.CreateTask(h.ctx, actor.ID, listID, ports.CreateTaskRequest{Title: title})
	require.NoError(h.t, err)
	return task
}

// positions returns task id -> position for a list, archived tasks excluded.
func (h *harness) positions(listID int64) map[int64]int {
	h.t.Helper()
	tasks, err := memTasks{s: h.store}.ListByList(h.ctx, listID, false)
	require.NoError(h.t, err)
	out := make(map[int64]int, len(tasks))
	for _, t := range tasks {
		out[t.ID] = t.Position
	}
	return out
}

func (h *harness) notificationsFor(userID uuid.UUID) []*entities.Notification {
	h.t.Helper()
	list, err := h.notifRepo.ListForRecipient(h.ctx, userID, ports.NotificationFilter{})
	require.NoError(h.t, err)
	return list
}

func (h *harness) resetDeliveries() {
	h.dispatcher.flush(h.ctx)
	h.push.mu.Lock()
	h.push.sent = nil
	h.push.mu.Unlock()
	h.email.Calls = nil
	h.webhook.Calls = nil
	h.store.mu.Lock()
	h.store.notifications = map[int64]*entities.Notification{}
	h.store.mu.Unlock()
}
