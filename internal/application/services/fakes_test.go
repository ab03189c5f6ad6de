package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/domain/ordering"
	"github.com/taskmaster/kanban/internal/ports"
)

// memStore is an in-memory stand-in for the Postgres repositories. Rows are
// copied in and out so services cannot mutate stored state by accident.
type memStore struct {
	mu sync.Mutex

	nextID        int64
	users         map[uuid.UUID]*entities.User
	boards        map[int64]*entities.Board
	stars         map[int64]map[uuid.UUID]bool
	lists         map[int64]*entities.List
	tasks         map[int64]*entities.Task
	comments      map[int64]*entities.Comment
	checklist     map[int64]*entities.ChecklistItem
	attachments   map[int64]*entities.Attachment
	labels        map[int64]*entities.Label
	notifications map[int64]*entities.Notification
	invitations   map[int64]*entities.BoardInvitation
	activity      []*entities.ActivityLog

	positionWrites int
	beforeTx       func()

	// stalePendingReads makes the next FindPending calls miss, as if another
	// request had not committed yet.
	stalePendingReads int
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]*entities.User{},
		boards:        map[int64]*entities.Board{},
		stars:         map[int64]map[uuid.UUID]bool{},
		lists:         map[int64]*entities.List{},
		tasks:         map[int64]*entities.Task{},
		comments:      map[int64]*entities.Comment{},
		checklist:     map[int64]*entities.ChecklistItem{},
		attachments:   map[int64]*entities.Attachment{},
		labels:        map[int64]*entities.Label{},
		notifications: map[int64]*entities.Notification{},
		invitations:   map[int64]*entities.BoardInvitation{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

// WithinTransaction runs fn directly; the fakes have no rollback.
// A pending beforeTx hook runs first, once, to stand in for a concurrent
// writer that commits between a service's reads and its transaction.
func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if hook := s.beforeTx; hook != nil {
		s.beforeTx = nil
		hook()
	}
	return fn(ctx)
}

// dropTask and dropList mirror the repository delete rules. Callers hold mu.
func (s *memStore) dropTask(id int64) {
	delete(s.tasks, id)
	for cid, c := range s.comments {
		if c.TaskID == id {
			delete(s.comments, cid)
		}
	}
	for iid, item := range s.checklist {
		if item.TaskID == id {
			delete(s.checklist, iid)
		}
	}
	for aid, a := range s.attachments {
		if a.TaskID == id {
			delete(s.attachments, aid)
		}
	}
	for nid, n := range s.notifications {
		if n.TaskID != nil && *n.TaskID == id {
			delete(s.notifications, nid)
		}
	}
}

func (s *memStore) dropList(id int64) {
	delete(s.lists, id)
	for tid, t := range s.tasks {
		if t.ListID == id {
			s.dropTask(tid)
		}
	}
}

func cloneTask(t *entities.Task) *entities.Task {
	c := *t
	c.Assignees = append([]uuid.UUID(nil), t.Assignees...)
	c.LabelIDs = append([]int64(nil), t.LabelIDs...)
	return &c
}

func cloneBoard(b *entities.Board) *entities.Board {
	c := *b
	c.Members = append([]uuid.UUID{}, b.Members...)
	c.Lists = nil
	return &c
}

// users

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r memUsers) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// boards

type memBoards struct{ s *memStore }

func (r memBoards) Create(ctx context.Context, board *entities.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	board.ID = r.s.id()
	r.s.boards[board.ID] = cloneBoard(board)
	return nil
}

func (r memBoards) GetByID(ctx context.Context, id int64) (*entities.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.boards[id]
	if !ok {
		return nil, entities.ErrBoardNotFound
	}
	return cloneBoard(b), nil
}

func (r memBoards) Update(ctx context.Context, board *entities.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.boards[board.ID]; !ok {
		return entities.ErrBoardNotFound
	}
	r.s.boards[board.ID] = cloneBoard(board)
	return nil
}

func (r memBoards) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.boards, id)
	for lid, l := range r.s.lists {
		if l.BoardID == id {
			r.s.dropList(lid)
		}
	}
	for lid, l := range r.s.labels {
		if l.BoardID == id {
			delete(r.s.labels, lid)
		}
	}
	for nid, n := range r.s.notifications {
		if n.BoardID != nil && *n.BoardID == id {
			delete(r.s.notifications, nid)
		}
	}
	for iid, inv := range r.s.invitations {
		if inv.BoardID == id {
			delete(r.s.invitations, iid)
		}
	}
	delete(r.s.stars, id)
	kept := r.s.activity[:0]
	for _, a := range r.s.activity {
		if a.BoardID != id {
			kept = append(kept, a)
		}
	}
	r.s.activity = kept
	return nil
}

func (r memBoards) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.Board, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Board
	for _, b := range r.s.boards {
		if b.HasAccess(userID) {
			c := cloneBoard(b)
			c.IsStarred = r.s.stars[b.ID][userID]
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memBoards) AddMember(ctx context.Context, boardID int64, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b := r.s.boards[boardID]
	b.Members = append(b.Members, userID)
	return nil
}

func (r memBoards) RemoveMember(ctx context.Context, boardID int64, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b := r.s.boards[boardID]
	b.Members = entities.Without(b.Members, userID)
	return nil
}

func (r memBoards) SetStarred(ctx context.Context, boardID int64, userID uuid.UUID, starred bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.stars[boardID] == nil {
		r.s.stars[boardID] = map[uuid.UUID]bool{}
	}
	r.s.stars[boardID][userID] = starred
	return nil
}

func (r memBoards) IsStarred(ctx context.Context, boardID int64, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.stars[boardID][userID], nil
}

// lists

type memLists struct{ s *memStore }

func (r memLists) Create(ctx context.Context, list *entities.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list.ID = r.s.id()
	c := *list
	r.s.lists[list.ID] = &c
	return nil
}

func (r memLists) GetByID(ctx context.Context, id int64) (*entities.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, entities.ErrListNotFound
	}
	c := *l
	return &c, nil
}

func (r memLists) Update(ctx context.Context, list *entities.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *list
	c.Tasks = nil
	r.s.lists[list.ID] = &c
	return nil
}

func (r memLists) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.dropList(id)
	return nil
}

func (r memLists) ListByBoard(ctx context.Context, boardID int64) ([]*entities.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.List
	for _, l := range r.s.lists {
		if l.BoardID == boardID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memLists) Slots(ctx context.Context, boardID int64) ([]ordering.Slot, error) {
	lists, _ := r.ListByBoard(ctx, boardID)
	slots := make([]ordering.Slot, 0, len(lists))
	for _, l := range lists {
		slots = append(slots, ordering.Slot{ID: l.ID, Position: l.Position})
	}
	return slots, nil
}

func (r memLists) MaxPosition(ctx context.Context, boardID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	last := 0
	for _, l := range r.s.lists {
		if l.BoardID == boardID && l.Position > last {
			last = l.Position
		}
	}
	return last, nil
}

func (r memLists) UpdatePositions(ctx context.Context, changes []ordering.Change) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range changes {
		r.s.lists[c.ID].Position = c.Position
		r.s.positionWrites++
	}
	return nil
}

// tasks

type memTasks struct{ s *memStore }

func (r memTasks) Create(ctx context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task.ID = r.s.id()
	r.s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r memTasks) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r memTasks) Update(ctx context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tasks[task.ID]
	if !ok {
		return entities.ErrTaskNotFound
	}
	c := cloneTask(task)
	c.Assignees = stored.Assignees
	c.LabelIDs = stored.LabelIDs
	c.ListID = stored.ListID
	c.Position = stored.Position
	r.s.tasks[task.ID] = c
	task.ListID = stored.ListID
	task.Position = stored.Position
	return nil
}

func (r memTasks) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.dropTask(id)
	return nil
}

func (r memTasks) ListByList(ctx context.Context, listID int64, includeArchived bool) ([]*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Task
	for _, t := range r.s.tasks {
		if t.ListID == listID && (includeArchived || !t.IsArchived) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memTasks) Slots(ctx context.Context, listID int64) ([]ordering.Slot, error) {
	tasks, _ := r.ListByList(ctx, listID, false)
	slots := make([]ordering.Slot, 0, len(tasks))
	for _, t := range tasks {
		slots = append(slots, ordering.Slot{ID: t.ID, Position: t.Position})
	}
	return slots, nil
}

func (r memTasks) MaxPosition(ctx context.Context, listID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	last := 0
	for _, t := range r.s.tasks {
		if t.ListID == listID && !t.IsArchived && t.Position > last {
			last = t.Position
		}
	}
	return last, nil
}

func (r memTasks) UpdatePositions(ctx context.Context, changes []ordering.Change) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range changes {
		r.s.tasks[c.ID].Position = c.Position
		r.s.positionWrites++
	}
	return nil
}

func (r memTasks) MoveToList(ctx context.Context, taskID, listID int64, position int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.tasks[taskID]
	t.ListID = listID
	t.Position = position
	return nil
}

func (r memTasks) ReplaceAssignees(ctx context.Context, taskID int64, userIDs []uuid.UUID) (entities.SetDiff[uuid.UUID], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.tasks[taskID]
	diff := entities.Diff(t.Assignees, userIDs)
	t.Assignees = append([]uuid.UUID(nil), userIDs...)
	return diff, nil
}

func (r memTasks) ReplaceLabels(ctx context.Context, taskID int64, labelIDs []int64) (entities.SetDiff[int64], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t := r.s.tasks[taskID]
	diff := entities.Diff(t.LabelIDs, labelIDs)
	t.LabelIDs = append([]int64(nil), labelIDs...)
	return diff, nil
}

func (r memTasks) ListReminderCandidates(ctx context.Context) ([]*entities.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Task
	for _, t := range r.s.tasks {
		if !t.IsCompleted && !t.IsReminded && t.DueDate != nil && t.RemindDays > 0 {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTasks) MarkReminded(ctx context.Context, taskID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[taskID].IsReminded = true
	return nil
}

// comments, checklist, attachments, labels

type memComments struct{ s *memStore }

func (r memComments) Create(ctx context.Context, c *entities.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	cp := *c
	r.s.comments[c.ID] = &cp
	return nil
}

func (r memComments) GetByID(ctx context.Context, id int64) (*entities.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, entities.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memComments) ListByTask(ctx context.Context, taskID int64) ([]*entities.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Comment
	for _, c := range r.s.comments {
		if c.TaskID == taskID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memComments) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.comments, id)
	return nil
}

type memChecklist struct{ s *memStore }

func (r memChecklist) Create(ctx context.Context, item *entities.ChecklistItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item.ID = r.s.id()
	cp := *item
	r.s.checklist[item.ID] = &cp
	return nil
}

func (r memChecklist) GetByID(ctx context.Context, id int64) (*entities.ChecklistItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.checklist[id]
	if !ok {
		return nil, entities.ErrChecklistNotFound
	}
	cp := *item
	return &cp, nil
}

func (r memChecklist) Update(ctx context.Context, item *entities.ChecklistItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *item
	r.s.checklist[item.ID] = &cp
	return nil
}

func (r memChecklist) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.checklist, id)
	return nil
}

func (r memChecklist) ListByTask(ctx context.Context, taskID int64) ([]*entities.ChecklistItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.ChecklistItem
	for _, item := range r.s.checklist {
		if item.TaskID == taskID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r memChecklist) MaxPosition(ctx context.Context, taskID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	last := 0
	for _, item := range r.s.checklist {
		if item.TaskID == taskID && item.Position > last {
			last = item.Position
		}
	}
	return last, nil
}

type memAttachments struct{ s *memStore }

func (r memAttachments) Create(ctx context.Context, a *entities.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	cp := *a
	r.s.attachments[a.ID] = &cp
	return nil
}

func (r memAttachments) GetByID(ctx context.Context, id int64) (*entities.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attachments[id]
	if !ok {
		return nil, entities.ErrAttachmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r memAttachments) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.attachments, id)
	return nil
}

func (r memAttachments) ListByTask(ctx context.Context, taskID int64) ([]*entities.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Attachment
	for _, a := range r.s.attachments {
		if a.TaskID == taskID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memLabels struct{ s *memStore }

func (r memLabels) Create(ctx context.Context, l *entities.Label) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.id()
	cp := *l
	r.s.labels[l.ID] = &cp
	return nil
}

func (r memLabels) GetByID(ctx context.Context, id int64) (*entities.Label, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.labels[id]
	if !ok {
		return nil, entities.ErrLabelNotFound
	}
	cp := *l
	return &cp, nil
}

func (r memLabels) ListByBoard(ctx context.Context, boardID int64) ([]*entities.Label, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Label
	for _, l := range r.s.labels {
		if l.BoardID == boardID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memLabels) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.labels, id)
	return nil
}

// notifications, invitations, activity

type memNotifications struct {
	s       *memStore
	failFor map[uuid.UUID]error
}

func (r memNotifications) Create(ctx context.Context, n *entities.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.failFor[n.RecipientID]; err != nil {
		return err
	}
	n.ID = r.s.id()
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r memNotifications) GetByID(ctx context.Context, id int64) (*entities.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, entities.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (r memNotifications) ListForRecipient(ctx context.Context, userID uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID == userID && (!filter.UnreadOnly || !n.IsRead) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r memNotifications) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, x := range r.s.notifications {
		if x.RecipientID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r memNotifications) MarkRead(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[id].IsRead = true
	return nil
}

func (r memNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, x := range r.s.notifications {
		if x.RecipientID == userID && !x.IsRead {
			x.IsRead = true
			n++
		}
	}
	return n, nil
}

type memInvitations struct{ s *memStore }

// Create enforces one pending invitation per board and recipient, like the
// partial unique index.
func (r memInvitations) Create(ctx context.Context, inv *entities.BoardInvitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.invitations {
		if inv.IsPending() && other.IsPending() && other.BoardID == inv.BoardID && other.RecipientID == inv.RecipientID {
			return entities.ErrInvitationPending
		}
	}
	inv.ID = r.s.id()
	cp := *inv
	r.s.invitations[inv.ID] = &cp
	return nil
}

func (r memInvitations) GetByID(ctx context.Context, id int64) (*entities.BoardInvitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, entities.ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

func (r memInvitations) FindPending(ctx context.Context, boardID int64, recipientID uuid.UUID) (*entities.BoardInvitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.stalePendingReads > 0 {
		r.s.stalePendingReads--
		return nil, entities.ErrInvitationNotFound
	}
	for _, inv := range r.s.invitations {
		if inv.BoardID == boardID && inv.RecipientID == recipientID && inv.IsPending() {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, entities.ErrInvitationNotFound
}

func (r memInvitations) UpdateStatus(ctx context.Context, inv *entities.BoardInvitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *inv
	r.s.invitations[inv.ID] = &cp
	return nil
}

func (r memInvitations) ListPendingForRecipient(ctx context.Context, userID uuid.UUID) ([]*entities.BoardInvitation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.BoardInvitation
	for _, inv := range r.s.invitations {
		if inv.RecipientID == userID && inv.IsPending() {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memActivity struct{ s *memStore }

func (r memActivity) Create(ctx context.Context, entry *entities.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = r.s.id()
	cp := *entry
	r.s.activity = append(r.s.activity, &cp)
	return nil
}

func (r memActivity) ListByBoard(ctx context.Context, boardID int64, limit int) ([]*entities.ActivityLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.ActivityLog
	for i := len(r.s.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if r.s.activity[i].BoardID == boardID {
			cp := *r.s.activity[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// queuedDispatcher holds jobs until flush, so tests can assert on what was
// scheduled before anything is delivered.
type queuedDispatcher struct {
	mu   sync.Mutex
	jobs []ports.DeliveryJob
	err  error
}

func (d *queuedDispatcher) Dispatch(job ports.DeliveryJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

// flush runs every queued job and returns the errors they reported.
func (d *queuedDispatcher) flush(ctx context.Context) []error {
	d.mu.Lock()
	jobs := d.jobs
	d.jobs = nil
	d.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		if err := job.Run(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (d *queuedDispatcher) count(channel string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, job := range d.jobs {
		if job.Channel == channel {
			n++
		}
	}
	return n
}

type pushed struct {
	UserID uuid.UUID
	Msg    ports.PushMessage
}

type recordingPush struct {
	mu   sync.Mutex
	sent []pushed
	err  error
}

func (p *recordingPush) Push(ctx context.Context, userID uuid.UUID, msg ports.PushMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, pushed{UserID: userID, Msg: msg})
	return nil
}

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) Send(ctx context.Context, msg ports.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type mockWebhook struct {
	mock.Mock
}

func (m *mockWebhook) Post(ctx context.Context, url string, msg ports.WebhookMessage) error {
	args := m.Called(ctx, url, msg)
	return args.Error(0)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockLocker) Unlock(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
