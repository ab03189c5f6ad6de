package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/ports"
)

func TestTaskService_CreateTaskAppends(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	list := board.Lists[0].ID

	h.task(owner, list, "one")
	h.task(owner, list, "two")
	third := h.task(owner, list, "three")

	assert.Equal(t, 3, third.Position)
	assert.Equal(t, entities.PriorityMedium, third.Priority)
	assert.Equal(t, DefaultRemindDays, third.RemindDays)
}

func TestTaskService_CreateTaskValidation(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	stranger := h.user("stranger")
	board := h.board(owner)
	list := board.Lists[0].ID

	var verr *entities.ValidationError

	_, err := h.tasks.CreateTask(h.ctx, owner.ID, list, ports.CreateTaskRequest{Title: " "})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = h.tasks.CreateTask(h.ctx, owner.ID, list, ports.CreateTaskRequest{Title: "x", Assignees: []uuid.UUID{stranger.ID}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "assignees", verr.Field)

	_, err = h.tasks.CreateTask(h.ctx, owner.ID, list, ports.CreateTaskRequest{Title: "x", LabelIDs: []int64{999}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "label_ids", verr.Field)

	_, err = h.tasks.CreateTask(h.ctx, stranger.ID, list, ports.CreateTaskRequest{Title: "x"})
	assert.ErrorIs(t, err, entities.ErrForbidden)
}

func TestTaskService_ReorderTasks(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	list := board.Lists[0].ID
	a := h.task(owner, list, "a")
	b := h.task(owner, list, "b")
	c := h.task(owner, list, "c")

	t.Run("dense ranks", func(t *testing.T) {
		tasks, err := h.tasks.ReorderTasks(h.ctx, owner.ID, list, []int64{c.ID, a.ID, b.ID})
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []int64{c.ID, a.ID, b.ID}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
		assert.Equal(t, map[int64]int{c.ID: 1, a.ID: 2, b.ID: 3}, h.positions(list))
	})

	t.Run("same order writes nothing", func(t *testing.T) {
		before := h.store.positionWrites
		_, err := h.tasks.ReorderTasks(h.ctx, owner.ID, list, []int64{c.ID, a.ID, b.ID})
		require.NoError(t, err)
		assert.Equal(t, before, h.store.positionWrites)
	})

	t.Run("foreign id fails without writes", func(t *testing.T) {
		other := h.task(owner, board.Lists[1].ID, "elsewhere")
		before := h.store.positionWrites

		_, err := h.tasks.ReorderTasks(h.ctx, owner.ID, list, []int64{b.ID, other.ID, a.ID})
		assert.ErrorIs(t, err, entities.ErrTaskNotFound)
		assert.Equal(t, before, h.store.positionWrites)
		assert.Equal(t, map[int64]int{c.ID: 1, a.ID: 2, b.ID: 3}, h.positions(list))
	})

	t.Run("empty order", func(t *testing.T) {
		_, err := h.tasks.ReorderTasks(h.ctx, owner.ID, list, nil)
		assert.True(t, entities.IsValidation(err))
	})
}

func TestTaskService_MoveTaskAcrossLists(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	src, dst := board.Lists[0], board.Lists[1]

	first := h.task(owner, src.ID, "first")
	moving := h.task(owner, src.ID, "moving")
	last := h.task(owner, src.ID, "last")

	moved, err := h.tasks.MoveTask(h.ctx, owner.ID, ports.MoveTaskRequest{
		TaskID: moving.ID,
		ListID: dst.ID,
		Order:  ports.IDSequence{moving.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.ListID)
	assert.Equal(t, 1, moved.Position)
	assert.Equal(t, map[int64]int{first.ID: 1, last.ID: 2}, h.positions(src.ID))

	entries, err := h.boards.ListActivity(h.ctx, owner.ID, board.ID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionTaskMoved, entries[0].Action)
	assert.Contains(t, entries[0].Detail, `"TO DO"`)
	assert.Contains(t, entries[0].Detail, `"Doing"`)
}

func TestTaskService_MoveTaskOrderIgnoresStrayIDs(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	src, dst := board.Lists[0], board.Lists[1]

	x := h.task(owner, dst.ID, "x")
	y := h.task(owner, dst.ID, "y")
	moving := h.task(owner, src.ID, "moving")
	stray := h.task(owner, src.ID, "stray")

	_, err := h.tasks.MoveTask(h.ctx, owner.ID, ports.MoveTaskRequest{
		TaskID: moving.ID,
		ListID: dst.ID,
		Order:  ports.IDSequence{y.ID, stray.ID, moving.ID, 12345, x.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{y.ID: 1, moving.ID: 2, x.ID: 3}, h.positions(dst.ID))
	assert.Equal(t, map[int64]int{stray.ID: 1}, h.positions(src.ID))
}

func TestTaskService_MoveTaskWithinListWithoutOrder(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	list := board.Lists[0].ID
	a := h.task(owner, list, "a")
	h.task(owner, list, "b")

	before := h.store.positionWrites
	moved, err := h.tasks.MoveTask(h.ctx, owner.ID, ports.MoveTaskRequest{TaskID: a.ID, ListID: list})
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)
	assert.Equal(t, before, h.store.positionWrites)
}

func TestTaskService_MoveTaskAcrossBoardsRejected(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	one := h.board(owner)
	two := h.board(owner)
	task := h.task(owner, one.Lists[0].ID, "stay")

	_, err := h.tasks.MoveTask(h.ctx, owner.ID, ports.MoveTaskRequest{TaskID: task.ID, ListID: two.Lists[0].ID})
	assert.ErrorIs(t, err, entities.ErrCrossBoardMove)

	stored, err := memTasks{s: h.store}.GetByID(h.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, one.Lists[0].ID, stored.ListID)
}

func TestTaskService_UpdateTaskCompletion(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	task := h.task(owner, board.Lists[0].ID, "finish me")

	done := true
	updated, err := h.tasks.UpdateTask(h.ctx, owner.ID, task.ID, ports.UpdateTaskRequest{IsCompleted: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsCompleted)
	require.NotNil(t, updated.CompletedAt)

	done = false
	updated, err = h.tasks.UpdateTask(h.ctx, owner.ID, task.ID, ports.UpdateTaskRequest{IsCompleted: &done})
	require.NoError(t, err)
	assert.False(t, updated.IsCompleted)
	assert.Nil(t, updated.CompletedAt)
}

func TestTaskService_UpdateTaskRearmsReminder(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	task := h.task(owner, board.Lists[0].ID, "due")
	require.NoError(t, memTasks{s: h.store}.MarkReminded(h.ctx, task.ID))

	due := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	updated, err := h.tasks.UpdateTask(h.ctx, owner.ID, task.ID, ports.UpdateTaskRequest{DueDate: &due})
	require.NoError(t, err)
	assert.False(t, updated.IsReminded)

	title := "renamed"
	require.NoError(t, memTasks{s: h.store}.MarkReminded(h.ctx, task.ID))
	updated, err = h.tasks.UpdateTask(h.ctx, owner.ID, task.ID, ports.UpdateTaskRequest{Title: &title})
	require.NoError(t, err)
	assert.True(t, updated.IsReminded, "unrelated edits keep the flag")
}

func TestTaskService_ArchiveAndDeleteCompact(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	list := board.Lists[0].ID
	a := h.task(owner, list, "a")
	b := h.task(owner, list, "b")
	c := h.task(owner, list, "c")

	archived := true
	_, err := h.tasks.UpdateTask(h.ctx, owner.ID, a.ID, ports.UpdateTaskRequest{IsArchived: &archived})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{b.ID: 1, c.ID: 2}, h.positions(list))

	archived = false
	restored, err := h.tasks.UpdateTask(h.ctx, owner.ID, a.ID, ports.UpdateTaskRequest{IsArchived: &archived})
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Position)

	require.NoError(t, h.tasks.DeleteTask(h.ctx, owner.ID, b.ID))
	assert.Equal(t, map[int64]int{c.ID: 1, a.ID: 2}, h.positions(list))
}

func TestTaskService_DeleteRemovesNotificationsAndChildren(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	member := h.user("member")
	board := h.board(owner, member)

	task, err := h.tasks.CreateTask(h.ctx, owner.ID, board.Lists[0].ID, ports.CreateTaskRequest{
		Title:     "ship it",
		Assignees: []uuid.UUID{member.ID},
	})
	require.NoError(t, err)
	_, err = h.comments.AddComment(h.ctx, owner.ID, task.ID, ports.CreateCommentRequest{Body: "on it"})
	require.NoError(t, err)
	_, err = h.items.AddChecklistItem(h.ctx, owner.ID, task.ID, ports.CreateChecklistItemRequest{Content: "step"})
	require.NoError(t, err)
	require.NotEmpty(t, h.notificationsFor(member.ID))

	require.NoError(t, h.tasks.DeleteTask(h.ctx, owner.ID, task.ID))

	assert.Empty(t, h.notificationsFor(member.ID))
	comments, err := memComments{s: h.store}.ListByTask(h.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	items, err := memChecklist{s: h.store}.ListByTask(h.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTaskService_UpdateKeepsConcurrentReorder(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	list := board.Lists[0].ID
	a := h.task(owner, list, "a")
	b := h.task(owner, list, "b")

	h.store.beforeTx = func() {
		_, err := h.tasks.ReorderTasks(h.ctx, owner.ID, list, []int64{b.ID, a.ID})
		require.NoError(t, err)
	}

	title := "a, renamed"
	updated, err := h.tasks.UpdateTask(h.ctx, owner.ID, a.ID, ports.UpdateTaskRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Position)
	assert.Equal(t, map[int64]int{b.ID: 1, a.ID: 2}, h.positions(list))
}

func TestTaskService_UnarchiveAfterConcurrentMoveLandsInCurrentList(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	todo, doing := board.Lists[0].ID, board.Lists[1].ID
	a := h.task(owner, todo, "a")
	x := h.task(owner, doing, "x")

	archived := true
	_, err := h.tasks.UpdateTask(h.ctx, owner.ID, a.ID, ports.UpdateTaskRequest{IsArchived: &archived})
	require.NoError(t, err)

	h.store.beforeTx = func() {
		_, err := h.tasks.MoveTask(h.ctx, owner.ID, ports.MoveTaskRequest{TaskID: a.ID, ListID: doing})
		require.NoError(t, err)
	}

	archived = false
	restored, err := h.tasks.UpdateTask(h.ctx, owner.ID, a.ID, ports.UpdateTaskRequest{IsArchived: &archived})
	require.NoError(t, err)
	assert.Equal(t, doing, restored.ListID)
	assert.Equal(t, map[int64]int{x.ID: 1, a.ID: 2}, h.positions(doing))
	assert.Empty(t, h.positions(todo))
}

func TestTaskService_GetTaskDetail(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	task := h.task(owner, board.Lists[0].ID, "detailed")

	_, err := h.comments.AddComment(h.ctx, owner.ID, task.ID, ports.CreateCommentRequest{Body: "looks good"})
	require.NoError(t, err)
	_, err = h.items.AddChecklistItem(h.ctx, owner.ID, task.ID, ports.CreateChecklistItemRequest{Content: "step 1"})
	require.NoError(t, err)
	second, err := h.items.AddChecklistItem(h.ctx, owner.ID, task.ID, ports.CreateChecklistItemRequest{Content: "step 2"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position)
	_, err = h.items.AddAttachment(h.ctx, owner.ID, task.ID, ports.CreateAttachmentRequest{Name: "design.pdf", URL: "https://files.example.com/design.pdf"})
	require.NoError(t, err)

	detail, err := h.tasks.GetTask(h.ctx, owner.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, detail.ID)
	assert.Len(t, detail.Comments, 1)
	assert.Len(t, detail.Checklist, 2)
	assert.Len(t, detail.Attachments, 1)
}

func TestTaskService_LabelsMustBelongToBoard(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)

	label, err := h.labels.CreateLabel(h.ctx, owner.ID, board.ID, ports.CreateLabelRequest{Name: "bug"})
	require.NoError(t, err)
	assert.Equal(t, defaultLabelColor, label.Color)

	task, err := h.tasks.CreateTask(h.ctx, owner.ID, board.Lists[0].ID, ports.CreateTaskRequest{Title: "x", LabelIDs: []int64{label.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int64{label.ID}, task.LabelIDs)
}
