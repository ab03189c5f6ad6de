package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/ports"
)

func TestBoardService_CreateBoardSeedsDefaultLists(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")

	board, err := h.boards.CreateBoard(h.ctx, owner.ID, ports.CreateBoardRequest{Name: "  Launch  "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", board.Name)

	lists, err := memLists{s: h.store}.ListByBoard(h.ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, lists, 3)

	var titles []string
	var positions []int
	for _, l := range lists {
		titles = append(titles, l.Title)
		positions = append(positions, l.Position)
	}
	assert.Equal(t, []string{"TO DO", "Doing", "Done"}, titles)
	assert.Equal(t, []int{1, 2, 3}, positions)
}

func TestBoardService_CreateBoardValidation(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")

	_, err := h.boards.CreateBoard(h.ctx, owner.ID, ports.CreateBoardRequest{Name: "   "})
	require.Error(t, err)
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	bad := "ftp://example.com/hook"
	_, err = h.boards.CreateBoard(h.ctx, owner.ID, ports.CreateBoardRequest{Name: "B", WebhookURL: &bad})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "webhook_url", verr.Field)
}

func TestBoardService_GetBoardHidesArchivedTasks(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	todo := board.Lists[0].ID

	h.task(owner, todo, "visible")
	hidden := h.task(owner, todo, "hidden")
	archived := true
	_, err := h.tasks.UpdateTask(h.ctx, owner.ID, hidden.ID, ports.UpdateTaskRequest{IsArchived: &archived})
	require.NoError(t, err)

	got, err := h.boards.GetBoard(h.ctx, owner.ID, board.ID)
	require.NoError(t, err)
	require.Len(t, got.Lists, 3)
	require.Len(t, got.Lists[0].Tasks, 1)
	assert.Equal(t, "visible", got.Lists[0].Tasks[0].Title)
}

func TestBoardService_AccessRules(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	member := h.user("member")
	stranger := h.user("stranger")
	board := h.board(owner, member)

	_, err := h.boards.GetBoard(h.ctx, stranger.ID, board.ID)
	assert.ErrorIs(t, err, entities.ErrForbidden)

	name := "Renamed"
	_, err = h.boards.UpdateBoard(h.ctx, member.ID, board.ID, ports.UpdateBoardRequest{Name: &name})
	assert.ErrorIs(t, err, entities.ErrNotBoardOwner)

	assert.ErrorIs(t, h.boards.DeleteBoard(h.ctx, member.ID, board.ID), entities.ErrNotBoardOwner)
}

func TestBoardService_RemoveMember(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	alice := h.user("alice")
	bob := h.user("bob")
	board := h.board(owner, alice, bob)

	t.Run("owner cannot be removed", func(t *testing.T) {
		err := h.boards.RemoveMember(h.ctx, owner.ID, board.ID, owner.ID)
		assert.ErrorIs(t, err, entities.ErrConflict)
	})

	t.Run("member cannot remove another member", func(t *testing.T) {
		err := h.boards.RemoveMember(h.ctx, alice.ID, board.ID, bob.ID)
		assert.ErrorIs(t, err, entities.ErrNotBoardOwner)
	})

	t.Run("member can leave", func(t *testing.T) {
		require.NoError(t, h.boards.RemoveMember(h.ctx, alice.ID, board.ID, alice.ID))
		_, err := h.boards.GetBoard(h.ctx, alice.ID, board.ID)
		assert.ErrorIs(t, err, entities.ErrNotBoardMember)
	})

	t.Run("owner removes member", func(t *testing.T) {
		require.NoError(t, h.boards.RemoveMember(h.ctx, owner.ID, board.ID, bob.ID))
		err := h.boards.RemoveMember(h.ctx, owner.ID, board.ID, bob.ID)
		assert.ErrorIs(t, err, entities.ErrMemberNotFound)
	})

	entries, err := h.boards.ListActivity(h.ctx, owner.ID, board.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, ActionMemberRemoved, entries[0].Action)
	assert.Equal(t, ActionMemberLeft, entries[1].Action)
}

func TestBoardService_ListMembersOwnerFirst(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	member := h.user("member")
	board := h.board(owner, member)

	users, err := h.boards.ListMembers(h.ctx, member.ID, board.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, owner.ID, users[0].ID)
	assert.Equal(t, member.ID, users[1].ID)
}

func TestBoardService_StarBoard(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)

	require.NoError(t, h.boards.StarBoard(h.ctx, owner.ID, board.ID, true))
	got, err := h.boards.GetBoard(h.ctx, owner.ID, board.ID)
	require.NoError(t, err)
	assert.True(t, got.IsStarred)

	boards, err := h.boards.ListBoards(h.ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.True(t, boards[0].IsStarred)
}
