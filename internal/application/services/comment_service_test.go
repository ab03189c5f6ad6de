package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/ports"
)

func TestCommentService_DeletePermissions(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	alice := h.user("alice")
	bob := h.user("bob")
	board := h.board(owner, alice, bob)
	task := h.task(owner, board.Lists[0].ID, "discuss")

	first, err := h.comments.AddComment(h.ctx, alice.ID, task.ID, ports.CreateCommentRequest{Body: "first"})
	require.NoError(t, err)
	second, err := h.comments.AddComment(h.ctx, alice.ID, task.ID, ports.CreateCommentRequest{Body: "second"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.comments.DeleteComment(h.ctx, bob.ID, first.ID), entities.ErrNotCommentAuthor)
	require.NoError(t, h.comments.DeleteComment(h.ctx, alice.ID, first.ID))
	require.NoError(t, h.comments.DeleteComment(h.ctx, owner.ID, second.ID))

	comments, err := h.comments.ListComments(h.ctx, bob.ID, task.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestCommentService_EmptyBody(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	board := h.board(owner)
	task := h.task(owner, board.Lists[0].ID, "quiet")

	_, err := h.comments.AddComment(h.ctx, owner.ID, task.ID, ports.CreateCommentRequest{Body: "\n\t "})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Field)
}

func TestTaskItemService_Checklist(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	stranger := h.user("stranger")
	board := h.board(owner)
	task := h.task(owner, board.Lists[0].ID, "steps")

	item, err := h.items.AddChecklistItem(h.ctx, owner.ID, task.ID, ports.CreateChecklistItemRequest{Content: "write"})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Position)

	done := true
	updated, err := h.items.UpdateChecklistItem(h.ctx, owner.ID, item.ID, ports.UpdateChecklistItemRequest{IsDone: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsDone)

	_, err = h.items.UpdateChecklistItem(h.ctx, stranger.ID, item.ID, ports.UpdateChecklistItemRequest{IsDone: &done})
	assert.ErrorIs(t, err, entities.ErrForbidden)

	require.NoError(t, h.items.DeleteChecklistItem(h.ctx, owner.ID, item.ID))
	_, err = h.items.UpdateChecklistItem(h.ctx, owner.ID, item.ID, ports.UpdateChecklistItemRequest{IsDone: &done})
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestTaskItemService_Attachments(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	member := h.user("member")
	board := h.board(owner, member)
	task := h.task(owner, board.Lists[0].ID, "files")

	_, err := h.items.AddAttachment(h.ctx, member.ID, task.ID, ports.CreateAttachmentRequest{Name: "x", URL: "javascript:alert(1)"})
	assert.True(t, entities.IsValidation(err))

	att, err := h.items.AddAttachment(h.ctx, owner.ID, task.ID, ports.CreateAttachmentRequest{Name: "plan", URL: "https://files.example.com/plan.pdf"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.items.DeleteAttachment(h.ctx, member.ID, att.ID), entities.ErrForbidden)
	require.NoError(t, h.items.DeleteAttachment(h.ctx, owner.ID, att.ID))
}
