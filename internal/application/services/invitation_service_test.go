package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/ports"
)

func TestInvitations_InviteAndDedupe(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	guest := h.user("guest")
	board := h.board(owner)

	inv, created, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "guest"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entities.InvitationPending, inv.Status)

	notes := h.notificationsFor(guest.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, `owner invited you to join board "Sprint"`, notes[0].Message)

	again, created, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Email: "GUEST@example.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, inv.ID, again.ID)
	assert.Len(t, h.notificationsFor(guest.ID), 1, "duplicate invite sends nothing")
}

func TestInvitations_ConcurrentInviteReturnsWinner(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	guest := h.user("guest")
	board := h.board(owner)

	first, created, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "guest"})
	require.NoError(t, err)
	require.True(t, created)

	h.store.stalePendingReads = 1
	second, created, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "guest"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, h.notificationsFor(guest.ID), 1)
}

func TestInvitations_InviteRules(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	member := h.user("member")
	h.user("guest")
	board := h.board(owner, member)

	_, _, err := h.invitations.Invite(h.ctx, member.ID, board.ID, ports.InviteRequest{Username: "guest"})
	assert.ErrorIs(t, err, entities.ErrNotBoardOwner)

	_, _, err = h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "owner"})
	assert.ErrorIs(t, err, entities.ErrAlreadyMember)

	_, _, err = h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "member"})
	assert.ErrorIs(t, err, entities.ErrAlreadyMember)

	_, _, err = h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "ghost"})
	assert.ErrorIs(t, err, entities.ErrUserNotFound)

	_, _, err = h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{})
	assert.True(t, entities.IsValidation(err))
}

func TestInvitations_Accept(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	guest := h.user("guest")
	other := h.user("other")
	board := h.board(owner)

	inv, _, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "guest"})
	require.NoError(t, err)

	_, err = h.invitations.Accept(h.ctx, other.ID, inv.ID)
	assert.ErrorIs(t, err, entities.ErrNotRecipient)

	accepted, err := h.invitations.Accept(h.ctx, guest.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvitationAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	_, err = h.boards.GetBoard(h.ctx, guest.ID, board.ID)
	assert.NoError(t, err, "guest is now a member")

	notes := h.notificationsFor(owner.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, `guest accepted your invitation to "Sprint"`, notes[0].Message)

	_, err = h.invitations.Decline(h.ctx, guest.ID, inv.ID)
	assert.ErrorIs(t, err, entities.ErrInvitationClosed)

	// once the guest leaves, a new invitation can be sent
	require.NoError(t, h.boards.RemoveMember(h.ctx, guest.ID, board.ID, guest.ID))
	_, created, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "guest"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestInvitations_Decline(t *testing.T) {
	h := newHarness(t)
	owner := h.user("owner")
	guest := h.user("guest")
	board := h.board(owner)

	inv, _, err := h.invitations.Invite(h.ctx, owner.ID, board.ID, ports.InviteRequest{Username: "guest"})
	require.NoError(t, err)

	pending, err := h.invitations.ListPending(h.ctx, guest.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	declined, err := h.invitations.Decline(h.ctx, guest.ID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvitationDeclined, declined.Status)

	_, err = h.invitations.Accept(h.ctx, guest.ID, inv.ID)
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = h.boards.GetBoard(h.ctx, guest.ID, board.ID)
	assert.ErrorIs(t, err, entities.ErrNotBoardMember)

	pending, err = h.invitations.ListPending(h.ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
