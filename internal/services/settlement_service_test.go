package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitnest/splitnest/internal/database/testutil"
	"github.com/splitnest/splitnest/internal/models"
)

func TestSettlementAcceptMaterializesMutualFriendship(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	friends, err := NewFriendService(db)
	require.NoError(t, err)
	settlements, err := NewSettlementService(db)
	require.NoError(t, err)

	ctx := context.Background()
	inviter := createTestUser(t, db, "Alice", "+15550001")

	invite, err := friends.CreateInvitation(ctx, inviter, InviteInput{FriendName: "Bob", FriendPhone: "+15550002"})
	require.NoError(t, err)

	// Bob registers after the invitation was sent.
	acceptor := createTestUser(t, db, "Bob", "+15550002")

	result, err := settlements.Accept(ctx, invite.Invitation.ID, acceptor)
	require.NoError(t, err)
	require.Equal(t, inviter.ID, result.InviterID)
	require.Equal(t, models.InvitationStatusAccepted, result.Invitation.Status)

	// Acceptor's side: a new accepted link snapshotting the inviter.
	acceptorLinks, err := friends.ListFriends(ctx, acceptor.ID)
	require.NoError(t, err)
	require.Len(t, acceptorLinks, 1)
	require.Equal(t, "Alice", acceptorLinks[0].Name)
	require.Equal(t, "+15550001", acceptorLinks[0].PhoneNumber)
	require.Equal(t, models.FriendStatusAccepted, acceptorLinks[0].DisplayStatus())

	// Inviter's side: the placeholder was promoted in place, not duplicated.
	inviterLinks, err := friends.ListFriends(ctx, inviter.ID)
	require.NoError(t, err)
	require.Len(t, inviterLinks, 1)
	require.Equal(t, invite.FriendLink.ID, inviterLinks[0].ID)
	require.Equal(t, "Bob", inviterLinks[0].Name)
	require.Equal(t, models.FriendStatusAccepted, inviterLinks[0].DisplayStatus())

	// A second accept of the consumed invitation is terminal.
	_, err = settlements.Accept(ctx, invite.Invitation.ID, acceptor)
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestSettlementAcceptUnknownInvitation(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	settlements, err := NewSettlementService(db)
	require.NoError(t, err)

	acceptor := createTestUser(t, db, "Bob", "+15550002")

	_, err = settlements.Accept(context.Background(), "no-such-invitation", acceptor)
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestSettlementConcurrentAcceptExactlyOneWins(t *testing.T) {
	db := testutil.MustOpenSharedTestDB(t)
	friends, err := NewFriendService(db)
	require.NoError(t, err)
	settlements, err := NewSettlementService(db)
	require.NoError(t, err)

	ctx := context.Background()
	inviter := createTestUser(t, db, "Alice", "+15550001")
	acceptor := createTestUser(t, db, "Bob", "+15550002")

	invite, err := friends.CreateInvitation(ctx, inviter, InviteInput{FriendName: "Bob", FriendPhone: "+15550002"})
	require.NoError(t, err)

	const racers = 2
	var (
		wg      sync.WaitGroup
		results = make([]error, racers)
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			<-start
			_, results[slot] = settlements.Accept(ctx, invite.Invitation.ID, acceptor)
		}(i)
	}
	close(start)
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvitationNotFound):
			losses++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, losses)

	// Exactly one accepted link per side; the race produced no duplicates.
	var count int64
	require.NoError(t, db.Model(&models.FriendLink{}).Where("user_id = ?", acceptor.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&models.FriendLink{}).Where("user_id = ?", inviter.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
