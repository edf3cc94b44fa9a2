package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitnest/splitnest/internal/handlers/testutil"
)

type friendPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email"`
	Status      string  `json:"status"`
}

func listFriends(t *testing.T, env *testutil.Env, token string) []friendPayload {
	t.Helper()

	w := env.Request(http.MethodGet, "/api/friends", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Friends []friendPayload `json:"friends"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &data)
	return data.Friends
}

func TestFriendDirectCRUD(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("Alice", "+15550001", "secret123")

	add := env.Request(http.MethodPost, "/api/friends", map[string]string{
		"name":         "Bob",
		"phone_number": "+15550002",
	}, alice.Token)
	require.Equal(t, http.StatusCreated, add.Code, add.Body.String())

	var created friendPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, add).Data, &created)
	require.Equal(t, "accepted", created.Status)

	update := env.Request(http.MethodPut, "/api/friends/"+created.ID, map[string]string{"name": "Bobby"}, alice.Token)
	require.Equal(t, http.StatusOK, update.Code)

	friends := listFriends(t, env, alice.Token)
	require.Len(t, friends, 1)
	require.Equal(t, "Bobby", friends[0].Name)

	// Another user cannot see or delete Alice's entry.
	mallory := env.Register("Mallory", "+15550666", "secret123")
	require.Empty(t, listFriends(t, env, mallory.Token))
	del := env.Request(http.MethodDelete, "/api/friends/"+created.ID, nil, mallory.Token)
	require.Equal(t, http.StatusNotFound, del.Code)

	del = env.Request(http.MethodDelete, "/api/friends/"+created.ID, nil, alice.Token)
	require.Equal(t, http.StatusOK, del.Code)
	require.Empty(t, listFriends(t, env, alice.Token))
}

func TestInvitationFlowEndToEnd(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("Alice", "+15550001", "secret123")

	// Alice invites Bob before he has an account.
	invite := env.Request(http.MethodPost, "/api/friends/invite", map[string]string{
		"friend_name":  "Bob",
		"friend_phone": "+15550002",
	}, alice.Token)
	require.Equal(t, http.StatusCreated, invite.Code, invite.Body.String())

	var inviteData struct {
		InvitationID string `json:"invitation_id"`
		FriendLinkID string `json:"friend_link_id"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, invite).Data, &inviteData)
	require.NotEmpty(t, inviteData.InvitationID)
	require.NotEmpty(t, inviteData.FriendLinkID)

	// Alice's list shows the pending placeholder.
	aliceFriends := listFriends(t, env, alice.Token)
	require.Len(t, aliceFriends, 1)
	require.Equal(t, "pending", aliceFriends[0].Status)

	// Bob registers and finds the invitation waiting.
	bob := env.Register("Bob", "+15550002", "secret123")

	pending := env.Request(http.MethodGet, "/api/friends/pending", nil, bob.Token)
	require.Equal(t, http.StatusOK, pending.Code)

	var pendingData struct {
		Invitations []struct {
			ID          string `json:"id"`
			InviterName string `json:"inviterName"`
		} `json:"invitations"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, pending).Data, &pendingData)
	require.Len(t, pendingData.Invitations, 1)
	require.Equal(t, inviteData.InvitationID, pendingData.Invitations[0].ID)
	require.Equal(t, "Alice", pendingData.Invitations[0].InviterName)

	// Bob accepts; both sides now see an accepted mutual entry.
	accept := env.Request(http.MethodPost, "/api/friends/accept", map[string]string{
		"invitation_id": inviteData.InvitationID,
	}, bob.Token)
	require.Equal(t, http.StatusOK, accept.Code, accept.Body.String())

	aliceFriends = listFriends(t, env, alice.Token)
	require.Len(t, aliceFriends, 1)
	require.Equal(t, "accepted", aliceFriends[0].Status)
	require.Equal(t, "Bob", aliceFriends[0].Name)
	require.Equal(t, "+15550002", aliceFriends[0].PhoneNumber)

	bobFriends := listFriends(t, env, bob.Token)
	require.Len(t, bobFriends, 1)
	require.Equal(t, "accepted", bobFriends[0].Status)
	require.Equal(t, "Alice", bobFriends[0].Name)

	// Accepting a consumed invitation is terminal.
	again := env.Request(http.MethodPost, "/api/friends/accept", map[string]string{
		"invitation_id": inviteData.InvitationID,
	}, bob.Token)
	require.Equal(t, http.StatusNotFound, again.Code)

	// The pending listing is empty afterwards.
	pending = env.Request(http.MethodGet, "/api/friends/pending", nil, bob.Token)
	var remaining struct {
		Invitations []json.RawMessage `json:"invitations"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, pending).Data, &remaining)
	require.Empty(t, remaining.Invitations)
}

func TestUserSearchAndByPhone(t *testing.T) {
	env := testutil.NewEnv(t)
	john := env.Register("John Smith", "+15550001", "secret123")
	env.Register("Johnny Walker", "+15550002", "secret123")

	search := env.Request(http.MethodPost, "/api/users/search", map[string]string{"query": "john"}, john.Token)
	require.Equal(t, http.StatusOK, search.Code)

	var searchData struct {
		Users []testutil.UserPayload `json:"users"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, search).Data, &searchData)
	require.Len(t, searchData.Users, 1)
	require.Equal(t, "Johnny Walker", searchData.Users[0].Name)

	byPhone := env.Request(http.MethodPost, "/api/users/by-phone", map[string]string{"phone": "+15550002"}, john.Token)
	require.Equal(t, http.StatusOK, byPhone.Code)
	var found testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, byPhone).Data, &found)
	require.Equal(t, "Johnny Walker", found.Name)

	missing := env.Request(http.MethodPost, "/api/users/by-phone", map[string]string{"phone": "+15559999"}, john.Token)
	require.Equal(t, http.StatusNotFound, missing.Code)

	// The check endpoint stays public.
	check := env.Request(http.MethodPost, "/api/users/check", map[string]string{"phone": "+15550001"}, "")
	require.Equal(t, http.StatusOK, check.Code)
}
