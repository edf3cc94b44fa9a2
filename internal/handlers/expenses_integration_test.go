package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitnest/splitnest/internal/handlers/testutil"
)

func TestPersonalExpenseCRUDOverHTTP(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("Alice", "+15550001", "secret123")

	create := env.Request(http.MethodPost, "/api/personal-expenses", map[string]any{
		"title":    "Groceries",
		"amount":   42.5,
		"date":     "2026-08-10",
		"category": "Food",
	}, alice.Token)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	var created struct {
		ID       string `json:"id"`
		Category int    `json:"category"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, create).Data, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, 1, created.Category)

	update := env.Request(http.MethodPut, "/api/personal-expenses/"+created.ID, map[string]any{
		"title": "Weekly groceries",
	}, alice.Token)
	require.Equal(t, http.StatusOK, update.Code)

	list := env.Request(http.MethodGet, "/api/personal-expenses", nil, alice.Token)
	require.Equal(t, http.StatusOK, list.Code)
	var listed struct {
		Expenses []struct {
			Title string `json:"title"`
		} `json:"expenses"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &listed)
	require.Len(t, listed.Expenses, 1)
	require.Equal(t, "Weekly groceries", listed.Expenses[0].Title)

	del := env.Request(http.MethodDelete, "/api/personal-expenses/"+created.ID, nil, alice.Token)
	require.Equal(t, http.StatusOK, del.Code)

	del = env.Request(http.MethodDelete, "/api/personal-expenses/"+created.ID, nil, alice.Token)
	require.Equal(t, http.StatusNotFound, del.Code)
}

func TestGeneralExpenseCreateRoutesPersonalVersusShared(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Register("Alice", "+15550001", "secret123")
	bob := env.Register("Bob", "+15550002", "secret123")

	// Alice links Bob as a friend so a share can resolve to him.
	add := env.Request(http.MethodPost, "/api/friends", map[string]string{
		"name":         "Bob",
		"phone_number": "+15550002",
	}, alice.Token)
	require.Equal(t, http.StatusCreated, add.Code)
	var link struct {
		ID string `json:"id"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, add).Data, &link)

	// Without shares the general endpoint records a personal expense.
	personal := env.Request(http.MethodPost, "/api/expenses", map[string]any{
		"title":  "Coffee",
		"amount": 5,
	}, alice.Token)
	require.Equal(t, http.StatusCreated, personal.Code, personal.Body.String())
	var personalData struct {
		Kind string `json:"kind"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, personal).Data, &personalData)
	require.Equal(t, "personal", personalData.Kind)

	// With shares it records a shared expense.
	shared := env.Request(http.MethodPost, "/api/expenses", map[string]any{
		"title":  "Dinner",
		"amount": 2000,
		"shares": []map[string]any{{"friend_link_id": link.ID, "amount": 600}},
	}, alice.Token)
	require.Equal(t, http.StatusCreated, shared.Code, shared.Body.String())
	var sharedData struct {
		Kind string `json:"kind"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, shared).Data, &sharedData)
	require.Equal(t, "shared", sharedData.Kind)

	// Bob sees the shared expense with the computed split.
	bobShared := env.Request(http.MethodGet, "/api/expenses/shared", nil, bob.Token)
	require.Equal(t, http.StatusOK, bobShared.Code)
	var bobData struct {
		Expenses []struct {
			Title       string             `json:"title"`
			CreatorName string             `json:"creator_name"`
			Splits      map[string]float64 `json:"splits"`
		} `json:"expenses"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, bobShared).Data, &bobData)
	require.Len(t, bobData.Expenses, 1)
	require.Equal(t, "Dinner", bobData.Expenses[0].Title)
	require.Equal(t, "Alice", bobData.Expenses[0].CreatorName)
	require.Equal(t, float64(1400), bobData.Expenses[0].Splits[alice.User.ID])
	require.Equal(t, float64(600), bobData.Expenses[0].Splits[bob.User.ID])

	// The merged feed contains both of Alice's entries.
	merged := env.Request(http.MethodGet, "/api/expenses", nil, alice.Token)
	require.Equal(t, http.StatusOK, merged.Code)
	var mergedData struct {
		Expenses []struct {
			Kind string `json:"kind"`
		} `json:"expenses"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, merged).Data, &mergedData)
	require.Len(t, mergedData.Expenses, 2)
}
