package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/splitnest/splitnest/internal/database/testutil"
	"gorm.io/gorm"
)

func newExpenseServices(t *testing.T, db *gorm.DB) (*ExpenseService, *SharedExpenseService) {
	t.Helper()

	shared, err := NewSharedExpenseService(db)
	require.NoError(t, err)
	expenses, err := NewExpenseService(db, shared)
	require.NoError(t, err)
	return expenses, shared
}

func TestResolveCategory(t *testing.T) {
	// Codes are stored in existing rows and sent by existing clients, so the
	// numbering is pinned.
	require.Equal(t, 1, ResolveCategory("Food"))
	require.Equal(t, 2, ResolveCategory("Transportation"))
	require.Equal(t, 3, ResolveCategory("Entertainment"))
	require.Equal(t, 4, ResolveCategory("Shopping"))
	require.Equal(t, 5, ResolveCategory("Bills"))
	require.Equal(t, 6, ResolveCategory("Healthcare"))
	require.Equal(t, 7, ResolveCategory("Education"))
	require.Equal(t, 8, ResolveCategory("Travel"))
	require.Equal(t, 9, ResolveCategory("Other"))
	require.Equal(t, CategoryOther, ResolveCategory("Something Else"))
	require.Equal(t, CategoryOther, ResolveCategory(""))
}

func TestPersonalExpenseLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, _ := newExpenseServices(t, db)

	ctx := context.Background()
	user := createTestUser(t, db, "Alice", "+15550001")
	other := createTestUser(t, db, "Bob", "+15550002")

	expense, err := svc.CreatePersonal(ctx, user.ID, CreatePersonalExpenseInput{
		Title:    "Groceries",
		Amount:   decimal.NewFromFloat(42.50),
		Category: CategoryFood,
	})
	require.NoError(t, err)
	require.NotEmpty(t, expense.ID)

	// Zero amount is rejected.
	_, err = svc.CreatePersonal(ctx, user.ID, CreatePersonalExpenseInput{Title: "Free", Amount: decimal.Zero})
	require.Error(t, err)

	// Another user cannot touch the record.
	_, err = svc.UpdatePersonal(ctx, other.ID, expense.ID, UpdatePersonalExpenseInput{Title: strPtr("Stolen")})
	require.ErrorIs(t, err, ErrExpenseNotFound)
	require.ErrorIs(t, svc.RemovePersonal(ctx, other.ID, expense.ID), ErrExpenseNotFound)

	newAmount := decimal.NewFromInt(50)
	updated, err := svc.UpdatePersonal(ctx, user.ID, expense.ID, UpdatePersonalExpenseInput{
		Title:  strPtr("Weekly groceries"),
		Amount: &newAmount,
	})
	require.NoError(t, err)
	require.Equal(t, "Weekly groceries", updated.Title)
	require.True(t, updated.Amount.Equal(newAmount))

	listed, err := svc.ListPersonal(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, svc.RemovePersonal(ctx, user.ID, expense.ID))
	listed, err = svc.ListPersonal(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestListMergedCombinesAndSortsNewestFirst(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, shared := newExpenseServices(t, db)
	friends, err := NewFriendService(db)
	require.NoError(t, err)

	ctx := context.Background()
	user := createTestUser(t, db, "Alice", "+15550001")
	createTestUser(t, db, "Bob", "+15550002")

	link, err := friends.AddDirect(ctx, user.ID, AddFriendInput{Name: "Bob", PhoneNumber: "+15550002"})
	require.NoError(t, err)

	_, err = svc.CreatePersonal(ctx, user.ID, CreatePersonalExpenseInput{
		Title:  "Coffee",
		Amount: decimal.NewFromInt(5),
		Date:   time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = shared.Create(ctx, user.ID, CreateSharedExpenseInput{
		Title:  "Dinner",
		Amount: decimal.NewFromInt(80),
		Date:   time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Shares: []ShareInput{{FriendLinkID: link.ID, Amount: decimal.NewFromInt(40)}},
	})
	require.NoError(t, err)

	_, err = svc.CreatePersonal(ctx, user.ID, CreatePersonalExpenseInput{
		Title:  "Rent",
		Amount: decimal.NewFromInt(900),
		Date:   time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	merged, err := svc.ListMerged(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, merged, 3)
	require.Equal(t, "Rent", merged[0].Title)
	require.Equal(t, ExpenseKindPersonal, merged[0].Kind)
	require.Equal(t, "Dinner", merged[1].Title)
	require.Equal(t, ExpenseKindShared, merged[1].Kind)
	require.Equal(t, "Alice", merged[1].CreatorName)
	require.Equal(t, "Coffee", merged[2].Title)
}
