package maintenance

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/splitnest/splitnest/internal/database/testutil"
	"github.com/splitnest/splitnest/internal/models"
	"github.com/splitnest/splitnest/pkg/metrics"
)

func TestSweeperRunOnceRefreshesGauges(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	users := []models.User{
		{Name: "Alice", Phone: "+15550001", Password: "x"},
		{Name: "Bob", Phone: "+15550002", Password: "x"},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}

	invitations := []models.Invitation{
		{InviterID: users[0].ID, InviterName: "Alice", FriendPhone: "+15550003", FriendName: "Carol", Status: models.InvitationStatusPending},
		{InviterID: users[0].ID, InviterName: "Alice", FriendPhone: "+15550002", FriendName: "Bob", Status: models.InvitationStatusAccepted},
	}
	for i := range invitations {
		require.NoError(t, db.Create(&invitations[i]).Error)
	}

	sweeper := NewSweeper(db)
	require.NoError(t, sweeper.RunOnce(context.Background()))

	require.Equal(t, float64(2), promtestutil.ToFloat64(metrics.UsersTotal))
	require.Equal(t, float64(1), promtestutil.ToFloat64(metrics.PendingInvitations))
	require.Equal(t, float64(0), promtestutil.ToFloat64(metrics.SharedExpensesTotal))
}

func TestSweeperStartAndStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	sweeper := NewSweeper(db, WithSchedule("@every 1h"))
	require.NoError(t, sweeper.Start())
	sweeper.Stop()
}
