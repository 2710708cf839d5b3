package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "shipped", "delivered", "cancelled"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("refunded")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusApproved},
		{StatusPending, StatusCancelled},
		{StatusApproved, StatusShipped},
		{StatusApproved, StatusCancelled},
		{StatusShipped, StatusDelivered},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusShipped},
		{StatusPending, StatusDelivered},
		{StatusShipped, StatusCancelled},
		{StatusShipped, StatusApproved},
		{StatusDelivered, StatusCancelled},
		{StatusDelivered, StatusPending},
		{StatusCancelled, StatusApproved},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, (&Order{Status: StatusCancelled}).Terminal())
	assert.True(t, (&Order{Status: StatusDelivered}).Terminal())
	assert.True(t, (&Order{Status: StatusDelivered, ReturnState: ReturnRejected}).Terminal())
	assert.True(t, (&Order{Status: StatusDelivered, ReturnState: ReturnCompleted}).Terminal())

	assert.False(t, (&Order{Status: StatusDelivered, ReturnState: ReturnRequested}).Terminal())
	assert.False(t, (&Order{Status: StatusDelivered, ReturnState: ReturnApproved}).Terminal())
	assert.False(t, (&Order{Status: StatusShipped}).Terminal())
	assert.False(t, (&Order{Status: StatusPending}).Terminal())
}

func TestReturnOpen(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	recent := now.Add(-3 * 24 * time.Hour)
	old := now.Add(-8 * 24 * time.Hour)
	edge := now.Add(-ReturnWindow)

	assert.True(t, (&Order{Status: StatusShipped}).ReturnOpen(now))
	assert.True(t, (&Order{Status: StatusDelivered, DeliveredAt: &recent}).ReturnOpen(now))
	assert.True(t, (&Order{Status: StatusDelivered, DeliveredAt: &edge}).ReturnOpen(now))

	assert.False(t, (&Order{Status: StatusDelivered, DeliveredAt: &old}).ReturnOpen(now))
	assert.False(t, (&Order{Status: StatusPending}).ReturnOpen(now))
	assert.False(t, (&Order{Status: StatusApproved}).ReturnOpen(now))
	assert.False(t, (&Order{Status: StatusShipped, ReturnState: ReturnRequested}).ReturnOpen(now))
}
