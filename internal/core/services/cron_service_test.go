package services

import (
	"testing"
	"time"

	"shg-finance/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobs(t *testing.T) {
	f := newFixture(t)
	president := f.actor(domain.RolePresident, f.group)
	deadline := time.Now().Add(time.Hour)
	id := f.openPoll(president, &deadline)
	f.svc.Polls.now = func() time.Time { return deadline.Add(time.Second) }

	f.svc.Cron.CloseExpiredPolls()

	poll, err := f.svc.Polls.Get(f.ctx, president, id)
	require.NoError(t, err)
	assert.False(t, poll.IsActive)

	f.svc.Cron.PurgeRefreshTokens()
}

func TestCronStartStop(t *testing.T) {
	f := newFixture(t)
	f.svc.Cron.Start()
	assert.Len(t, f.svc.Cron.cron.Entries(), 2)
	f.svc.Cron.Stop()
}
