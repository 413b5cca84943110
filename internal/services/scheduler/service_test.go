package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/models"
	"github.com/growthops/adpulse/internal/queue"
)

type countingRunner struct {
	jobs chan string
}

func (c *countingRunner) GenerateReport(ctx context.Context, accountID, domain, timeframe string) (*models.ReportRun, error) {
	c.jobs <- accountID
	return models.NewReportRun(accountID, timeframe), nil
}

func newTestScheduler(config *common.SchedulerConfig) (*Service, *queue.Dispatcher, *countingRunner) {
	runner := &countingRunner{jobs: make(chan string, 8)}
	dispatcher := queue.NewDispatcher(runner, &common.QueueConfig{Workers: 1, BufferSize: 8}, arbor.NewLogger())
	reports := &common.ReportsConfig{
		DefaultAccountID: "123456789",
		DefaultDomain:    "example.com",
		DefaultTimeframe: "last_7d",
	}
	return NewService(dispatcher, config, reports, arbor.NewLogger()), dispatcher, runner
}

func TestStartDisabledIsNoop(t *testing.T) {
	service, _, _ := newTestScheduler(&common.SchedulerConfig{Enabled: false})
	require.NoError(t, service.Start())
	// Stop on a never-started scheduler must not block.
	service.Stop()
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	service, _, _ := newTestScheduler(&common.SchedulerConfig{Enabled: true, Schedule: "not a schedule"})
	err := service.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a schedule")
}

func TestStartTwiceFails(t *testing.T) {
	service, _, _ := newTestScheduler(&common.SchedulerConfig{Enabled: true, Schedule: "0 * * * *"})
	require.NoError(t, service.Start())
	defer service.Stop()

	assert.Error(t, service.Start())
}

func TestRefreshEnqueuesDefaultAccount(t *testing.T) {
	service, dispatcher, runner := newTestScheduler(&common.SchedulerConfig{Enabled: true})
	dispatcher.Start()
	defer dispatcher.Stop()

	service.refreshDefaultAccount()

	select {
	case accountID := <-runner.jobs:
		assert.Equal(t, "123456789", accountID)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled refresh never reached the runner")
	}
}
