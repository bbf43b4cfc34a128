package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipeline(t *testing.T) {
	t.Parallel()

	repo := &stubRepository{}
	p := newScenarioPipeline(&stubFeed{entries: scenarioEntries()}, &stubDocuments{}, repo)
	driver := &manualDriver{}
	s := NewScheduler(driver, p, discardLogger())

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(fixedClock())
	require.Len(t, repo.saved, 2)

	require.NoError(t, s.Stop(context.Background()))
	require.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, discardLogger())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
