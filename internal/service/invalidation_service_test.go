package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/pkg/jobs"
)

type recordingDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (d *recordingDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type recordingHostCache struct {
	hosts []string
	err   error
}

func (c *recordingHostCache) InvalidateHost(_ context.Context, hostID string) error {
	c.hosts = append(c.hosts, hostID)
	return c.err
}

func TestHostChangedEnqueues(t *testing.T) {
	queue := &recordingDispatcher{}
	cache := &recordingHostCache{}
	svc := NewInvalidationService(queue, cache, nil, nil)

	svc.HostChanged(context.Background(), "host-1")
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeInvalidateAvailability, queue.jobs[0].Type)
	assert.Equal(t, "host-1", queue.jobs[0].Key)
	assert.Empty(t, cache.hosts)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))
	assert.Equal(t, []string{"host-1"}, cache.hosts)
}

func TestHostChangedInvalidatesInlineWhenQueueRefuses(t *testing.T) {
	cache := &recordingHostCache{}
	svc := NewInvalidationService(&recordingDispatcher{err: errors.New("queue stopped")}, cache, nil, nil)

	svc.HostChanged(context.Background(), "host-1")
	assert.Equal(t, []string{"host-1"}, cache.hosts)

	inline := NewInvalidationService(nil, cache, nil, nil)
	inline.HostChanged(context.Background(), "host-2")
	inline.HostChanged(context.Background(), "")
	assert.Equal(t, []string{"host-1", "host-2"}, cache.hosts)
}

func TestHandleReportsCacheFailure(t *testing.T) {
	cache := &recordingHostCache{err: errors.New("redis down")}
	svc := NewInvalidationService(nil, cache, nil, nil)

	err := svc.Handle(context.Background(), jobs.Job{Key: "host-9"})
	assert.Error(t, err)
	assert.Equal(t, []string{"host-9"}, cache.hosts)
}
