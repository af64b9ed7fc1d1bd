package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(time.UTC, nil)
	defer s.Stop()
	assert.Error(t, s.Add("flush", "not a spec", func(context.Context) error { return nil }))
	assert.NoError(t, s.Add("flush", "5 0 * * *", func(context.Context) error { return nil }))
}
