package bookings

import (
	"context"
	"testing"
	"time"

	"cineplex/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJobProcessorSweep(t *testing.T) {
	f := newFixture(t)
	f.seed(t, uuid.New(), 2, 24*time.Hour)
	f.svc.now = func() time.Time { return f.now.Add(time.Hour) }

	jp := NewJobProcessor(f.svc, time.Minute, logger.Nop())
	jp.Sweep(context.Background())
	jp.Sweep(context.Background())

	assert.Equal(t, 10, f.available(t))
}

func TestJobProcessorStopIsIdempotent(t *testing.T) {
	f := newFixture(t)
	jp := NewJobProcessor(f.svc, 10*time.Millisecond, logger.Nop())

	jp.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	jp.Stop()
	jp.Stop()
}
