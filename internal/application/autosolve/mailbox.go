// Package autosolve implements the single-slot auto-solve mailbox
// described in spec sections 4.3/9: bid mutations post a wake-up to a
// buffered channel of capacity 1 with a non-blocking coalescing send
// (drain-and-replace — a burst of mutations between ticks of the
// worker loop collapses to exactly one run), and a background
// goroutine drives runner.Runner.RunAt at whatever instant it wakes
// up with. Grounded in the teacher's channel-coordination idiom
// (internal/application/gas/coordination/channel_coordinator.go),
// simplified from the teacher's multi-channel worker-pairing protocol
// down to the single coalescing-mailbox shape the spec calls for.
package autosolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/application/runner"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Mailbox coalesces wake-up requests and drives a batch run per
// request, never running two batches concurrently.
type Mailbox struct {
	trigger chan time.Time
	runner  *runner.Runner
	clock   shared.Clock
	logger  *slog.Logger
}

func New(r *runner.Runner, clock shared.Clock, logger *slog.Logger) *Mailbox {
	return &Mailbox{
		trigger: make(chan time.Time, 1),
		runner:  r,
		clock:   clock,
		logger:  logger,
	}
}

// Notify posts a wake-up at the clock's current instant. Non-blocking:
// if a wake-up is already pending, it is replaced rather than queued,
// since only the latest instant matters to a caller that always wants
// the freshest possible batch.
func (m *Mailbox) Notify() {
	now := m.clock.Now()
	select {
	case m.trigger <- now:
		return
	default:
	}
	select {
	case <-m.trigger:
	default:
	}
	select {
	case m.trigger <- now:
	default:
	}
}

// Run drives the mailbox loop until ctx is cancelled. Exactly one
// batch runs at a time: a Notify that arrives mid-run is still
// observed afterward because the coalescing send leaves a fresh
// pending instant in the channel.
func (m *Mailbox) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-m.trigger:
			m.runOnce(ctx, t)
		}
	}
}

func (m *Mailbox) runOnce(ctx context.Context, t time.Time) {
	rec, err := m.runner.RunAt(ctx, t)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("auto-solve batch failed", "at", t, "error", err)
		}
		return
	}
	if m.logger != nil {
		m.logger.Info("auto-solve batch settled", "batch_id", rec.ID.String(), "at", t)
	}
}
