package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/application/export"
	"github.com/andrescamacho/flowtrading-go/internal/application/runner"
	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// BatchHandlers serves POST /batch: an on-demand batch run, in
// addition to whatever the auto-solve mailbox triggers on its own
// schedule (spec section 6.1), plus a diagnostic LP/MPS export of the
// QP that would be assembled at the current instant (spec section 4.5).
type BatchHandlers struct {
	runner *runner.Runner
	gather *compiler.GatherBatchHandler
	clock  shared.Clock
}

func NewBatchHandlers(r *runner.Runner, gather *compiler.GatherBatchHandler, clock shared.Clock) *BatchHandlers {
	return &BatchHandlers{runner: r, gather: gather, clock: clock}
}

func (h *BatchHandlers) Mount(r chi.Router) {
	r.With(RequireCapability(CapRunBatch)).Post("/batch", h.run)
	r.With(RequireCapability(CapRunBatch)).Get("/batch/problem", h.exportProblem)
}

// exportProblem renders the QP built from what Gather returns at this
// instant, with a batch duration of 1 second (rates are not scaled by
// the configured schedule.time_unit_seconds that batch runs use), in
// the format requested by ?format=lp|mps
// (defaulting to lp). It never mutates the book or the batch store.
func (h *BatchHandlers) exportProblem(w http.ResponseWriter, r *http.Request) {
	input, err := h.gather.Gather(r.Context(), h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	problem := solver.Build(input, 1)

	format := r.URL.Query().Get("format")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if format == "mps" {
		_ = export.WriteMPS(w, problem, "flowtrading")
		return
	}
	_ = export.WriteLP(w, problem)
}

func (h *BatchHandlers) run(w http.ResponseWriter, r *http.Request) {
	rec, err := h.runner.RunAt(r.Context(), h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, batchSummaryDTO{
		BatchID:    rec.ID.String(),
		ValidFrom:  rec.ValidFrom,
		Portfolios: len(rec.PortfolioOutcomes),
		Products:   len(rec.ProductOutcomes),
	})
}
