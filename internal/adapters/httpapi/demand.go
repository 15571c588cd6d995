package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andrescamacho/flowtrading-go/internal/application/autosolve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// DemandHandlers serves the /demand routes of spec section 6.1.
type DemandHandlers struct {
	book    *bidbook.Book
	clock   shared.Clock
	mailbox *autosolve.Mailbox
}

func NewDemandHandlers(book *bidbook.Book, clock shared.Clock, mailbox *autosolve.Mailbox) *DemandHandlers {
	return &DemandHandlers{book: book, clock: clock, mailbox: mailbox}
}

func (h *DemandHandlers) Mount(r chi.Router) {
	r.With(RequireCapability(CapQueryBid)).Get("/demand", h.list)
	r.With(RequireCapability(CapCreateBid)).Post("/demand", h.create)
	r.With(RequireCapability(CapReadBid)).Get("/demand/{id}", h.read)
	r.With(RequireCapability(CapUpdateBid)).Put("/demand/{id}", h.update)
	r.With(RequireCapability(CapUpdateBid)).Delete("/demand/{id}", h.delete)
	r.With(RequireCapability(CapReadBid)).Get("/demand/{id}/history", h.history)
}

func (h *DemandHandlers) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	ids, err := h.book.ActiveDemands(r.Context(), []shared.BidderID{principal.BidderID}, h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DemandHandlers) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req createDemandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	id := shared.NewDemandID()
	c := dtoToCurve(req.Curve)
	if err := h.book.CreateDemand(r.Context(), id, principal.BidderID, c, req.AppData); err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := h.book.ReadDemand(r.Context(), id, h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mailbox.Notify()
	writeJSON(w, http.StatusCreated, demandSnapshotToDTO(snap))
}

// resolveOwnedDemand fetches the demand snapshot, returning the
// 404-leaks-existence behaviour of spec section 9's open questions
// when it exists but is not owned by the caller.
func (h *DemandHandlers) resolveOwnedDemand(w http.ResponseWriter, r *http.Request, id shared.DemandID, t time.Time) (bidbook.DemandSnapshot, bool) {
	principal, _ := PrincipalFromContext(r.Context())
	snap, err := h.book.ReadDemand(r.Context(), id, t)
	if err != nil {
		writeDomainError(w, err)
		return bidbook.DemandSnapshot{}, false
	}
	if snap.BidderID != principal.BidderID {
		writeError(w, http.StatusNotFound, "not found")
		return bidbook.DemandSnapshot{}, false
	}
	return snap, true
}

func (h *DemandHandlers) read(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseDemandID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	snap, ok := h.resolveOwnedDemand(w, r, id, h.clock.Now())
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, demandSnapshotToDTO(snap))
}

func (h *DemandHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseDemandID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedDemand(w, r, id, h.clock.Now()); !ok {
		return
	}

	var req setCurveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	c := dtoToCurve(req.Curve)
	if err := h.book.SetCurve(r.Context(), id, c); err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := h.book.ReadDemand(r.Context(), id, h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mailbox.Notify()
	writeJSON(w, http.StatusOK, demandSnapshotToDTO(snap))
}

func (h *DemandHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseDemandID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	snap, ok := h.resolveOwnedDemand(w, r, id, h.clock.Now())
	if !ok {
		return
	}
	if err := h.book.DeleteDemand(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.mailbox.Notify()
	snap.Curve = nil
	snap.ValidUntil = nil
	writeJSON(w, http.StatusOK, demandSnapshotToDTO(snap))
}

func (h *DemandHandlers) history(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseDemandID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedDemand(w, r, id, h.clock.Now()); !ok {
		return
	}
	rows, err := h.book.ReadDemandHistory(r.Context(), id, bidbook.HistoryQuery{})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]curveHistoryRowDTO, len(rows))
	for i, row := range rows {
		out[i] = curveHistoryRowDTO{
			Curve:      curveToDTO(row.Value),
			ValidFrom:  row.ValidFrom,
			ValidUntil: row.ValidUntil,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func demandSnapshotToDTO(snap bidbook.DemandSnapshot) demandDTO {
	var curveVal *curve.Curve = snap.Curve
	return demandDTO{
		ID:         snap.ID.String(),
		BidderID:   snap.BidderID.String(),
		Curve:      curveToDTO(curveVal),
		AppData:    snap.AppData,
		ValidFrom:  snap.ValidFrom,
		ValidUntil: snap.ValidUntil,
	}
}
