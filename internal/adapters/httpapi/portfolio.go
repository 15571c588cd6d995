package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andrescamacho/flowtrading-go/internal/application/autosolve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// PortfolioHandlers serves the /portfolio routes of spec section 6.1.
type PortfolioHandlers struct {
	book       *bidbook.Book
	batchStore batch.Store
	clock      shared.Clock
	mailbox    *autosolve.Mailbox
}

func NewPortfolioHandlers(book *bidbook.Book, batchStore batch.Store, clock shared.Clock, mailbox *autosolve.Mailbox) *PortfolioHandlers {
	return &PortfolioHandlers{book: book, batchStore: batchStore, clock: clock, mailbox: mailbox}
}

func (h *PortfolioHandlers) Mount(r chi.Router) {
	r.With(RequireCapability(CapQueryBid)).Get("/portfolio", h.list)
	r.With(RequireCapability(CapCreateBid)).Post("/portfolio", h.create)
	r.With(RequireCapability(CapReadBid)).Get("/portfolio/{id}", h.read)
	r.With(RequireCapability(CapUpdateBid)).Patch("/portfolio/{id}", h.update)
	r.With(RequireCapability(CapUpdateBid)).Delete("/portfolio/{id}", h.delete)
	r.With(RequireCapability(CapReadBid)).Get("/portfolio/{id}/demand-history", h.demandHistory)
	r.With(RequireCapability(CapReadBid)).Get("/portfolio/{id}/product-history", h.basisHistory)
	r.With(RequireCapability(CapReadBid)).Get("/portfolio/{id}/outcomes", h.outcomes)
}

func (h *PortfolioHandlers) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	ids, err := h.book.ActivePortfolios(r.Context(), []shared.BidderID{principal.BidderID}, h.clock.Now())
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

func (h *PortfolioHandlers) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	demandMap, err := demandMapFromDTO(req.DemandMap)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed demand_map")
		return
	}
	basisMap, err := basisMapFromDTO(req.BasisMap)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed basis_map")
		return
	}

	id := shared.NewPortfolioID()
	if err := h.book.CreatePortfolio(r.Context(), id, principal.BidderID, demandMap, basisMap, req.AppData); err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := h.book.ReadPortfolio(r.Context(), id, h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mailbox.Notify()
	writeJSON(w, http.StatusCreated, portfolioSnapshotToDTO(snap))
}

func (h *PortfolioHandlers) resolveOwnedPortfolio(w http.ResponseWriter, r *http.Request, id shared.PortfolioID, t time.Time) (bidbook.PortfolioSnapshot, bool) {
	principal, _ := PrincipalFromContext(r.Context())
	snap, err := h.book.ReadPortfolio(r.Context(), id, t)
	if err != nil {
		writeDomainError(w, err)
		return bidbook.PortfolioSnapshot{}, false
	}
	if snap.BidderID != principal.BidderID {
		writeError(w, http.StatusNotFound, "not found")
		return bidbook.PortfolioSnapshot{}, false
	}
	return snap, true
}

func (h *PortfolioHandlers) read(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePortfolioID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	snap, ok := h.resolveOwnedPortfolio(w, r, id, h.clock.Now())
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, portfolioSnapshotToDTO(snap))
}

func (h *PortfolioHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePortfolioID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedPortfolio(w, r, id, h.clock.Now()); !ok {
		return
	}

	var req updatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	var demandMap map[shared.DemandID]float64
	if req.DemandMap != nil {
		demandMap, err = demandMapFromDTO(req.DemandMap)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "malformed demand_map")
			return
		}
	}
	var basisMap map[shared.ProductID]float64
	if req.BasisMap != nil {
		basisMap, err = basisMapFromDTO(req.BasisMap)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "malformed basis_map")
			return
		}
	}

	if err := h.book.UpdatePortfolio(r.Context(), id, demandMap, basisMap); err != nil {
		writeDomainError(w, err)
		return
	}

	snap, err := h.book.ReadPortfolio(r.Context(), id, h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.mailbox.Notify()
	writeJSON(w, http.StatusOK, portfolioSnapshotToDTO(snap))
}

func (h *PortfolioHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePortfolioID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedPortfolio(w, r, id, h.clock.Now()); !ok {
		return
	}
	if err := h.book.DeletePortfolio(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	h.mailbox.Notify()
	snap, err := h.book.ReadPortfolio(r.Context(), id, h.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolioSnapshotToDTO(snap))
}

func (h *PortfolioHandlers) demandHistory(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePortfolioID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedPortfolio(w, r, id, h.clock.Now()); !ok {
		return
	}
	rows, err := h.book.ReadDemandMapHistory(r.Context(), id, bidbook.HistoryQuery{})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	type rowDTO struct {
		DemandMap  map[string]float64 `json:"demand_map"`
		ValidFrom  time.Time          `json:"valid_from"`
		ValidUntil *time.Time         `json:"valid_until,omitempty"`
	}
	out := make([]rowDTO, len(rows))
	for i, row := range rows {
		out[i] = rowDTO{DemandMap: demandMapToDTO(row.Value), ValidFrom: row.ValidFrom, ValidUntil: row.ValidUntil}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PortfolioHandlers) basisHistory(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePortfolioID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedPortfolio(w, r, id, h.clock.Now()); !ok {
		return
	}
	rows, err := h.book.ReadBasisHistory(r.Context(), id, bidbook.HistoryQuery{})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	type rowDTO struct {
		BasisMap   map[string]float64 `json:"basis_map"`
		ValidFrom  time.Time          `json:"valid_from"`
		ValidUntil *time.Time         `json:"valid_until,omitempty"`
	}
	out := make([]rowDTO, len(rows))
	for i, row := range rows {
		out[i] = rowDTO{BasisMap: basisMapToDTO(row.Value), ValidFrom: row.ValidFrom, ValidUntil: row.ValidUntil}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PortfolioHandlers) outcomes(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParsePortfolioID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := h.resolveOwnedPortfolio(w, r, id, h.clock.Now()); !ok {
		return
	}
	records, err := h.batchStore.History(r.Context(), time.Time{}, h.clock.Now().Add(time.Nanosecond))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]portfolioOutcomeDTO, 0, len(records))
	for _, rec := range records {
		if o, ok := rec.PortfolioOutcomes[id]; ok {
			out = append(out, portfolioOutcomeDTO{PortfolioID: id.String(), TradeRate: o.TradeRate, MarginalPrice: o.MarginalPrice})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func portfolioSnapshotToDTO(snap bidbook.PortfolioSnapshot) portfolioDTO {
	return portfolioDTO{
		ID:         snap.ID.String(),
		BidderID:   snap.BidderID.String(),
		DemandMap:  demandMapToDTO(snap.DemandMap),
		BasisMap:   basisMapToDTO(snap.BasisMap),
		AppData:    snap.AppData,
		ValidFrom:  snap.ValidFrom,
		ValidUntil: snap.ValidUntil,
	}
}
