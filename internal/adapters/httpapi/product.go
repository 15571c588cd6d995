package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// ProductHandlers serves the /product routes of spec section 6.1.
type ProductHandlers struct {
	registry   *product.Registry
	store      product.EdgeStore
	batchStore batch.Store
	clock      shared.Clock
}

func NewProductHandlers(registry *product.Registry, store product.EdgeStore, batchStore batch.Store, clock shared.Clock) *ProductHandlers {
	return &ProductHandlers{registry: registry, store: store, batchStore: batchStore, clock: clock}
}

func (h *ProductHandlers) Mount(r chi.Router) {
	r.With(RequireCapability(CapManageProduct)).Post("/product", h.create)
	r.With(RequireCapability(CapViewProduct)).Get("/product/{id}", h.read)
	r.With(RequireCapability(CapManageProduct)).Post("/product/{id}", h.refine)
	r.With(RequireCapability(CapViewProduct)).Get("/product/{id}/outcomes", h.outcomes)
}

func (h *ProductHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}
	var parent *shared.ProductID
	if req.Parent != nil {
		pid, err := shared.ParseProductID(*req.Parent)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "malformed parent id")
			return
		}
		parent = &pid
	}
	ratio := req.ParentRatio
	if parent == nil {
		ratio = 1.0
	}

	id := shared.NewProductID()
	if err := h.registry.CreateProduct(r.Context(), id, parent, ratio); err != nil {
		writeDomainError(w, err)
		return
	}

	p, err := h.store.FindProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productToDTO(p))
}

func (h *ProductHandlers) read(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	p, err := h.store.FindProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productToDTO(p))
}

// refine creates a child product named by {id}'s refine request,
// exactly as the Registry.CreateProduct "naming a non-existent parent
// is fatal" rule: the path parameter supplies the parent, the body
// supplies the new ratio, and the response is the refined children
// (spec section 6.1's "POST /product/{id}" payload).
func (h *ProductHandlers) refine(w http.ResponseWriter, r *http.Request) {
	parent, err := shared.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	var req refineProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	childID := shared.NewProductID()
	if err := h.registry.CreateProduct(r.Context(), childID, &parent, req.ParentRatio); err != nil {
		writeDomainError(w, err)
		return
	}

	child, err := h.store.FindProduct(r.Context(), childID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productToDTO(child))
}

func (h *ProductHandlers) outcomes(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if _, err := h.store.FindProduct(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	records, err := h.batchStore.History(r.Context(), time.Time{}, h.clock.Now().Add(time.Nanosecond))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productOutcomeDTO, 0, len(records))
	for _, rec := range records {
		if o, ok := rec.ProductOutcomes[id]; ok {
			out = append(out, productOutcomeDTO{ProductID: id.String(), TradedQuantity: o.TradedQuantity, ClearingPrice: o.ClearingPrice})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func productToDTO(p product.Product) productDTO {
	var parent *string
	if p.Parent != nil {
		s := p.Parent.String()
		parent = &s
	}
	return productDTO{ID: p.ID.String(), AsOf: p.AsOf, Parent: parent, ParentRatio: p.ParentRatio}
}
