package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// GormProductStore implements product.EdgeStore using GORM, following
// the teacher's one-model-per-row-family convention
// (ship_repository.go / market_price_history_repository.go).
type GormProductStore struct {
	db *gorm.DB
}

func NewGormProductStore(db *gorm.DB) *GormProductStore {
	return &GormProductStore{db: db}
}

func (s *GormProductStore) SaveProduct(ctx context.Context, p product.Product) error {
	var parentID *string
	if p.Parent != nil {
		id := p.Parent.String()
		parentID = &id
	}
	model := &ProductModel{ID: p.ID.String(), AsOf: p.AsOf, ParentID: parentID, ParentRatio: p.ParentRatio}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.ErrIdExists
	}
	return nil
}

func (s *GormProductStore) FindProduct(ctx context.Context, id shared.ProductID) (product.Product, error) {
	var model ProductModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return product.Product{}, shared.ErrNotFound
		}
		return product.Product{}, shared.NewStorageFailureError(err)
	}
	return s.modelToProduct(model)
}

func (s *GormProductStore) modelToProduct(model ProductModel) (product.Product, error) {
	id, err := shared.ParseProductID(model.ID)
	if err != nil {
		return product.Product{}, fmt.Errorf("invalid product id %q: %w", model.ID, err)
	}
	var parent *shared.ProductID
	if model.ParentID != nil {
		pid, err := shared.ParseProductID(*model.ParentID)
		if err != nil {
			return product.Product{}, fmt.Errorf("invalid parent id %q: %w", *model.ParentID, err)
		}
		parent = &pid
	}
	return product.Product{ID: id, AsOf: model.AsOf, Parent: parent, ParentRatio: model.ParentRatio}, nil
}

func (s *GormProductStore) EdgesWithDst(ctx context.Context, id shared.ProductID) ([]product.Edge, error) {
	var models []ProductEdgeModel
	if err := s.db.WithContext(ctx).
		Where("dst_id = ? AND valid_until IS NULL", id.String()).
		Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	return s.modelsToEdges(models)
}

func (s *GormProductStore) EdgesWithSrc(ctx context.Context, id shared.ProductID, t time.Time) ([]product.Edge, error) {
	var models []ProductEdgeModel
	if err := s.db.WithContext(ctx).
		Where("src_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", id.String(), t, t).
		Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	return s.modelsToEdges(models)
}

func (s *GormProductStore) EdgesWithDstAt(ctx context.Context, id shared.ProductID, t time.Time) ([]product.Edge, error) {
	var models []ProductEdgeModel
	if err := s.db.WithContext(ctx).
		Where("dst_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", id.String(), t, t).
		Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	return s.modelsToEdges(models)
}

func (s *GormProductStore) CloseEdges(ctx context.Context, edges []product.Edge, t time.Time) error {
	for _, e := range edges {
		if err := s.db.WithContext(ctx).
			Model(&ProductEdgeModel{}).
			Where("src_id = ? AND dst_id = ? AND valid_until IS NULL", e.Src.String(), e.Dst.String()).
			Update("valid_until", t).Error; err != nil {
			return shared.NewStorageFailureError(err)
		}
	}
	return nil
}

func (s *GormProductStore) OpenEdges(ctx context.Context, edges []product.Edge) error {
	models := make([]ProductEdgeModel, 0, len(edges))
	for _, e := range edges {
		models = append(models, ProductEdgeModel{
			SrcID:      e.Src.String(),
			DstID:      e.Dst.String(),
			Ratio:      e.Ratio,
			Depth:      e.Depth,
			ValidFrom:  e.ValidFrom,
			ValidUntil: e.ValidUntil,
		})
	}
	if len(models) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&models).Error; err != nil {
		return shared.NewStorageFailureError(err)
	}
	return nil
}

func (s *GormProductStore) modelsToEdges(models []ProductEdgeModel) ([]product.Edge, error) {
	out := make([]product.Edge, 0, len(models))
	for _, m := range models {
		src, err := shared.ParseProductID(m.SrcID)
		if err != nil {
			return nil, fmt.Errorf("invalid src id %q: %w", m.SrcID, err)
		}
		dst, err := shared.ParseProductID(m.DstID)
		if err != nil {
			return nil, fmt.Errorf("invalid dst id %q: %w", m.DstID, err)
		}
		out = append(out, product.Edge{
			Src:        src,
			Dst:        dst,
			Ratio:      m.Ratio,
			Depth:      m.Depth,
			ValidFrom:  m.ValidFrom,
			ValidUntil: m.ValidUntil,
		})
	}
	return out, nil
}

var _ product.EdgeStore = (*GormProductStore)(nil)
