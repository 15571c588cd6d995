package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// GormBatchStore implements batch.Store using GORM.
type GormBatchStore struct {
	db *gorm.DB
}

func NewGormBatchStore(db *gorm.DB) *GormBatchStore {
	return &GormBatchStore{db: db}
}

func (s *GormBatchStore) Insert(ctx context.Context, rec *batch.Record) error {
	portfolioJSON, err := json.Marshal(stringifyPortfolioOutcomes(rec.PortfolioOutcomes))
	if err != nil {
		return fmt.Errorf("marshal portfolio outcomes: %w", err)
	}
	productJSON, err := json.Marshal(stringifyProductOutcomes(rec.ProductOutcomes))
	if err != nil {
		return fmt.Errorf("marshal product outcomes: %w", err)
	}
	model := &BatchModel{
		ID:                    rec.ID.String(),
		ValidFrom:             rec.ValidFrom,
		ValidUntil:            rec.ValidUntil,
		PortfolioOutcomesJSON: string(portfolioJSON),
		ProductOutcomesJSON:   string(productJSON),
		Settled:               rec.Settled,
		TimeUnitSeconds:       rec.TimeUnitSeconds,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.NewStorageFailureError(err)
	}
	return nil
}

func (s *GormBatchStore) CloseOpen(ctx context.Context, t time.Time) error {
	if err := s.db.WithContext(ctx).Model(&BatchModel{}).
		Where("valid_until IS NULL").
		Update("valid_until", t).Error; err != nil {
		return shared.NewStorageFailureError(err)
	}
	return nil
}

func (s *GormBatchStore) Open(ctx context.Context) (*batch.Record, error) {
	var model BatchModel
	err := s.db.WithContext(ctx).Where("valid_until IS NULL").Order("valid_from DESC").First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	return modelToBatch(model)
}

func (s *GormBatchStore) AtInstant(ctx context.Context, t time.Time) (*batch.Record, error) {
	var model BatchModel
	err := s.db.WithContext(ctx).
		Where("valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", t, t).
		Order("valid_from DESC").
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	return modelToBatch(model)
}

func (s *GormBatchStore) History(ctx context.Context, from, to time.Time) ([]*batch.Record, error) {
	var models []BatchModel
	err := s.db.WithContext(ctx).
		Where("valid_from < ? AND (valid_until IS NULL OR valid_until > ?)", to, from).
		Order("valid_from ASC").
		Find(&models).Error
	if err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	out := make([]*batch.Record, 0, len(models))
	for _, m := range models {
		rec, err := modelToBatch(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func modelToBatch(m BatchModel) (*batch.Record, error) {
	id, err := shared.ParseBatchID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid batch id %q: %w", m.ID, err)
	}
	var rawPortfolios map[string]batch.PortfolioOutcome
	if err := json.Unmarshal([]byte(m.PortfolioOutcomesJSON), &rawPortfolios); err != nil {
		return nil, fmt.Errorf("unmarshal portfolio outcomes: %w", err)
	}
	portfolios := make(map[shared.PortfolioID]batch.PortfolioOutcome, len(rawPortfolios))
	for k, v := range rawPortfolios {
		pid, err := shared.ParsePortfolioID(k)
		if err != nil {
			return nil, fmt.Errorf("invalid portfolio id %q: %w", k, err)
		}
		portfolios[pid] = v
	}
	var rawProducts map[string]batch.ProductOutcome
	if err := json.Unmarshal([]byte(m.ProductOutcomesJSON), &rawProducts); err != nil {
		return nil, fmt.Errorf("unmarshal product outcomes: %w", err)
	}
	products := make(map[shared.ProductID]batch.ProductOutcome, len(rawProducts))
	for k, v := range rawProducts {
		pid, err := shared.ParseProductID(k)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", k, err)
		}
		products[pid] = v
	}
	return &batch.Record{
		ID:                id,
		ValidFrom:         m.ValidFrom,
		ValidUntil:        m.ValidUntil,
		PortfolioOutcomes: portfolios,
		ProductOutcomes:   products,
		Settled:           m.Settled,
		TimeUnitSeconds:   m.TimeUnitSeconds,
	}, nil
}

func stringifyPortfolioOutcomes(m map[shared.PortfolioID]batch.PortfolioOutcome) map[string]batch.PortfolioOutcome {
	out := make(map[string]batch.PortfolioOutcome, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}

func stringifyProductOutcomes(m map[shared.ProductID]batch.ProductOutcome) map[string]batch.ProductOutcome {
	out := make(map[string]batch.ProductOutcome, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}

var _ batch.Store = (*GormBatchStore)(nil)
