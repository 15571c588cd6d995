package product

import (
	"context"
	"errors"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// ExistenceChecker adapts an EdgeStore into bidbook.ProductExistence,
// the minimal view the bid book needs to validate a portfolio's
// basis references (spec section 4.2).
type ExistenceChecker struct {
	store EdgeStore
}

func NewExistenceChecker(store EdgeStore) *ExistenceChecker {
	return &ExistenceChecker{store: store}
}

func (e *ExistenceChecker) ProductExists(ctx context.Context, id shared.ProductID) (bool, error) {
	_, err := e.store.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
