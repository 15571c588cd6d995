package curve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
)

func ptr(f float64) *float64 { return &f }

func TestValidate_PWL(t *testing.T) {
	tests := []struct {
		name    string
		points  []curve.Point
		wantErr bool
	}{
		{
			name:    "empty is invalid",
			points:  nil,
			wantErr: true,
		},
		{
			name: "valid covers zero, strictly increasing rate, weakly decreasing price",
			points: []curve.Point{
				{Rate: -10, Price: 20},
				{Rate: 0, Price: 15},
				{Rate: 10, Price: 5},
			},
			wantErr: false,
		},
		{
			name: "flat segment is allowed",
			points: []curve.Point{
				{Rate: 0, Price: 10},
				{Rate: 5, Price: 10},
				{Rate: 10, Price: 5},
			},
			wantErr: false,
		},
		{
			name: "does not cover zero",
			points: []curve.Point{
				{Rate: 1, Price: 10},
				{Rate: 5, Price: 5},
			},
			wantErr: true,
		},
		{
			name: "non-increasing rate",
			points: []curve.Point{
				{Rate: 0, Price: 10},
				{Rate: 0, Price: 5},
			},
			wantErr: true,
		},
		{
			name: "increasing price",
			points: []curve.Point{
				{Rate: -1, Price: 5},
				{Rate: 0, Price: 10},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &curve.Curve{PWL: tt.points}
			err := curve.Validate(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Constant(t *testing.T) {
	tests := []struct {
		name    string
		c       *curve.ConstantCurve
		wantErr bool
	}{
		{
			name:    "unbounded both sides is valid",
			c:       &curve.ConstantCurve{Price: 10},
			wantErr: false,
		},
		{
			name:    "min/max straddling zero is valid",
			c:       &curve.ConstantCurve{MinRate: ptr(-5), MaxRate: ptr(5), Price: 10},
			wantErr: false,
		},
		{
			name:    "min_rate positive is invalid",
			c:       &curve.ConstantCurve{MinRate: ptr(5), MaxRate: ptr(10), Price: 10},
			wantErr: true,
		},
		{
			name:    "max_rate negative is invalid",
			c:       &curve.ConstantCurve{MinRate: ptr(-10), MaxRate: ptr(-5), Price: 10},
			wantErr: true,
		},
		{
			name:    "min greater than max is invalid",
			c:       &curve.ConstantCurve{MinRate: ptr(5), MaxRate: ptr(-5), Price: 10},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &curve.Curve{Constant: tt.c}
			err := curve.Validate(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.NoError(t, curve.Validate(nil))
}

func TestValidate_BothVariants(t *testing.T) {
	c := &curve.Curve{
		PWL:      []curve.Point{{Rate: 0, Price: 1}},
		Constant: &curve.ConstantCurve{Price: 1},
	}
	assert.Error(t, curve.Validate(c))
}
