// Package persistence is the GORM-backed adapter layer: one model
// struct per row stream plus one repository per domain port, mirroring
// the teacher's persistence package (models.go + one
// Gorm<Entity>Repository per file). Complex domain values (curves,
// weight maps, batch outcomes) are stored as JSON text columns, the
// same convention the teacher uses for its own JSON-as-text fields
// (ContainerModel.Config, WaypointModel.Traits).
package persistence

import "time"

// ProductModel represents the products table: the immutable identity
// and parent-refinement fields of one product (spec section 4.1).
type ProductModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	AsOf        time.Time `gorm:"column:as_of;not null"`
	ParentID    *string   `gorm:"column:parent_id;index:idx_products_parent"`
	ParentRatio float64   `gorm:"column:parent_ratio;not null;default:0"`
}

func (ProductModel) TableName() string { return "products" }

// ProductEdgeModel represents the product_edges table: one row per
// parent/child refinement edge in the transitive closure, including
// self-edges (spec section 4.1).
type ProductEdgeModel struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	SrcID      string     `gorm:"column:src_id;not null;index:idx_product_edges_src"`
	DstID      string     `gorm:"column:dst_id;not null;index:idx_product_edges_dst"`
	Ratio      float64    `gorm:"column:ratio;not null"`
	Depth      int        `gorm:"column:depth;not null"`
	ValidFrom  time.Time  `gorm:"column:valid_from;not null"`
	ValidUntil *time.Time `gorm:"column:valid_until"`
}

func (ProductEdgeModel) TableName() string { return "product_edges" }

// DemandModel represents the demands table: a demand's immutable
// identity fields (id, bidder, app-defined metadata).
type DemandModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	BidderID string `gorm:"column:bidder_id;not null;index:idx_demands_bidder"`
	AppData  string `gorm:"column:app_data;type:text"` // JSON
}

func (DemandModel) TableName() string { return "demands" }

// DemandCurveRowModel represents the demand_curve_rows table: the
// bitemporal curve stream for one demand (spec section 3, "Row").
type DemandCurveRowModel struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	DemandID   string     `gorm:"column:demand_id;not null;index:idx_curve_rows_demand"`
	CurveJSON  *string    `gorm:"column:curve_json;type:text"` // nil => inactive
	ValidFrom  time.Time  `gorm:"column:valid_from;not null"`
	ValidUntil *time.Time `gorm:"column:valid_until"`
}

func (DemandCurveRowModel) TableName() string { return "demand_curve_rows" }

// PortfolioModel represents the portfolios table.
type PortfolioModel struct {
	ID       string `gorm:"column:id;primaryKey"`
	BidderID string `gorm:"column:bidder_id;not null;index:idx_portfolios_bidder"`
	AppData  string `gorm:"column:app_data;type:text"`
}

func (PortfolioModel) TableName() string { return "portfolios" }

// PortfolioDemandMapRowModel represents the portfolio_demand_map_rows
// table: the bitemporal demand-weight-map stream for one portfolio.
type PortfolioDemandMapRowModel struct {
	ID           uint       `gorm:"column:id;primaryKey;autoIncrement"`
	PortfolioID  string     `gorm:"column:portfolio_id;not null;index:idx_demand_map_rows_portfolio"`
	DemandMapJSON string    `gorm:"column:demand_map_json;type:text;not null"`
	ValidFrom    time.Time  `gorm:"column:valid_from;not null"`
	ValidUntil   *time.Time `gorm:"column:valid_until"`
}

func (PortfolioDemandMapRowModel) TableName() string { return "portfolio_demand_map_rows" }

// PortfolioBasisMapRowModel represents the portfolio_basis_map_rows
// table: the bitemporal basis-weight-map stream for one portfolio.
type PortfolioBasisMapRowModel struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement"`
	PortfolioID string     `gorm:"column:portfolio_id;not null;index:idx_basis_map_rows_portfolio"`
	BasisMapJSON string    `gorm:"column:basis_map_json;type:text;not null"`
	ValidFrom   time.Time  `gorm:"column:valid_from;not null"`
	ValidUntil  *time.Time `gorm:"column:valid_until"`
}

func (PortfolioBasisMapRowModel) TableName() string { return "portfolio_basis_map_rows" }

// BatchModel represents the batches table: one row per solved batch
// auction (spec section 3, "Batch").
type BatchModel struct {
	ID                  string     `gorm:"column:id;primaryKey"`
	ValidFrom           time.Time  `gorm:"column:valid_from;not null;index:idx_batches_valid_from"`
	ValidUntil          *time.Time `gorm:"column:valid_until"`
	PortfolioOutcomesJSON string   `gorm:"column:portfolio_outcomes_json;type:text;not null"`
	ProductOutcomesJSON string     `gorm:"column:product_outcomes_json;type:text;not null"`
	Settled             bool       `gorm:"column:settled;not null;default:false"`
	TimeUnitSeconds     float64    `gorm:"column:time_unit_seconds;not null"`
}

func (BatchModel) TableName() string { return "batches" }
