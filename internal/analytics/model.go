package analytics

import "time"

// RevenuePoint is one day of delivered revenue.
type RevenuePoint struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}

// ProductSales aggregates units sold per product.
type ProductSales struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
}

// LowStockVariant flags a variant at or under the restock threshold.
type LowStockVariant struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	VariantID string `json:"variantId"`
	Stock     int    `json:"stock"`
}

// Summary holds the headline dashboard numbers.
type Summary struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalOrders   int     `json:"totalOrders"`
	PendingOrders int     `json:"pendingOrders"`
	TotalProducts int     `json:"totalProducts"`
}

// Dashboard is the aggregated back-office dashboard payload.
type Dashboard struct {
	Summary      Summary           `json:"summary"`
	Revenue      []RevenuePoint    `json:"revenue"`
	StatusCounts map[string]int    `json:"statusCounts"`
	TopProducts  []ProductSales    `json:"topProducts"`
	LowStock     []LowStockVariant `json:"lowStock"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}
