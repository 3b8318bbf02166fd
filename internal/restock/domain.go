package restock

// StockItem is one product row on the restock dashboard.
type StockItem struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	SKU               string `json:"sku"`
	Quantity          int64  `json:"quantity"`
	LowStockThreshold int64  `json:"low_stock_threshold"`
	SupplierID        int64  `json:"supplier_id,omitempty"`
}

// Summary aggregates the tenant's restock position.
type Summary struct {
	PendingOrders     int   `json:"pending_orders"`
	LowStockCount     int   `json:"low_stock_count"`
	OutOfStockCount   int   `json:"out_of_stock_count"`
	PendingValueCents int64 `json:"pending_value_cents"`
}
