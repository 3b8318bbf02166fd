package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stockroom-hq/stockroom/internal/catalog/categories"
	"github.com/stockroom-hq/stockroom/internal/catalog/products"
	"github.com/stockroom-hq/stockroom/internal/catalog/suppliers"
	"github.com/stockroom-hq/stockroom/internal/sales"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// Service runs CSV batches through the same single-item operations the
// API exposes. Each row commits or fails on its own; a bad row never
// rolls back its neighbours.
type Service struct {
	logger     *slog.Logger
	products   *products.Service
	suppliers  *suppliers.Service
	categories *categories.Service
	sales      *sales.Service
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, productSvc *products.Service, supplierSvc *suppliers.Service, categorySvc *categories.Service, saleSvc *sales.Service) *Service {
	return &Service{
		logger:     logger,
		products:   productSvc,
		suppliers:  supplierSvc,
		categories: categorySvc,
		sales:      saleSvc,
	}
}

// ImportProducts ingests a product CSV. Category and supplier columns
// accept either an id or a name resolved within the tenant.
func (s *Service) ImportProducts(ctx context.Context, scope tenancy.Scope, r io.Reader) (Report, error) {
	rows, err := readRows(r, []string{"name"})
	if err != nil {
		return Report{}, err
	}
	return s.run(ctx, scope, "products", rows, func(ctx context.Context, entry row) (int64, error) {
		input := products.CreateInput{
			Name:        entry.get("name"),
			SKU:         entry.get("sku"),
			Description: entry.get("description"),
		}
		if input.Name == "" {
			return 0, errors.New("name is required")
		}

		price, ok, err := entry.getCents("price")
		if err != nil {
			return 0, err
		}
		if ok {
			input.PriceCents = price
		}
		qty, ok, err := entry.getInt("quantity")
		if err != nil {
			return 0, err
		}
		if ok {
			if qty < 0 {
				return 0, errors.New("quantity must not be negative")
			}
			input.InitialQuantity = qty
		}
		threshold, ok, err := entry.getInt("low_stock_threshold")
		if err != nil {
			return 0, err
		}
		if ok {
			input.LowStockThreshold = threshold
		}

		categoryID, err := s.resolveCategory(ctx, scope, entry)
		if err != nil {
			return 0, err
		}
		input.CategoryID = categoryID
		supplierID, err := s.resolveSupplier(ctx, scope, entry)
		if err != nil {
			return 0, err
		}
		input.SupplierID = supplierID

		p, err := s.products.Create(ctx, scope, input)
		if err != nil {
			return 0, err
		}
		return p.ID, nil
	})
}

// ImportSuppliers ingests a supplier CSV.
func (s *Service) ImportSuppliers(ctx context.Context, scope tenancy.Scope, r io.Reader) (Report, error) {
	rows, err := readRows(r, []string{"name"})
	if err != nil {
		return Report{}, err
	}
	return s.run(ctx, scope, "suppliers", rows, func(ctx context.Context, entry row) (int64, error) {
		sup, err := s.suppliers.Create(ctx, scope, suppliers.CreateInput{
			Name:    entry.get("name"),
			Email:   entry.get("email"),
			Phone:   entry.get("phone"),
			Address: entry.get("address"),
		})
		if err != nil {
			return 0, err
		}
		return sup.ID, nil
	})
}

// ImportCategories ingests a category CSV.
func (s *Service) ImportCategories(ctx context.Context, scope tenancy.Scope, r io.Reader) (Report, error) {
	rows, err := readRows(r, []string{"name"})
	if err != nil {
		return Report{}, err
	}
	return s.run(ctx, scope, "categories", rows, func(ctx context.Context, entry row) (int64, error) {
		cat, err := s.categories.Create(ctx, scope, categories.CreateInput{
			Name:        entry.get("name"),
			Description: entry.get("description"),
		})
		if err != nil {
			return 0, err
		}
		return cat.ID, nil
	})
}

// ImportSales ingests a sale CSV targeting the product identified by
// SKU. Every successful row runs the full single-sale path, including
// the stock check.
func (s *Service) ImportSales(ctx context.Context, scope tenancy.Scope, sku string, r io.Reader) (Report, error) {
	product, err := s.products.ResolveBySKU(ctx, scope, sku)
	if err != nil {
		return Report{}, err
	}
	rows, err := readRows(r, []string{"quantity"})
	if err != nil {
		return Report{}, err
	}
	return s.run(ctx, scope, "sales", rows, func(ctx context.Context, entry row) (int64, error) {
		qty, ok, err := entry.getInt("quantity")
		if err != nil {
			return 0, err
		}
		if !ok || qty <= 0 {
			return 0, errors.New("quantity must be a positive integer")
		}
		input := sales.RecordInput{ProductID: product.ID, Quantity: qty}
		if raw := entry.get("sale_date", "date"); raw != "" {
			date, err := parseDate(raw)
			if err != nil {
				return 0, err
			}
			input.SaleDate = date
		}
		price, ok, err := entry.getCents("sale_price", "price")
		if err != nil {
			return 0, err
		}
		if ok {
			input.UnitPriceCents = price
		}
		sale, err := s.sales.Record(ctx, scope, input)
		if err != nil {
			return 0, err
		}
		return sale.ID, nil
	})
}

func (s *Service) run(ctx context.Context, scope tenancy.Scope, kind string, rows []row, apply func(context.Context, row) (int64, error)) (Report, error) {
	report := Report{BatchID: uuid.NewString(), Total: len(rows), Results: make([]RowResult, 0, len(rows))}
	for i, entry := range rows {
		result := RowResult{RowNumber: i + 1}
		id, err := apply(ctx, entry)
		if err != nil {
			result.Error = err.Error()
			report.Failed++
		} else {
			result.OK = true
			result.ID = id
			report.Succeeded++
		}
		report.Results = append(report.Results, result)
	}
	s.logger.Info("csv batch finished",
		slog.String("batch_id", report.BatchID),
		slog.String("kind", kind),
		slog.Int64("user_id", scope.UserID),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) resolveCategory(ctx context.Context, scope tenancy.Scope, entry row) (int64, error) {
	if id, ok, err := entry.getInt("category_id"); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	name := entry.get("category")
	if name == "" {
		return 0, nil
	}
	cat, err := s.categories.ResolveByName(ctx, scope, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, fmt.Errorf("unknown category %q", name)
		}
		return 0, err
	}
	return cat.ID, nil
}

func (s *Service) resolveSupplier(ctx context.Context, scope tenancy.Scope, entry row) (int64, error) {
	if id, ok, err := entry.getInt("supplier_id"); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	name := entry.get("supplier")
	if name == "" {
		return 0, nil
	}
	sup, err := s.suppliers.ResolveByName(ctx, scope, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, fmt.Errorf("unknown supplier %q", name)
		}
		return 0, err
	}
	return sup.ID, nil
}
