package importer

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-hq/stockroom/internal/catalog/categories"
	"github.com/stockroom-hq/stockroom/internal/catalog/products"
	"github.com/stockroom-hq/stockroom/internal/catalog/suppliers"
	"github.com/stockroom-hq/stockroom/internal/ledger"
	"github.com/stockroom-hq/stockroom/internal/sales"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/internal/tenancy"
)

// store is a shared in-memory backend wired behind all four domain
// repositories, so imported rows interact the same way they do against
// one database.
type store struct {
	products   map[int64]products.Product
	categories map[int64]categories.Category
	suppliers  map[int64]suppliers.Supplier
	sales      map[int64]sales.Sale
	movements  []ledger.Movement
	nextID     int64
}

func newStore() *store {
	return &store{
		products:   make(map[int64]products.Product),
		categories: make(map[int64]categories.Category),
		suppliers:  make(map[int64]suppliers.Supplier),
		sales:      make(map[int64]sales.Sale),
	}
}

func (st *store) id() int64 {
	st.nextID++
	return st.nextID
}

// --- products.Repository / products.TxRepository ---

type productRepo struct{ st *store }

func (r productRepo) List(ctx context.Context, scope tenancy.Scope, filter products.ListFilter) ([]products.Product, int, error) {
	return nil, 0, nil
}

func (r productRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (products.Product, error) {
	p, ok := r.st.products[id]
	if !ok || p.UserID != scope.UserID {
		return products.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r productRepo) FindBySKU(ctx context.Context, scope tenancy.Scope, sku string) (products.Product, error) {
	for _, p := range r.st.products {
		if p.UserID == scope.UserID && strings.EqualFold(p.SKU, sku) {
			return p, nil
		}
	}
	return products.Product{}, shared.ErrNotFound
}

func (r productRepo) CategoryExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	c, ok := r.st.categories[id]
	return ok && c.UserID == scope.UserID, nil
}

func (r productRepo) SupplierExists(ctx context.Context, scope tenancy.Scope, id int64) (bool, error) {
	s, ok := r.st.suppliers[id]
	return ok && s.UserID == scope.UserID, nil
}

func (r productRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx products.TxRepository) error) error {
	return fn(ctx, productTx{r.st})
}

type productTx struct{ st *store }

func (t productTx) InsertProduct(ctx context.Context, scope tenancy.Scope, p products.Product) (products.Product, error) {
	p.ID = t.st.id()
	p.UserID = scope.UserID
	t.st.products[p.ID] = p
	return p, nil
}

func (t productTx) UpdateProduct(ctx context.Context, scope tenancy.Scope, id int64, p products.Product) error {
	current, ok := t.st.products[id]
	if !ok || current.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	p.ID = id
	p.UserID = current.UserID
	p.Quantity = current.Quantity
	t.st.products[id] = p
	return nil
}

func (t productTx) DeleteProduct(ctx context.Context, scope tenancy.Scope, id int64) error {
	delete(t.st.products, id)
	return nil
}

func (t productTx) ProductForUpdate(ctx context.Context, scope tenancy.Scope, productID int64) (ledger.ProductRow, error) {
	p, ok := t.st.products[productID]
	if !ok || p.UserID != scope.UserID {
		return ledger.ProductRow{}, shared.ErrNotFound
	}
	return ledger.ProductRow{ID: p.ID, Name: p.Name, Quantity: p.Quantity, LowStockThreshold: p.LowStockThreshold}, nil
}

func (t productTx) InsertMovement(ctx context.Context, scope tenancy.Scope, m ledger.Movement) (int64, error) {
	m.ID = int64(len(t.st.movements) + 1)
	t.st.movements = append(t.st.movements, m)
	return m.ID, nil
}

func (t productTx) SetProductQuantity(ctx context.Context, scope tenancy.Scope, productID, quantity int64) error {
	p, ok := t.st.products[productID]
	if !ok || p.UserID != scope.UserID {
		return shared.ErrNotFound
	}
	p.Quantity = quantity
	t.st.products[productID] = p
	return nil
}

// --- categories.Repository ---

type categoryRepo struct{ st *store }

func (r categoryRepo) List(ctx context.Context, scope tenancy.Scope) ([]categories.Category, error) {
	return nil, nil
}

func (r categoryRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (categories.Category, error) {
	c, ok := r.st.categories[id]
	if !ok || c.UserID != scope.UserID {
		return categories.Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (r categoryRepo) FindByName(ctx context.Context, scope tenancy.Scope, name string) (categories.Category, error) {
	for _, c := range r.st.categories {
		if c.UserID == scope.UserID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return categories.Category{}, shared.ErrNotFound
}

func (r categoryRepo) Create(ctx context.Context, scope tenancy.Scope, c categories.Category) (categories.Category, error) {
	c.ID = r.st.id()
	c.UserID = scope.UserID
	r.st.categories[c.ID] = c
	return c, nil
}

func (r categoryRepo) Update(ctx context.Context, scope tenancy.Scope, id int64, c categories.Category) error {
	return nil
}

func (r categoryRepo) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	return nil
}

func (r categoryRepo) CountProducts(ctx context.Context, scope tenancy.Scope, id int64) (int, error) {
	return 0, nil
}

// --- suppliers.Repository ---

type supplierRepo struct{ st *store }

func (r supplierRepo) List(ctx context.Context, scope tenancy.Scope) ([]suppliers.Supplier, error) {
	return nil, nil
}

func (r supplierRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (suppliers.Supplier, error) {
	s, ok := r.st.suppliers[id]
	if !ok || s.UserID != scope.UserID {
		return suppliers.Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (r supplierRepo) FindByName(ctx context.Context, scope tenancy.Scope, name string) (suppliers.Supplier, error) {
	for _, s := range r.st.suppliers {
		if s.UserID == scope.UserID && strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return suppliers.Supplier{}, shared.ErrNotFound
}

func (r supplierRepo) Create(ctx context.Context, scope tenancy.Scope, s suppliers.Supplier) (suppliers.Supplier, error) {
	s.ID = r.st.id()
	s.UserID = scope.UserID
	r.st.suppliers[s.ID] = s
	return s, nil
}

func (r supplierRepo) Update(ctx context.Context, scope tenancy.Scope, id int64, s suppliers.Supplier) error {
	return nil
}

func (r supplierRepo) Delete(ctx context.Context, scope tenancy.Scope, id int64) error {
	return nil
}

func (r supplierRepo) CountProducts(ctx context.Context, scope tenancy.Scope, id int64) (int, error) {
	return 0, nil
}

// --- sales.Repository ---

type saleRepo struct{ st *store }

func (r saleRepo) List(ctx context.Context, scope tenancy.Scope, filter sales.ListFilter) ([]sales.Sale, int, error) {
	return nil, 0, nil
}

func (r saleRepo) Get(ctx context.Context, scope tenancy.Scope, id int64) (sales.Sale, error) {
	return sales.Sale{}, shared.ErrNotFound
}

func (r saleRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx sales.TxRepository) error) error {
	return fn(ctx, saleTx{r.st})
}

type saleTx struct{ st *store }

func (t saleTx) InsertSale(ctx context.Context, scope tenancy.Scope, s sales.Sale) (sales.Sale, error) {
	s.ID = t.st.id()
	s.UserID = scope.UserID
	t.st.sales[s.ID] = s
	return s, nil
}

func (t saleTx) ProductPrice(ctx context.Context, scope tenancy.Scope, productID int64) (int64, error) {
	p, ok := t.st.products[productID]
	if !ok || p.UserID != scope.UserID {
		return 0, shared.ErrNotFound
	}
	return p.PriceCents, nil
}

func (t saleTx) ProductForUpdate(ctx context.Context, scope tenancy.Scope, productID int64) (ledger.ProductRow, error) {
	return productTx{t.st}.ProductForUpdate(ctx, scope, productID)
}

func (t saleTx) InsertMovement(ctx context.Context, scope tenancy.Scope, m ledger.Movement) (int64, error) {
	return productTx{t.st}.InsertMovement(ctx, scope, m)
}

func (t saleTx) SetProductQuantity(ctx context.Context, scope tenancy.Scope, productID, quantity int64) error {
	return productTx{t.st}.SetProductQuantity(ctx, scope, productID, quantity)
}

func newImporter(st *store) *Service {
	logger := slog.Default()
	return NewService(logger,
		products.NewService(logger, productRepo{st}, nil),
		suppliers.NewService(supplierRepo{st}),
		categories.NewService(categoryRepo{st}),
		sales.NewService(logger, saleRepo{st}, nil),
	)
}

func TestImportProductsRowIsolation(t *testing.T) {
	st := newStore()
	svc := newImporter(st)
	scope := tenancy.Scope{UserID: 1}

	csv := strings.Join([]string{
		"name,sku,price,quantity",
		"Alpha,A-1,9.99,5",
		"Bravo,B-1,4.50,2",
		"Charlie,C-1,1.00,oops",
		"Delta,D-1,2.25,0",
		"Echo,E-1,3.10,7",
	}, "\n")

	report, err := svc.ImportProducts(context.Background(), scope, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 5, report.Total)
	require.Equal(t, 4, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.NotEmpty(t, report.BatchID)

	bad := report.Results[2]
	require.Equal(t, 3, bad.RowNumber)
	require.False(t, bad.OK)
	require.NotEmpty(t, bad.Error)

	// Rows before and after the failure are committed.
	require.Len(t, st.products, 4)
	for i, res := range report.Results {
		if i == 2 {
			continue
		}
		require.True(t, res.OK)
		require.NotZero(t, res.ID)
	}
}

func TestImportProductsResolvesNamedReferences(t *testing.T) {
	st := newStore()
	svc := newImporter(st)
	scope := tenancy.Scope{UserID: 1}
	ctx := context.Background()

	catRepo := categoryRepo{st}
	cat, err := catRepo.Create(ctx, scope, categories.Category{Name: "Beverages"})
	require.NoError(t, err)

	csv := "name,sku,category\nCola,COL-1,Beverages\nUnknown,UNK-1,Snacks\n"
	report, err := svc.ImportProducts(ctx, scope, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.Contains(t, report.Results[1].Error, "Snacks")

	created := st.products[report.Results[0].ID]
	require.Equal(t, cat.ID, created.CategoryID)
}

func TestImportProductsWithoutSKU(t *testing.T) {
	st := newStore()
	svc := newImporter(st)
	scope := tenancy.Scope{UserID: 1}

	csv := "name,quantity\nLoose Bolts,3\nSpare Washers,0\n"
	report, err := svc.ImportProducts(context.Background(), scope, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)
	require.Zero(t, report.Failed)
	require.Empty(t, st.products[report.Results[0].ID].SKU)
}

func TestImportHandlesByteOrderMark(t *testing.T) {
	st := newStore()
	svc := newImporter(st)

	csv := "\xEF\xBB\xBFname,sku\nWidget,WID-1\n"
	report, err := svc.ImportProducts(context.Background(), tenancy.Scope{UserID: 1}, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, "Widget", st.products[report.Results[0].ID].Name)
}

func TestImportMissingHeaderFailsBatch(t *testing.T) {
	st := newStore()
	svc := newImporter(st)

	_, err := svc.ImportSuppliers(context.Background(), tenancy.Scope{UserID: 1}, strings.NewReader("email,phone\na@b.c,123\n"))
	require.ErrorIs(t, err, ErrBadFile)
	require.Empty(t, st.suppliers)
}

func TestImportSalesRunsLedgerChecks(t *testing.T) {
	st := newStore()
	svc := newImporter(st)
	scope := tenancy.Scope{UserID: 1}
	ctx := context.Background()

	st.products[100] = products.Product{ID: 100, UserID: 1, Name: "Widget", SKU: "WID-1", PriceCents: 150, Quantity: 5}

	csv := "quantity,sale_date\n2,2024-03-01\n9,2024-03-02\n1,03/04/2024\n"
	report, err := svc.ImportSales(ctx, scope, "WID-1", strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.Contains(t, report.Results[1].Error, "insufficient stock")

	require.EqualValues(t, 2, st.products[100].Quantity)
	require.Len(t, st.movements, 2)
}

func TestImportSalesUnknownSKU(t *testing.T) {
	st := newStore()
	svc := newImporter(st)

	_, err := svc.ImportSales(context.Background(), tenancy.Scope{UserID: 1}, "NOPE", strings.NewReader("quantity\n1\n"))
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestParseDateFallbacks(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-05T10:00:00Z": time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		"2024-03-05T10:00:00":  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		"2024-03-05":           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"03/05/2024":           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"25/03/2024":           time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := parseDate(raw)
		require.NoError(t, err, raw)
		require.True(t, want.Equal(got), raw)
	}
	_, err := parseDate("not-a-date")
	require.Error(t, err)
}
