package service

import (
	"context"
	"testing"
	"time"

	"go-storefront/apps/api/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type analyticsFixture struct {
	db        *gorm.DB
	catalog   *CatalogService
	analytics *AnalyticsService
	hierarchy *HierarchyService
	seller    *model.User
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	db := newTestDB(t)
	hierarchy, catalog := newCatalog(db, &fakeEnqueuer{})
	return &analyticsFixture{
		db:        db,
		catalog:   catalog,
		analytics: NewAnalyticsService(db, nil),
		hierarchy: hierarchy,
		seller:    makeUser(t, db, model.RoleSeller),
	}
}

// oldSale inserts a sale row directly with an explicit date, bypassing the
// recording path so history can predate the test run.
func oldSale(t *testing.T, db *gorm.DB, p *model.Product, qty int, daysAgo int) {
	t.Helper()
	sale := model.ProductSale{
		ProductID:   p.ID,
		SellerID:    p.SellerID,
		Quantity:    qty,
		PriceAtSale: p.Price,
		SaleDate:    time.Now().AddDate(0, 0, -daysAgo),
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed dated sale: %v", err)
	}
}

func wantDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestSellerDashboardTotals(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	cat := makeCategory(t, f.hierarchy, "Electronics", nil)

	a := makeProduct(t, f.catalog, f.seller, cat.ID, "10.00", 100)
	b := makeProduct(t, f.catalog, f.seller, cat.ID, "40.00", 100)

	if _, err := f.catalog.RecordSale(ctx, nil, a.ID, 2, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := f.catalog.RecordSale(ctx, nil, b.ID, 1, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}

	// A rival seller's sale must not leak into this dashboard.
	rival := makeUser(t, f.db, model.RoleSeller)
	rp := makeProduct(t, f.catalog, rival, cat.ID, "500.00", 10)
	if _, err := f.catalog.RecordSale(ctx, nil, rp.ID, 1, nil); err != nil {
		t.Fatalf("rival sale: %v", err)
	}

	d, err := f.analytics.SellerDashboard(ctx, f.seller)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Totals.Count != 2 || d.Totals.Units != 3 {
		t.Fatalf("totals = %+v", d.Totals)
	}
	wantDecimal(t, d.Totals.Revenue, "60.00", "revenue")
	wantDecimal(t, d.Totals.AvgOrderValue, "30.00", "avg order value")

	if len(d.TopProducts) != 2 {
		t.Fatalf("top products = %+v", d.TopProducts)
	}
	if d.TopProducts[0].ProductID != b.ID {
		t.Fatalf("top product is %d, want %d (highest revenue)", d.TopProducts[0].ProductID, b.ID)
	}
	if len(d.RecentSales) != 2 {
		t.Fatalf("recent sales = %d, want 2", len(d.RecentSales))
	}
}

func TestSellerDashboardLowStockCount(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	cat := makeCategory(t, f.hierarchy, "Electronics", nil)

	makeProduct(t, f.catalog, f.seller, cat.ID, "10.00", 3)
	makeProduct(t, f.catalog, f.seller, cat.ID, "10.00", 10)
	makeProduct(t, f.catalog, f.seller, cat.ID, "10.00", 11)

	d, err := f.analytics.SellerDashboard(ctx, f.seller)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.LowStockCount != 2 {
		t.Fatalf("low stock count = %d, want 2", d.LowStockCount)
	}
}

func TestAnalyticsPermissions(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	consumer := makeUser(t, f.db, model.RoleConsumer)
	admin := makeUser(t, f.db, model.RoleAdmin)

	if _, err := f.analytics.SellerDashboard(ctx, consumer); KindOf(err) != KindPermission {
		t.Fatalf("consumer reached seller dashboard: %v", err)
	}
	if _, err := f.analytics.SalesReport(ctx, admin, 30); KindOf(err) != KindPermission {
		t.Fatalf("admin reached seller report: %v", err)
	}
	if _, err := f.analytics.ProductAnalytics(ctx, consumer); KindOf(err) != KindPermission {
		t.Fatalf("consumer reached product analytics: %v", err)
	}
	if _, err := f.analytics.AdminDashboard(ctx, f.seller); KindOf(err) != KindPermission {
		t.Fatalf("seller reached admin dashboard: %v", err)
	}
	if _, err := f.analytics.SalesTrends(ctx, f.seller, 30); KindOf(err) != KindPermission {
		t.Fatalf("seller reached sales trends: %v", err)
	}
}

func TestSalesReportWindow(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	cat := makeCategory(t, f.hierarchy, "Electronics", nil)
	p := makeProduct(t, f.catalog, f.seller, cat.ID, "20.00", 100)

	oldSale(t, f.db, p, 5, 10)
	if _, err := f.catalog.RecordSale(ctx, nil, p.ID, 2, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}

	// The 7-day window sees only the fresh sale.
	r, err := f.analytics.SalesReport(ctx, f.seller, 7)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Totals.Count != 1 || r.Totals.Units != 2 {
		t.Fatalf("windowed totals = %+v", r.Totals)
	}
	wantDecimal(t, r.Totals.Revenue, "40.00", "windowed revenue")
	if len(r.Daily) != 1 {
		t.Fatalf("daily breakdown = %+v", r.Daily)
	}

	// The 30-day window sees both.
	r, err = f.analytics.SalesReport(ctx, f.seller, 30)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Totals.Count != 2 || r.Totals.Units != 7 {
		t.Fatalf("30-day totals = %+v", r.Totals)
	}
	wantDecimal(t, r.Totals.Revenue, "140.00", "30-day revenue")
	if len(r.Daily) != 2 {
		t.Fatalf("30-day daily breakdown = %+v", r.Daily)
	}
	if r.Daily[0].Date >= r.Daily[1].Date {
		t.Fatalf("daily breakdown not ascending: %+v", r.Daily)
	}
}

func TestSalesReportEmptyWindowZeroes(t *testing.T) {
	f := newAnalyticsFixture(t)

	r, err := f.analytics.SalesReport(context.Background(), f.seller, 7)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Totals.Count != 0 || r.Totals.Units != 0 {
		t.Fatalf("empty totals = %+v", r.Totals)
	}
	wantDecimal(t, r.Totals.Revenue, "0", "empty revenue")
	wantDecimal(t, r.Totals.AvgOrderValue, "0", "empty avg order value")
	if len(r.Daily) != 0 {
		t.Fatalf("empty daily breakdown = %+v", r.Daily)
	}
}

func TestProductAnalyticsIncludesUnsold(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	cat := makeCategory(t, f.hierarchy, "Electronics", nil)

	sold := makeProduct(t, f.catalog, f.seller, cat.ID, "15.00", 50)
	unsold := makeProduct(t, f.catalog, f.seller, cat.ID, "25.00", 50)
	if _, err := f.catalog.RecordSale(ctx, nil, sold.ID, 4, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}

	rows, err := f.analytics.ProductAnalytics(ctx, f.seller)
	if err != nil {
		t.Fatalf("product analytics: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want both products", rows)
	}
	if rows[0].ProductID != sold.ID {
		t.Fatalf("highest revenue first: %+v", rows)
	}
	wantDecimal(t, rows[0].Revenue, "60.00", "sold revenue")
	if rows[1].ProductID != unsold.ID || rows[1].Units != 0 || rows[1].SaleCount != 0 {
		t.Fatalf("unsold row = %+v, want zeros", rows[1])
	}
	wantDecimal(t, rows[1].Revenue, "0", "unsold revenue")
}

func TestAdminDashboard(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	admin := makeUser(t, f.db, model.RoleAdmin)
	makeUser(t, f.db, model.RoleConsumer)
	cat := makeCategory(t, f.hierarchy, "Electronics", nil)

	p := makeProduct(t, f.catalog, f.seller, cat.ID, "12.50", 20)
	if _, err := f.catalog.RecordSale(ctx, nil, p.ID, 2, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}

	d, err := f.analytics.AdminDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("admin dashboard: %v", err)
	}
	if d.Users != 3 || d.Sellers != 1 || d.Products != 1 || d.Sales != 1 {
		t.Fatalf("platform counts = %+v", d)
	}
	wantDecimal(t, d.Revenue, "25.00", "platform revenue")
	if len(d.TopSellers) != 1 || d.TopSellers[0].SellerID != f.seller.ID {
		t.Fatalf("top sellers = %+v", d.TopSellers)
	}
	if len(d.RecentSales) != 1 || len(d.RecentUsers) == 0 {
		t.Fatalf("recent activity = %d sales, %d users", len(d.RecentSales), len(d.RecentUsers))
	}
}

func TestSalesTrendsCategoryPerformance(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := context.Background()
	admin := makeUser(t, f.db, model.RoleAdmin)

	books := makeCategory(t, f.hierarchy, "Books", nil)
	games := makeCategory(t, f.hierarchy, "Games", nil)
	bp := makeProduct(t, f.catalog, f.seller, books.ID, "10.00", 50)
	gp := makeProduct(t, f.catalog, f.seller, games.ID, "60.00", 50)

	if _, err := f.catalog.RecordSale(ctx, nil, bp.ID, 1, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := f.catalog.RecordSale(ctx, nil, gp.ID, 2, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}

	trends, err := f.analytics.SalesTrends(ctx, admin, 30)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(trends.Daily) != 1 || trends.Daily[0].Count != 2 {
		t.Fatalf("daily trends = %+v", trends.Daily)
	}
	if len(trends.CategoryPerformance) != 2 {
		t.Fatalf("category performance = %+v", trends.CategoryPerformance)
	}
	if trends.CategoryPerformance[0].Name != "Games" {
		t.Fatalf("highest revenue category first: %+v", trends.CategoryPerformance)
	}
	wantDecimal(t, trends.CategoryPerformance[0].Revenue, "120.00", "games revenue")
	wantDecimal(t, trends.CategoryPerformance[1].Revenue, "10.00", "books revenue")
}
