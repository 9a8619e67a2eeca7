package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-storefront/apps/api/model"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// analyticsCacheTTL bounds dashboard staleness. Analytics reads tolerate
// stale snapshots, so a short cache soaks up dashboard refresh storms.
const analyticsCacheTTL = 60 * time.Second

// AnalyticsService aggregates sales, product and user data into reports.
// Every operation is a read-only query; revenue math stays in decimals.
type AnalyticsService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewAnalyticsService(db *gorm.DB, rdb *redis.Client) *AnalyticsService {
	return &AnalyticsService{db: db, rdb: rdb}
}

type Totals struct {
	Count         int64           `json:"count"`
	Revenue       decimal.Decimal `json:"revenue"`
	Units         int64           `json:"units"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

type ProductRevenue struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
	Units     int64           `json:"units_sold"`
	SaleCount int64           `json:"sale_count"`
}

type DailySales struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int64           `json:"count"`
}

type SellerRevenue struct {
	SellerID  int64           `json:"seller_id"`
	Username  string          `json:"username"`
	StoreName string          `json:"store_name"`
	Revenue   decimal.Decimal `json:"revenue"`
	SaleCount int64           `json:"sale_count"`
}

type CategoryPerformance struct {
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
	SaleCount int64           `json:"sale_count"`
}

type SellerDashboard struct {
	Totals        Totals              `json:"totals"`
	TopProducts   []ProductRevenue    `json:"top_products"`
	RecentSales   []model.ProductSale `json:"recent_sales"`
	LowStockCount int64               `json:"low_stock_count"`
}

type SalesReport struct {
	Totals Totals       `json:"totals"`
	Daily  []DailySales `json:"daily_breakdown"`
}

type AdminDashboard struct {
	Users       int64               `json:"users"`
	Sellers     int64               `json:"sellers"`
	Products    int64               `json:"products"`
	Sales       int64               `json:"sales"`
	Revenue     decimal.Decimal     `json:"revenue"`
	RecentSales []model.ProductSale `json:"recent_sales"`
	RecentUsers []model.User        `json:"recent_users"`
	TopSellers  []SellerRevenue     `json:"top_sellers"`
}

type SalesTrends struct {
	Daily               []DailySales          `json:"daily_trends"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
}

// cached runs load on a cache miss and stores the JSON result. A nil redis
// client (tests, degraded boot) falls straight through to load.
func cached[T any](ctx context.Context, rdb *redis.Client, key string, load func() (*T, error)) (*T, error) {
	if rdb != nil {
		if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
			var out T
			if json.Unmarshal(raw, &out) == nil {
				return &out, nil
			}
		}
	}

	out, err := load()
	if err != nil {
		return nil, err
	}

	if rdb != nil {
		if raw, err := json.Marshal(out); err == nil {
			rdb.Set(ctx, key, raw, analyticsCacheTTL)
		}
	}
	return out, nil
}

func (s *AnalyticsService) totals(ctx context.Context, where string, args ...interface{}) (Totals, error) {
	var row struct {
		Count   int64
		Revenue decimal.Decimal
		Units   int64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS count,
		        COALESCE(SUM(price_at_sale * quantity), 0) AS revenue,
		        COALESCE(SUM(quantity), 0) AS units
		 FROM product_sales WHERE `+where, args...).Scan(&row).Error
	if err != nil {
		return Totals{}, err
	}

	t := Totals{Count: row.Count, Revenue: row.Revenue.Round(2), Units: row.Units}
	if t.Count > 0 {
		t.AvgOrderValue = t.Revenue.Div(decimal.NewFromInt(t.Count)).Round(2)
	} else {
		t.AvgOrderValue = decimal.Zero
	}
	return t, nil
}

func (s *AnalyticsService) dailyBreakdown(ctx context.Context, where string, args ...interface{}) ([]DailySales, error) {
	rows := []DailySales{}
	err := s.db.WithContext(ctx).Raw(
		`SELECT DATE(sale_date) AS date,
		        COALESCE(SUM(price_at_sale * quantity), 0) AS revenue,
		        COUNT(*) AS count
		 FROM product_sales WHERE `+where+`
		 GROUP BY DATE(sale_date)
		 ORDER BY date ASC`, args...).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

// SellerDashboard summarizes a seller's business: lifetime totals, top five
// products by revenue, the last week of sales and the low-stock count.
func (s *AnalyticsService) SellerDashboard(ctx context.Context, actor *model.User) (*SellerDashboard, error) {
	if !actor.IsSeller() {
		return nil, Permission("only sellers can access seller analytics")
	}

	key := fmt.Sprintf("analytics:seller_dashboard:%d", actor.ID)
	return cached(ctx, s.rdb, key, func() (*SellerDashboard, error) {
		d := &SellerDashboard{}

		totals, err := s.totals(ctx, "seller_id = ?", actor.ID)
		if err != nil {
			return nil, err
		}
		d.Totals = totals

		d.TopProducts = []ProductRevenue{}
		err = s.db.WithContext(ctx).Raw(
			`SELECT p.id AS product_id, p.name,
			        COALESCE(SUM(s.price_at_sale * s.quantity), 0) AS revenue,
			        COALESCE(SUM(s.quantity), 0) AS units,
			        COUNT(s.id) AS sale_count
			 FROM product_sales s
			 JOIN products p ON p.id = s.product_id
			 WHERE s.seller_id = ?
			 GROUP BY p.id, p.name
			 ORDER BY revenue DESC
			 LIMIT 5`, actor.ID).Scan(&d.TopProducts).Error
		if err != nil {
			return nil, err
		}

		weekAgo := time.Now().AddDate(0, 0, -7)
		d.RecentSales = []model.ProductSale{}
		err = s.db.WithContext(ctx).
			Where("seller_id = ? AND sale_date >= ?", actor.ID, weekAgo).
			Order("sale_date desc").
			Limit(10).
			Find(&d.RecentSales).Error
		if err != nil {
			return nil, err
		}

		err = s.db.WithContext(ctx).Model(&model.Product{}).
			Where("seller_id = ? AND stock_quantity <= ? AND is_active = ?",
				actor.ID, model.LowStockThreshold, true).
			Count(&d.LowStockCount).Error
		if err != nil {
			return nil, err
		}

		return d, nil
	})
}

// SalesReport aggregates a seller's sales over the trailing window, with a
// per-day breakdown in ascending date order. Days outside the window never
// appear; an empty window yields zero totals.
func (s *AnalyticsService) SalesReport(ctx context.Context, actor *model.User, days int) (*SalesReport, error) {
	if !actor.IsSeller() {
		return nil, Permission("only sellers can access seller analytics")
	}
	if days <= 0 {
		days = 30
	}

	key := fmt.Sprintf("analytics:sales_report:%d:%d", actor.ID, days)
	return cached(ctx, s.rdb, key, func() (*SalesReport, error) {
		since := time.Now().AddDate(0, 0, -days)

		totals, err := s.totals(ctx, "seller_id = ? AND sale_date >= ?", actor.ID, since)
		if err != nil {
			return nil, err
		}
		daily, err := s.dailyBreakdown(ctx, "seller_id = ? AND sale_date >= ?", actor.ID, since)
		if err != nil {
			return nil, err
		}
		return &SalesReport{Totals: totals, Daily: daily}, nil
	})
}

// ProductAnalytics breaks a seller's revenue down per product, highest
// revenue first. Products that never sold report zeros.
func (s *AnalyticsService) ProductAnalytics(ctx context.Context, actor *model.User) ([]ProductRevenue, error) {
	if !actor.IsSeller() {
		return nil, Permission("only sellers can access seller analytics")
	}

	rows := []ProductRevenue{}
	err := s.db.WithContext(ctx).Raw(
		`SELECT p.id AS product_id, p.name,
		        COALESCE(SUM(s.price_at_sale * s.quantity), 0) AS revenue,
		        COALESCE(SUM(s.quantity), 0) AS units,
		        COUNT(s.id) AS sale_count
		 FROM products p
		 LEFT JOIN product_sales s ON s.product_id = p.id
		 WHERE p.seller_id = ?
		 GROUP BY p.id, p.name
		 ORDER BY revenue DESC`, actor.ID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = rows[i].Revenue.Round(2)
	}
	return rows, nil
}

// AdminDashboard reports platform-wide totals and recent activity.
func (s *AnalyticsService) AdminDashboard(ctx context.Context, actor *model.User) (*AdminDashboard, error) {
	if !actor.IsAdmin() {
		return nil, Permission("only admins can access the admin dashboard")
	}

	return cached(ctx, s.rdb, "analytics:admin_dashboard", func() (*AdminDashboard, error) {
		d := &AdminDashboard{}

		if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&d.Users).Error; err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("role = ?", model.RoleSeller).Count(&d.Sellers).Error; err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&d.Products).Error; err != nil {
			return nil, err
		}

		var rev struct {
			Count   int64
			Revenue decimal.Decimal
		}
		err := s.db.WithContext(ctx).Raw(
			`SELECT COUNT(*) AS count,
			        COALESCE(SUM(price_at_sale * quantity), 0) AS revenue
			 FROM product_sales`).Scan(&rev).Error
		if err != nil {
			return nil, err
		}
		d.Sales = rev.Count
		d.Revenue = rev.Revenue.Round(2)

		d.RecentSales = []model.ProductSale{}
		if err := s.db.WithContext(ctx).Order("sale_date desc").Limit(10).Find(&d.RecentSales).Error; err != nil {
			return nil, err
		}

		d.RecentUsers = []model.User{}
		if err := s.db.WithContext(ctx).Order("created_at desc").Limit(5).Find(&d.RecentUsers).Error; err != nil {
			return nil, err
		}

		d.TopSellers = []SellerRevenue{}
		err = s.db.WithContext(ctx).Raw(
			`SELECT u.id AS seller_id, u.username, u.store_name,
			        COALESCE(SUM(s.price_at_sale * s.quantity), 0) AS revenue,
			        COUNT(s.id) AS sale_count
			 FROM product_sales s
			 JOIN users u ON u.id = s.seller_id
			 GROUP BY u.id, u.username, u.store_name
			 ORDER BY revenue DESC
			 LIMIT 5`).Scan(&d.TopSellers).Error
		if err != nil {
			return nil, err
		}

		return d, nil
	})
}

// SalesTrends reports platform-wide daily trends plus revenue per category
// over the trailing window.
func (s *AnalyticsService) SalesTrends(ctx context.Context, actor *model.User, days int) (*SalesTrends, error) {
	if !actor.IsAdmin() {
		return nil, Permission("only admins can access sales trends")
	}
	if days <= 0 {
		days = 30
	}

	key := fmt.Sprintf("analytics:sales_trends:%d", days)
	return cached(ctx, s.rdb, key, func() (*SalesTrends, error) {
		since := time.Now().AddDate(0, 0, -days)

		daily, err := s.dailyBreakdown(ctx, "sale_date >= ?", since)
		if err != nil {
			return nil, err
		}

		perf := []CategoryPerformance{}
		err = s.db.WithContext(ctx).Raw(
			`SELECT c.name,
			        COALESCE(SUM(s.price_at_sale * s.quantity), 0) AS revenue,
			        COUNT(s.id) AS sale_count
			 FROM product_sales s
			 JOIN products p ON p.id = s.product_id
			 JOIN categories c ON c.id = p.category_id
			 WHERE s.sale_date >= ?
			 GROUP BY c.id, c.name
			 ORDER BY revenue DESC`, since).Scan(&perf).Error
		if err != nil {
			return nil, err
		}
		for i := range perf {
			perf[i].Revenue = perf[i].Revenue.Round(2)
		}

		return &SalesTrends{Daily: daily, CategoryPerformance: perf}, nil
	})
}
