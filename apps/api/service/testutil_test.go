package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go-storefront/apps/api/model"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// newTestDB opens a private in-memory database. A single pooled connection
// serializes writers, which keeps concurrent-transaction tests free of
// driver busy errors.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.ProductSale{},
		&model.EmailLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

var userSeq int64

func makeUser(t *testing.T, db *gorm.DB, role string) *model.User {
	t.Helper()
	n := atomic.AddInt64(&userSeq, 1)
	u := &model.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: "x",
		Role:     role,
	}
	if role == model.RoleSeller {
		u.StoreName = fmt.Sprintf("Store %d", n)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create %s user: %v", role, err)
	}
	return u
}

func makeCategory(t *testing.T, s *HierarchyService, name string, parentID *int64) *model.Category {
	t.Helper()
	cat, err := s.CreateCategory(context.Background(), CategoryInput{Name: name, ParentID: parentID})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return cat
}

var skuSeq int64

func makeProduct(t *testing.T, s *CatalogService, seller *model.User, categoryID int64, price string, stock int) *model.Product {
	t.Helper()
	n := atomic.AddInt64(&skuSeq, 1)
	p, err := s.CreateProduct(context.Background(), seller, ProductInput{
		Name:       fmt.Sprintf("Product %d", n),
		Price:      decimal.RequireFromString(price),
		Sku:        fmt.Sprintf("SKU-%d", n),
		CategoryID: categoryID,
		Stock:      stock,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// fakeEnqueuer records mail jobs instead of touching a broker.
type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []MailJob
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, job MailJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeEnqueuer) byType(emailType string) []MailJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MailJob
	for _, j := range f.jobs {
		if j.Type == emailType {
			out = append(out, j)
		}
	}
	return out
}

// fakeAssets hands back deterministic URLs without touching disk.
type fakeAssets struct {
	mu    sync.Mutex
	saved int
}

func (f *fakeAssets) Save(ext string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return fmt.Sprintf("/media/fake-%d%s", f.saved, ext), nil
}

// fakeTransport records deliveries and can be told to fail.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []string
	failWith string
}

func (f *fakeTransport) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != "" {
		return errors.New(f.failWith)
	}
	f.sent = append(f.sent, to+"|"+subject+"|"+body)
	return nil
}

func newCatalog(db *gorm.DB, enq Enqueuer) (*HierarchyService, *CatalogService) {
	hierarchy := NewHierarchyService(db)
	return hierarchy, NewCatalogService(db, hierarchy, &fakeAssets{}, enq)
}

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	if KindOf(err) != kind {
		t.Fatalf("wrong error kind %d (want %d): %v", KindOf(err), kind, err)
	}
}

func wantField(t *testing.T, err error, field string) {
	t.Helper()
	if !strings.EqualFold(FieldOf(err), field) {
		t.Fatalf("error names field %q, want %q: %v", FieldOf(err), field, err)
	}
}
