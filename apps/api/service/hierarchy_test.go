package service

import (
	"context"
	"testing"

	"go-storefront/apps/api/model"
)

func TestCreateCategorySlugSuffixOnCollision(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)
	ctx := context.Background()

	// Distinct names that slugify to the same base.
	first := makeCategory(t, s, "Books", nil)
	second := makeCategory(t, s, "Books!", nil)

	if first.Slug != "books" {
		t.Fatalf("first slug = %q, want %q", first.Slug, "books")
	}
	if second.Slug != "books-1" {
		t.Fatalf("second slug = %q, want %q", second.Slug, "books-1")
	}

	third, err := s.CreateCategory(ctx, CategoryInput{Name: "books?"})
	if err != nil {
		t.Fatalf("create third colliding category: %v", err)
	}
	if third.Slug != "books-2" {
		t.Fatalf("third slug = %q, want %q", third.Slug, "books-2")
	}
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)

	makeCategory(t, s, "Electronics", nil)
	_, err := s.CreateCategory(context.Background(), CategoryInput{Name: "Electronics"})
	wantKind(t, err, KindConflict)
	wantField(t, err, "name")
}

func TestCreateCategoryMissingParent(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)

	missing := int64(999)
	_, err := s.CreateCategory(context.Background(), CategoryInput{Name: "Orphan", ParentID: &missing})
	wantKind(t, err, KindNotFound)
}

func TestFullPathRootToLeaf(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)
	ctx := context.Background()

	root := makeCategory(t, s, "Electronics", nil)
	mid := makeCategory(t, s, "Computers", &root.ID)
	leaf := makeCategory(t, s, "Laptops", &mid.ID)

	path, err := s.FullPath(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("full path: %v", err)
	}
	want := []string{"Electronics", "Computers", "Laptops"}
	if len(path) != len(want) {
		t.Fatalf("path length = %d, want %d (%v)", len(path), len(want), path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path[%d] = %q, want %q", i, path[i], want[i])
		}
	}
}

func TestFullPathDetectsCycle(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)
	ctx := context.Background()

	a := makeCategory(t, s, "A", nil)
	b := makeCategory(t, s, "B", &a.ID)

	// Corrupt the chain behind the service's back: A -> B -> A.
	if err := db.Model(&model.Category{}).Where("id = ?", a.ID).Update("parent_id", b.ID).Error; err != nil {
		t.Fatalf("corrupt hierarchy: %v", err)
	}

	_, err := s.FullPath(ctx, b.ID)
	wantKind(t, err, KindCorruptHierarchy)
}

func TestUpdateCategoryRefusesCycle(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)
	ctx := context.Background()

	root := makeCategory(t, s, "Root", nil)
	child := makeCategory(t, s, "Child", &root.ID)
	grandchild := makeCategory(t, s, "Grandchild", &child.ID)

	_, err := s.UpdateCategory(ctx, root.ID, CategoryInput{ParentID: &grandchild.ID})
	wantKind(t, err, KindValidation)
	wantField(t, err, "parent_id")

	_, err = s.UpdateCategory(ctx, root.ID, CategoryInput{ParentID: &root.ID})
	wantKind(t, err, KindValidation)
}

func TestCollectDescendants(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)
	ctx := context.Background()

	root := makeCategory(t, s, "Electronics", nil)
	phones := makeCategory(t, s, "Phones", &root.ID)
	makeCategory(t, s, "Smartphones", &phones.ID)
	makeCategory(t, s, "Audio", &root.ID)
	makeCategory(t, s, "Unrelated", nil)

	descendants, err := s.CollectDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("collect descendants: %v", err)
	}
	if len(descendants) != 3 {
		t.Fatalf("descendant count = %d, want 3", len(descendants))
	}
	for _, d := range descendants {
		if d.Name == "Unrelated" || d.ID == root.ID {
			t.Fatalf("descendants include unexpected category %q", d.Name)
		}
	}

	ids, err := s.SubtreeIDs(ctx, root.ID)
	if err != nil {
		t.Fatalf("subtree ids: %v", err)
	}
	if len(ids) != 4 || ids[0] != root.ID {
		t.Fatalf("subtree ids = %v, want root first and 4 total", ids)
	}
}

func TestDeleteCategoryCascadesSubtree(t *testing.T) {
	db := newTestDB(t)
	enq := &fakeEnqueuer{}
	hierarchy, catalog := newCatalog(db, enq)
	ctx := context.Background()

	seller := makeUser(t, db, model.RoleSeller)
	root := makeCategory(t, hierarchy, "Electronics", nil)
	phones := makeCategory(t, hierarchy, "Phones", &root.ID)
	other := makeCategory(t, hierarchy, "Furniture", nil)

	inTree := makeProduct(t, catalog, seller, phones.ID, "99.99", 50)
	outside := makeProduct(t, catalog, seller, other.ID, "10.00", 5)

	img := model.ProductImage{ProductID: inTree.ID, ImageURL: "/media/x.jpg"}
	if err := db.Create(&img).Error; err != nil {
		t.Fatalf("create image: %v", err)
	}

	if err := hierarchy.DeleteCategory(ctx, root.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	var cats, products, images int64
	db.Model(&model.Category{}).Count(&cats)
	db.Model(&model.Product{}).Count(&products)
	db.Model(&model.ProductImage{}).Count(&images)
	if cats != 1 {
		t.Fatalf("categories left = %d, want 1", cats)
	}
	if products != 1 {
		t.Fatalf("products left = %d, want 1", products)
	}
	if images != 0 {
		t.Fatalf("images left = %d, want 0", images)
	}

	var survivor model.Product
	if err := db.First(&survivor, outside.ID).Error; err != nil {
		t.Fatalf("product outside subtree was deleted: %v", err)
	}
}

func TestDeleteCategoryMissing(t *testing.T) {
	db := newTestDB(t)
	s := NewHierarchyService(db)

	err := s.DeleteCategory(context.Background(), 12345)
	wantKind(t, err, KindNotFound)
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Video Games", "video-games"},
		{"Books & Magazines", "books-magazines"},
		{"  Trimmed  ", "trimmed"},
		{"Électronique", "lectronique"},
	}
	for _, c := range cases {
		if got := slugify(c.in); got != c.want {
			t.Fatalf("slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
