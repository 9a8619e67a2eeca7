package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go-storefront/apps/api/model"

	"gorm.io/gorm"
)

// maxTreeDepth bounds parent-chain walks. A chain this long only exists if
// the data is corrupt.
const maxTreeDepth = 100

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// HierarchyService owns the category tree: creation with unique slugs,
// parent-chain walks and subtree traversal.
type HierarchyService struct {
	db *gorm.DB
}

func NewHierarchyService(db *gorm.DB) *HierarchyService {
	return &HierarchyService{db: db}
}

type CategoryInput struct {
	Name        string
	Description string
	ParentID    *int64
	IsActive    *bool
}

// slugify lowercases and dashifies a name: "Video Games" -> "video-games".
func slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// CreateCategory creates a category with a slug derived from the name. On
// slug collision a numeric suffix is appended: books, books-1, books-2. The
// unique index on slug is the backstop against concurrent creators; losing
// the race moves on to the next candidate.
func (s *HierarchyService) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, Validation("name", "name is required")
	}

	var cnt int64
	s.db.WithContext(ctx).Model(&model.Category{}).Where("name = ?", in.Name).Count(&cnt)
	if cnt > 0 {
		return nil, Conflict("name", "category %q already exists", in.Name)
	}

	if in.ParentID != nil {
		var parent model.Category
		if err := s.db.WithContext(ctx).First(&parent, *in.ParentID).Error; err != nil {
			return nil, NotFound("parent category")
		}
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	base := slugify(in.Name)
	if base == "" {
		base = "category"
	}

	for i := 0; i < maxTreeDepth; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		var taken int64
		s.db.WithContext(ctx).Model(&model.Category{}).Where("slug = ?", candidate).Count(&taken)
		if taken > 0 {
			continue
		}

		cat := &model.Category{
			Name:        in.Name,
			Slug:        candidate,
			Description: in.Description,
			ParentID:    in.ParentID,
			IsActive:    active,
		}
		err := s.db.WithContext(ctx).Create(cat).Error
		if err == nil {
			return cat, nil
		}
		if isDuplicateErr(err) {
			// Lost the slug race to a concurrent creator, try the next suffix.
			continue
		}
		return nil, err
	}

	return nil, Conflict("slug", "could not derive a unique slug for %q", in.Name)
}

// UpdateCategory changes mutable fields. Re-parenting is refused when the
// new parent's own chain passes through this category.
func (s *HierarchyService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*model.Category, error) {
	var cat model.Category
	if err := s.db.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, NotFound("category")
	}

	updates := map[string]interface{}{}
	if strings.TrimSpace(in.Name) != "" && in.Name != cat.Name {
		var cnt int64
		s.db.WithContext(ctx).Model(&model.Category{}).Where("name = ? AND id <> ?", in.Name, id).Count(&cnt)
		if cnt > 0 {
			return nil, Conflict("name", "category %q already exists", in.Name)
		}
		updates["name"] = in.Name
	}
	if in.Description != "" {
		updates["description"] = in.Description
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, Validation("parent_id", "category cannot be its own parent")
		}
		var parent model.Category
		if err := s.db.WithContext(ctx).First(&parent, *in.ParentID).Error; err != nil {
			return nil, NotFound("parent category")
		}
		ok, err := s.chainClearOf(ctx, &parent, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, Validation("parent_id", "parent chain would form a cycle")
		}
		updates["parent_id"] = *in.ParentID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&cat).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &cat, nil
}

// chainClearOf reports whether walking up from cat never reaches forbidden.
func (s *HierarchyService) chainClearOf(ctx context.Context, cat *model.Category, forbidden int64) (bool, error) {
	cur := cat
	for depth := 0; cur.ParentID != nil; depth++ {
		if depth > maxTreeDepth {
			return false, ErrCorruptHierarchy
		}
		if *cur.ParentID == forbidden {
			return false, nil
		}
		var next model.Category
		if err := s.db.WithContext(ctx).First(&next, *cur.ParentID).Error; err != nil {
			return false, NotFound("parent category")
		}
		cur = &next
	}
	return true, nil
}

// GetCategory loads one category by id.
func (s *HierarchyService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var cat model.Category
	if err := s.db.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, NotFound("category")
	}
	return &cat, nil
}

// ListCategories returns the flat category list. Non-staff viewers only see
// active categories.
func (s *HierarchyService) ListCategories(ctx context.Context, viewer *model.User) ([]model.Category, error) {
	q := s.db.WithContext(ctx).Order("name asc")
	if viewer == nil || !viewer.IsAdmin() {
		q = q.Where("is_active = ?", true)
	}
	var cats []model.Category
	if err := q.Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

// FullPath walks parent references up to the root and returns names in
// root-to-leaf order. A visited set guards against corrupt data looping.
func (s *HierarchyService) FullPath(ctx context.Context, id int64) ([]string, error) {
	var cat model.Category
	if err := s.db.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, NotFound("category")
	}

	seen := map[int64]bool{cat.ID: true}
	names := []string{cat.Name}
	cur := cat
	for cur.ParentID != nil {
		var parent model.Category
		if err := s.db.WithContext(ctx).First(&parent, *cur.ParentID).Error; err != nil {
			return nil, NotFound("parent category")
		}
		if seen[parent.ID] || len(names) > maxTreeDepth {
			return nil, ErrCorruptHierarchy
		}
		seen[parent.ID] = true
		names = append(names, parent.Name)
		cur = parent
	}

	// Reverse in place: collected leaf-to-root, callers want root-to-leaf.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

// CollectDescendants returns every category below id, depth first.
func (s *HierarchyService) CollectDescendants(ctx context.Context, id int64) ([]model.Category, error) {
	seen := map[int64]bool{id: true}
	var out []model.Category

	var walk func(parentID int64, depth int) error
	walk = func(parentID int64, depth int) error {
		if depth > maxTreeDepth {
			return ErrCorruptHierarchy
		}
		var children []model.Category
		if err := s.db.WithContext(ctx).Where("parent_id = ?", parentID).Find(&children).Error; err != nil {
			return err
		}
		for _, c := range children {
			if seen[c.ID] {
				return ErrCorruptHierarchy
			}
			seen[c.ID] = true
			out = append(out, c)
			if err := walk(c.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(id, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// SubtreeIDs returns the ids of a category and all of its descendants.
func (s *HierarchyService) SubtreeIDs(ctx context.Context, id int64) ([]int64, error) {
	descendants, err := s.CollectDescendants(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(descendants)+1)
	ids = append(ids, id)
	for _, d := range descendants {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// DeleteCategory removes a category, its subcategories and their products
// in one transaction.
func (s *HierarchyService) DeleteCategory(ctx context.Context, id int64) error {
	ids, err := s.SubtreeIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(ids) == 1 {
		if _, err := s.GetCategory(ctx, id); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []int64
		if err := tx.Model(&model.Product{}).Where("category_id IN ?", ids).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) > 0 {
			if err := tx.Where("product_id IN ?", productIDs).Delete(&model.ProductImage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", productIDs).Delete(&model.Product{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", ids).Delete(&model.Category{}).Error
	})
}

// isDuplicateErr matches unique-constraint violations across mysql and the
// sqlite driver the tests run on.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
