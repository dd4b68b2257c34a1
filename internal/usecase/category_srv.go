package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/data/repository"
	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/dto/response"
	"myvillage-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService interface {
	// Tree returns active categories nested under their parents.
	Tree(ctx context.Context) ([]response.CategoryResponse, error)
	// All returns every category, active or not, as a flat list.
	All(ctx context.Context) ([]response.CategoryResponse, error)
	Get(ctx context.Context, id string) (*response.CategoryResponse, error)
	Create(ctx context.Context, req *request.CategoryRequest) (*response.CategoryResponse, error)
	Update(ctx context.Context, id string, req *request.CategoryUpdateRequest) (*response.CategoryResponse, error)
	// Delete deactivates the category; children stay attached.
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCategoryService(repo *repository.Repository, log *zap.Logger) CategoryService {
	return &categoryService{
		repo: repo,
		log:  log.With(zap.String("service", "category")),
	}
}

func (s *categoryService) Tree(ctx context.Context) ([]response.CategoryResponse, error) {
	flat, err := s.repo.Category.FindAll(ctx, true)
	if err != nil {
		s.log.Error("Failed to load categories", zap.Error(err))
		return nil, fmt.Errorf("find categories: %w", err)
	}

	roots := BuildCategoryTree(flat)
	out := make([]response.CategoryResponse, 0, len(roots))
	for _, root := range roots {
		out = append(out, response.CategoryToResponse(root))
	}
	return out, nil
}

func (s *categoryService) All(ctx context.Context) ([]response.CategoryResponse, error) {
	flat, err := s.repo.Category.FindAll(ctx, false)
	if err != nil {
		s.log.Error("Failed to load categories", zap.Error(err))
		return nil, fmt.Errorf("find categories: %w", err)
	}

	out := make([]response.CategoryResponse, 0, len(flat))
	for _, c := range flat {
		out = append(out, response.CategoryToResponse(c))
	}
	return out, nil
}

func (s *categoryService) Get(ctx context.Context, id string) (*response.CategoryResponse, error) {
	category, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	flat, err := s.repo.Category.FindAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	for _, root := range BuildCategoryTree(flat) {
		if node := findNode(root, category.ID); node != nil {
			category.Children = node.Children
			break
		}
	}

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) Create(ctx context.Context, req *request.CategoryRequest) (*response.CategoryResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		parent, err := s.find(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}

	now := time.Now()
	category := &entity.Category{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:     strings.TrimSpace(req.Name),
		Icon:     trimmedPtr(req.Icon),
		ParentID: parentID,
		Order:    req.Order,
		IsActive: true,
	}

	if err := s.repo.Category.Create(ctx, category); err != nil {
		s.log.Error("Failed to create category", zap.Error(err))
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info("Category created", zap.String("id", category.ID.String()), zap.String("name", category.Name))
	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) Update(ctx context.Context, id string, req *request.CategoryUpdateRequest) (*response.CategoryResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	category, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case req.ClearParent:
		category.ParentID = nil
	case req.ParentID != nil:
		parent, err := s.find(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		all, err := s.repo.Category.FindAll(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("find categories: %w", err)
		}
		if CreatesCycle(all, category.ID, parent.ID) {
			return nil, ErrCategoryCycle
		}
		category.ParentID = &parent.ID
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Icon != nil {
		category.Icon = trimmedPtr(req.Icon)
	}
	if req.Order != nil {
		category.Order = *req.Order
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = time.Now()

	if err := s.repo.Category.Update(ctx, category); err != nil {
		s.log.Error("Failed to update category", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("update category: %w", err)
	}

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	category, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Category.Deactivate(ctx, category.ID); err != nil {
		s.log.Error("Failed to deactivate category", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("deactivate category: %w", err)
	}
	s.log.Info("Category deactivated", zap.String("id", id))
	return nil
}

func (s *categoryService) find(ctx context.Context, id string) (*entity.Category, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid category ID", ErrValidation)
	}
	category, err := s.repo.Category.FindByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return category, nil
}

// BuildCategoryTree nests a flat list under parents. Categories whose parent
// is not in the list become roots and keep their ParentID. Siblings are
// sorted by Order then Name. The input entities are not modified.
func BuildCategoryTree(flat []*entity.Category) []*entity.Category {
	nodes := make(map[uuid.UUID]*entity.Category, len(flat))
	for _, c := range flat {
		node := *c
		node.Children = nil
		nodes[c.ID] = &node
	}

	var roots []*entity.Category
	for _, c := range flat {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && *c.ParentID != c.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	// nodes in a cycle are unreachable from any root; promote one per cycle
	reached := make(map[uuid.UUID]bool, len(nodes))
	for _, root := range roots {
		markReached(root, reached)
	}
	for _, c := range flat {
		if reached[c.ID] {
			continue
		}
		node := nodes[c.ID]
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Children = removeChild(parent.Children, node.ID)
		}
		roots = append(roots, node)
		markReached(node, reached)
	}

	sortCategories(roots)
	return roots
}

// FlattenCategoryTree walks the tree depth first and returns every node
// without its children.
func FlattenCategoryTree(roots []*entity.Category) []*entity.Category {
	var out []*entity.Category
	var walk func(nodes []*entity.Category)
	walk = func(nodes []*entity.Category) {
		for _, n := range nodes {
			flat := *n
			flat.Children = nil
			out = append(out, &flat)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// CreatesCycle reports whether making parentID the parent of id would put id
// among its own ancestors.
func CreatesCycle(all []*entity.Category, id, parentID uuid.UUID) bool {
	parents := make(map[uuid.UUID]*uuid.UUID, len(all))
	for _, c := range all {
		parents[c.ID] = c.ParentID
	}

	seen := make(map[uuid.UUID]bool)
	for cur := &parentID; cur != nil; cur = parents[*cur] {
		if *cur == id {
			return true
		}
		if seen[*cur] {
			// existing cycle above, not introduced by this edge
			return false
		}
		seen[*cur] = true
	}
	return false
}

func sortCategories(nodes []*entity.Category) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortCategories(n.Children)
	}
}

func markReached(node *entity.Category, reached map[uuid.UUID]bool) {
	if reached[node.ID] {
		return
	}
	reached[node.ID] = true
	for _, child := range node.Children {
		markReached(child, reached)
	}
}

func removeChild(children []*entity.Category, id uuid.UUID) []*entity.Category {
	out := children[:0]
	for _, c := range children {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func findNode(node *entity.Category, id uuid.UUID) *entity.Category {
	if node.ID == id {
		return node
	}
	for _, child := range node.Children {
		if found := findNode(child, id); found != nil {
			return found
		}
	}
	return nil
}
