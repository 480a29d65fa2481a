package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const categoryTreeCacheKey = "categories:tree"

// CategoryService serves the category tree. The tree changes rarely and is
// read on every submission form, so it is cached in redis.
type CategoryService struct {
	db     *pgxpool.Pool
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewCategoryService creates a new category service. cache may be nil, in
// which case every read hits the database.
func NewCategoryService(db *pgxpool.Pool, cache *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *CategoryService {
	return &CategoryService{db: db, cache: cache, ttl: ttl, logger: logger}
}

// Tree returns the ordered category tree with full display paths.
func (s *CategoryService) Tree(ctx context.Context) ([]models.Category, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, categoryTreeCacheKey).Bytes(); err == nil {
			var tree []models.Category
			if err := json.Unmarshal(raw, &tree); err == nil {
				return tree, nil
			}
		}
	}

	tree, err := s.loadTree(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(tree); err == nil {
			if err := s.cache.Set(ctx, categoryTreeCacheKey, raw, s.ttl).Err(); err != nil {
				s.logger.Warnw("Failed to cache category tree", "error", err)
			}
		}
	}
	return tree, nil
}

// Leaves returns the selectable leaf categories (sentinels handled per
// models.SelectableLeaves).
func (s *CategoryService) Leaves(ctx context.Context) ([]models.Category, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return models.SelectableLeaves(tree), nil
}

// Invalidate drops the cached tree after an administrative change.
func (s *CategoryService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, categoryTreeCacheKey).Err(); err != nil {
		s.logger.Warnw("Failed to invalidate category cache", "error", err)
	}
}

func (s *CategoryService) loadTree(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, c.parent_id, c.department_id, COALESCE(d.name, '')
		FROM categories c
		LEFT JOIN departments d ON d.id = c.department_id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	var flat []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.DepartmentID, &c.DepartmentName); err != nil {
			continue
		}
		flat = append(flat, c)
	}
	return BuildCategoryTree(flat), nil
}

// BuildCategoryTree assembles a flat category list into its tree and fills
// in each node's full display path ("Parent -> Child"). Order within a level
// follows the input order.
func BuildCategoryTree(flat []models.Category) []models.Category {
	children := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	var attach func(node models.Category, path string) models.Category
	attach = func(node models.Category, path string) models.Category {
		if path == "" {
			node.FullPath = node.Name
		} else {
			node.FullPath = path + " -> " + node.Name
		}
		for _, child := range children[node.ID] {
			node.Subcategories = append(node.Subcategories, attach(child, node.FullPath))
		}
		return node
	}

	out := make([]models.Category, 0, len(roots))
	for _, r := range roots {
		out = append(out, attach(r, ""))
	}
	return out
}
