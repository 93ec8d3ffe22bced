package repository

import (
	"context"

	"yatube/internal/cache"
	"yatube/internal/models"

	"gorm.io/gorm"
)

// GroupQuery narrows group listings.
type GroupQuery struct {
	TitleContains string
	Slug          string
}

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	Choices(ctx context.Context) ([]models.Group, error)
	List(ctx context.Context, q GroupQuery) ([]models.Group, error)
	Create(ctx context.Context, group *models.Group) error
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, lookupError(err, "Group", id)
	}
	return &group, nil
}

func (r *groupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := cache.Aside(ctx, cache.GroupKey(slug), &group, cache.GroupTTL, func() error {
		if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error; err != nil {
			return lookupError(err, "Group", slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Choices returns every group ordered by title, for the post form select.
func (r *groupRepository) Choices(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := cache.Aside(ctx, cache.GroupChoicesKey, &groups, cache.GroupChoicesTTL, func() error {
		if err := r.db.WithContext(ctx).Order("title, id").Find(&groups).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) List(ctx context.Context, q GroupQuery) ([]models.Group, error) {
	var groups []models.Group
	tx := r.db.WithContext(ctx).Order("id")
	if q.TitleContains != "" {
		tx = tx.Where("LOWER(title) LIKE LOWER(?)", "%"+q.TitleContains+"%")
	}
	if q.Slug != "" {
		tx = tx.Where("slug = ?", q.Slug)
	}
	if err := tx.Find(&groups).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return groups, nil
}

func (r *groupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return writeError(err, "Group with this slug already exists")
	}
	cache.InvalidateGroup(ctx, group.Slug)
	return nil
}
