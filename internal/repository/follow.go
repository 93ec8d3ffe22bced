package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// FollowQuery narrows the admin follow listing.
type FollowQuery struct {
	// Username matches either side of the edge.
	Username string
	UserID   uint
}

// FollowRepository defines persistence operations for follow edges.
type FollowRepository interface {
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, userID, authorID uint) error
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	List(ctx context.Context, q FollowQuery) ([]*models.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Create inserts the edge; an existing (user, author) pair is a validation error.
func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Omit("User", "Author").Create(follow).Error; err != nil {
		return writeError(err, "Already following this author")
	}
	return nil
}

// Delete removes the edge; a missing edge is NotFound.
func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Follow", authorID)
	}
	return nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "user_id = ?", userID)
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return r.count(ctx, "author_id = ?", authorID)
}

func (r *followRepository) count(ctx context.Context, where string, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(where, id).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) List(ctx context.Context, q FollowQuery) ([]*models.Follow, error) {
	var follows []*models.Follow
	tx := r.db.WithContext(ctx).Preload("User").Preload("Author").Order("follows.id")
	if q.Username != "" {
		like := "%" + q.Username + "%"
		tx = tx.Joins("JOIN users u ON u.id = follows.user_id").
			Joins("JOIN users a ON a.id = follows.author_id").
			Where("LOWER(u.username) LIKE LOWER(?) OR LOWER(a.username) LIKE LOWER(?)", like, like)
	}
	if q.UserID != 0 {
		tx = tx.Where("follows.user_id = ?", q.UserID)
	}
	if err := tx.Find(&follows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return follows, nil
}
