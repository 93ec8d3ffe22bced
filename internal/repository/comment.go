package repository

import (
	"context"
	"time"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// CommentQuery narrows the admin comment listing.
type CommentQuery struct {
	AuthorUsername string
	Created        *time.Time
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	List(ctx context.Context, q CommentQuery) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByPost returns a post's comments, newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *commentRepository) List(ctx context.Context, q CommentQuery) ([]*models.Comment, error) {
	var comments []*models.Comment
	tx := r.db.WithContext(ctx).Preload("Author").Preload("Post").Order("comments.id")
	if q.AuthorUsername != "" {
		tx = tx.Joins("JOIN users ON users.id = comments.author_id").
			Where("LOWER(users.username) LIKE LOWER(?)", "%"+q.AuthorUsername+"%")
	}
	if q.Created != nil {
		day := time.Date(q.Created.Year(), q.Created.Month(), q.Created.Day(), 0, 0, 0, 0, time.UTC)
		tx = tx.Where("comments.created >= ? AND comments.created < ?", day, day.AddDate(0, 0, 1))
	}
	if err := tx.Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
