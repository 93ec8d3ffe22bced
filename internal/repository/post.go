package repository

import (
	"context"
	"time"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"

	"gorm.io/gorm"
)

// PostQuery narrows post listings. Zero values mean "no filter".
type PostQuery struct {
	GroupID uint
	// AuthorID limits to one author's posts.
	AuthorID uint
	// FollowerID limits to posts by authors the given user follows.
	FollowerID   uint
	TextContains string
	// PubDate limits to posts published on that calendar day (UTC).
	PubDate *time.Time
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	SetGroup(ctx context.Context, postID uint, groupID *uint) error
	Count(ctx context.Context, q PostQuery) (int64, error)
	List(ctx context.Context, q PostQuery, limit, offset int) ([]*models.Post, error)
	Listing(q PostQuery) pagination.Source[*models.Post]
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const postOrder = "posts.pub_date DESC, posts.id DESC"

const commentsCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count"

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Group").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select(commentsCountSelect).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

// Update persists text, group and image. Author and publication date never change.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) SetGroup(ctx context.Context, postID uint, groupID *uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Update("group_id", groupID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

func (r *postRepository) Count(ctx context.Context, q PostQuery) (int64, error) {
	var count int64
	if err := r.filtered(r.db.WithContext(ctx).Model(&models.Post{}), q).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *postRepository) List(ctx context.Context, q PostQuery, limit, offset int) ([]*models.Post, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "ListPosts", "posts")
	var posts []*models.Post
	err := r.filtered(r.db.WithContext(ctx).Model(&models.Post{}), q).
		Select(commentsCountSelect).
		Preload("Author").
		Preload("Group").
		Order(postOrder).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) filtered(tx *gorm.DB, q PostQuery) *gorm.DB {
	if q.GroupID != 0 {
		tx = tx.Where("posts.group_id = ?", q.GroupID)
	}
	if q.AuthorID != 0 {
		tx = tx.Where("posts.author_id = ?", q.AuthorID)
	}
	if q.FollowerID != 0 {
		tx = tx.Where("posts.author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", q.FollowerID))
	}
	if q.TextContains != "" {
		tx = tx.Where("LOWER(posts.text) LIKE LOWER(?)", "%"+q.TextContains+"%")
	}
	if q.PubDate != nil {
		day := time.Date(q.PubDate.Year(), q.PubDate.Month(), q.PubDate.Day(), 0, 0, 0, 0, time.UTC)
		tx = tx.Where("posts.pub_date >= ? AND posts.pub_date < ?", day, day.AddDate(0, 0, 1))
	}
	return tx
}

// Listing adapts a query to pagination.Source.
func (r *postRepository) Listing(q PostQuery) pagination.Source[*models.Post] {
	return postListing{repo: r, query: q}
}

type postListing struct {
	repo  *postRepository
	query PostQuery
}

func (l postListing) Count(ctx context.Context) (int64, error) {
	return l.repo.Count(ctx, l.query)
}

func (l postListing) Slice(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return l.repo.List(ctx, l.query, limit, offset)
}
