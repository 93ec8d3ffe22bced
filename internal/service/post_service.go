package service

import (
	"context"
	"log/slog"

	"yatube/internal/featureflags"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

// PageInvalidator drops cached rendered pages.
type PageInvalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// IndexPath is the home page path; its paginated variants share the "/?" prefix.
const IndexPath = "/"

type PostService struct {
	postRepo repository.PostRepository
	media    *MediaStore
	pages    PageInvalidator
	flags    *featureflags.Manager
}

func NewPostService(
	postRepo repository.PostRepository,
	media *MediaStore,
	pages PageInvalidator,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		media:    media,
		pages:    pages,
		flags:    flags,
	}
}

// GetPost loads a post with author, group and comment count.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// CanEdit reports whether userID may edit post.
func CanEdit(post *models.Post, userID uint) bool {
	return post != nil && userID != 0 && post.AuthorID == userID
}

// CreatePost publishes a post from validated form data.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in forms.PostCleaned) (*models.Post, error) {
	if authorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	post := &models.Post{
		Text:     in.Text,
		AuthorID: authorID,
	}
	if in.Group != nil {
		groupID := in.Group.ID
		post.GroupID = &groupID
	}
	if in.Image != nil {
		rel, err := s.media.SavePostImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = rel
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		_ = s.media.Remove(post.Image)
		return nil, err
	}

	observability.PostsCreated.Inc()
	s.invalidateIndex(ctx)
	return post, nil
}

// UpdatePost applies validated form data to post. Only the author may edit;
// an omitted image keeps the stored one.
func (s *PostService) UpdatePost(ctx context.Context, userID uint, post *models.Post, in forms.PostCleaned) error {
	if !CanEdit(post, userID) {
		return models.NewForbiddenError("You can only edit your own posts")
	}

	post.Text = in.Text
	post.GroupID = nil
	post.Group = in.Group
	if in.Group != nil {
		groupID := in.Group.ID
		post.GroupID = &groupID
	}

	previousImage := post.Image
	if in.Image != nil {
		rel, err := s.media.SavePostImage(ctx, in.Image)
		if err != nil {
			return err
		}
		post.Image = rel
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != previousImage {
			_ = s.media.Remove(post.Image)
			post.Image = previousImage
		}
		return err
	}

	observability.PostsEdited.Inc()
	s.invalidateIndex(ctx)
	return nil
}

func (s *PostService) invalidateIndex(ctx context.Context) {
	if s.pages == nil || !s.flags.On(featureflags.IndexCacheInvalidate) {
		return
	}
	err := s.pages.Invalidate(ctx, IndexPath)
	if err == nil {
		err = s.pages.InvalidatePrefix(ctx, IndexPath+"?")
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to invalidate index page cache", slog.String("error", err.Error()))
	}
}
