package service

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// AddComment attaches a comment by authorID to an existing post.
func (s *CommentService) AddComment(ctx context.Context, postID, authorID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if authorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     text,
		PostID:   postID,
		AuthorID: authorID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}

// ListComments returns a post's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}
