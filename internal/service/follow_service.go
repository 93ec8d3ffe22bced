package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
}

func NewFollowService(followRepo repository.FollowRepository) *FollowService {
	return &FollowService{followRepo: followRepo}
}

// IsFollowing reports whether userID follows authorID. Anonymous callers follow nobody.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

// Follow creates the edge userID -> authorID. Following yourself or an
// author already followed changes nothing and is not an error; created
// reports whether a new edge was stored.
func (s *FollowService) Follow(ctx context.Context, userID, authorID uint) (created bool, err error) {
	if userID == authorID {
		return false, nil
	}
	exists, err := s.followRepo.Exists(ctx, userID, authorID)
	if err != nil || exists {
		return false, err
	}

	err = s.followRepo.Create(ctx, &models.Follow{UserID: userID, AuthorID: authorID})
	if models.IsValidation(err) {
		// lost a race with a concurrent identical follow
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.RecordFollow("follow")
	return true, nil
}

// Unfollow removes the edge userID -> authorID; a missing edge is NotFound.
func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uint) error {
	if err := s.followRepo.Delete(ctx, userID, authorID); err != nil {
		return err
	}
	observability.RecordFollow("unfollow")
	return nil
}
