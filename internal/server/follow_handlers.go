package server

import (
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex handles GET /follow/: posts by authors the caller follows.
// Following nobody renders an empty page whatever page is asked for.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	userID := currentUserID(c)
	following, err := s.followRepo.CountFollowing(c.UserContext(), userID)
	if err != nil {
		return err
	}

	var page *pagination.Page[*models.Post]
	if following == 0 {
		page = pagination.Empty[*models.Post](s.perPage())
	} else {
		page, err = s.postsPage(c, repository.PostQuery{FollowerID: userID})
		if err != nil {
			return err
		}
	}

	return s.render(c, fiber.StatusOK, TemplateFollow, fiber.Map{
		"title":    TitleFollowIndex,
		"page_obj": page,
	})
}

// ProfileFollow handles GET /profile/:username/follow/. Following yourself
// or someone already followed changes nothing.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	if _, err := s.followService.Follow(ctx, currentUserID(c), author.ID); err != nil {
		return err
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /profile/:username/unfollow/. Unfollowing an
// author who is not followed is a 404.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	if err := s.followService.Unfollow(ctx, currentUserID(c), author.ID); err != nil {
		return err
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}
