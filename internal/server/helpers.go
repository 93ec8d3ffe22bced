package server

import (
	"context"
	"net/url"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter as a positive uint. Anything else is
// reported as NotFound so the 404 page is shown, as for an unknown ID.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Post", raw)
	}
	return uint(id), nil
}

func (s *Server) perPage() int {
	if s.config.PostsPerPage > 0 {
		return s.config.PostsPerPage
	}
	return pagination.DefaultPerPage
}

// postsPage paginates a post listing using the "page" query parameter.
func (s *Server) postsPage(c *fiber.Ctx, q repository.PostQuery) (*pagination.Page[*models.Post], error) {
	return pagination.Paginate(c.UserContext(), s.postRepo.Listing(q), c.Query("page"), s.perPage())
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// groupChoices lists the groups offered by the post form.
func (s *Server) groupChoices(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.Choices(ctx)
}

func (s *Server) maxImageBytes() int64 {
	return int64(s.config.ImageMaxUploadSizeMB) * 1024 * 1024
}
