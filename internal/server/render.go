package server

import (
	"errors"
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Template names understood by the front end.
const (
	TemplateIndex      = "posts/index.html"
	TemplateGroupList  = "posts/group_list.html"
	TemplateProfile    = "posts/profile.html"
	TemplatePostDetail = "posts/post_detail.html"
	TemplateCreatePost = "posts/create_post.html"
	TemplateFollow     = "posts/follow.html"
	TemplateLogin      = "users/login.html"
	TemplateSignup     = "users/signup.html"
	TemplateNotFound   = "core/404.html"
	TemplateServerErr  = "core/500.html"
)

// Page titles.
const (
	TitleIndex       = "Последние обновления на сайте"
	TitleFollowIndex = "Избранные авторы"
)

// View is the rendered response: a template name and its context.
type View struct {
	Template string    `json:"template"`
	Context  fiber.Map `json:"context"`
}

func (s *Server) render(c *fiber.Ctx, status int, template string, ctx fiber.Map) error {
	if ctx == nil {
		ctx = fiber.Map{}
	}
	ctx["media_url"] = s.media.URLPrefix()
	return c.Status(status).JSON(View{Template: template, Context: ctx})
}

// NotFound renders the 404 page for any unmatched route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusNotFound, TemplateNotFound, fiber.Map{"path": c.Path()})
}

// ErrorHandler maps handler errors to pages: missing resources render the
// 404 page, anonymous writes go to the login page, the rest is a 500.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return s.NotFound(c)
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return s.NotFound(c)
	case models.CodeUnauthorized:
		return redirectToLogin(c)
	case models.CodeForbidden:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return s.render(c, fiber.StatusInternalServerError, TemplateServerErr, nil)
}
