package server

import (
	"log/slog"

	"yatube/internal/cache"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /: every post, newest first. Whole responses are cached
// per request path (query included) and served as is until they expire.
func (s *Server) Index(c *fiber.Ctx) error {
	ctx := c.UserContext()
	key := c.OriginalURL()

	if cached, ok := s.pageCache.Get(ctx, key); ok {
		c.Set(fiber.HeaderContentType, cached.ContentType)
		return c.Status(cached.Status).Send(cached.Body)
	}

	page, err := s.postsPage(c, repository.PostQuery{})
	if err != nil {
		return err
	}
	if err := s.render(c, fiber.StatusOK, TemplateIndex, fiber.Map{
		"title":    TitleIndex,
		"page_obj": page,
	}); err != nil {
		return err
	}

	entry := &cache.CachedPage{
		Status:      fiber.StatusOK,
		ContentType: string(c.Response().Header.ContentType()),
		Body:        append([]byte(nil), c.Response().Body()...),
	}
	if err := s.pageCache.Set(ctx, key, entry); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to cache index page", slog.String("error", err.Error()))
	}
	return nil
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, err := s.groupRepo.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	page, err := s.postsPage(c, repository.PostQuery{GroupID: group.ID})
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, TemplateGroupList, fiber.Map{
		"group":    group,
		"page_obj": page,
	})
}

// Profile handles GET /profile/:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	author, err := s.userService.GetByUsername(ctx, c.Params("username"))
	if err != nil {
		return err
	}
	page, err := s.postsPage(c, repository.PostQuery{AuthorID: author.ID})
	if err != nil {
		return err
	}
	following, err := s.followService.IsFollowing(ctx, currentUserID(c), author.ID)
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, TemplateProfile, fiber.Map{
		"author":      author,
		"full_name":   author.FullName(),
		"page_obj":    page,
		"posts_count": page.Count,
		"following":   following,
	})
}

// PostDetail handles GET /posts/:id/
func (s *Server) PostDetail(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ListComments(ctx, post.ID)
	if err != nil {
		return err
	}
	page, err := s.postsPage(c, repository.PostQuery{AuthorID: post.AuthorID})
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, TemplatePostDetail, fiber.Map{
		"post":        post,
		"title":       post.String(),
		"comments":    comments,
		"form":        forms.NewCommentForm().Context(),
		"is_edit":     service.CanEdit(post, currentUserID(c)),
		"page_obj":    page,
		"posts_count": page.Count,
	})
}

// bindPostForm fills form from the submitted fields and optional image.
func (s *Server) bindPostForm(c *fiber.Ctx, form *forms.PostForm) error {
	var data forms.PostData
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	var upload *forms.Upload
	// an untouched file input arrives as a part with no name and no content
	if fh, err := c.FormFile("image"); err == nil && (fh.Filename != "" || fh.Size > 0) {
		upload, err = forms.ReadUpload(fh, s.maxImageBytes())
		if err != nil {
			return err
		}
	}

	form.MaxImageBytes = s.maxImageBytes()
	form.Bind(data, upload)
	return nil
}

// PostCreate handles GET|POST /create/
func (s *Server) PostCreate(c *fiber.Ctx) error {
	ctx := c.UserContext()
	choices, err := s.groupChoices(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(nil, choices)

	if c.Method() == fiber.MethodPost {
		if err := s.bindPostForm(c, form); err != nil {
			return err
		}
		valid, err := form.Validate(ctx, s.groupRepo)
		if err != nil {
			return err
		}
		if valid {
			userID := currentUserID(c)
			author, err := s.userService.GetByID(ctx, userID)
			if err != nil {
				return err
			}
			if _, err := s.postService.CreatePost(ctx, userID, form.Cleaned()); err != nil {
				return err
			}
			return c.Redirect(profileURL(author.Username), fiber.StatusFound)
		}
	}

	return s.render(c, fiber.StatusOK, TemplateCreatePost, fiber.Map{
		"form":    form.Context(),
		"is_edit": false,
	})
}

// PostEdit handles GET|POST /posts/:id/edit/. Anyone but the author is
// sent back to the post without a message.
func (s *Server) PostEdit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}
	userID := currentUserID(c)
	if !service.CanEdit(post, userID) {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	choices, err := s.groupChoices(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(post, choices)

	if c.Method() == fiber.MethodPost {
		if err := s.bindPostForm(c, form); err != nil {
			return err
		}
		valid, err := form.Validate(ctx, s.groupRepo)
		if err != nil {
			return err
		}
		if valid {
			if err := s.postService.UpdatePost(ctx, userID, post, form.Cleaned()); err != nil {
				return err
			}
			return c.Redirect(postURL(post.ID), fiber.StatusFound)
		}
	}

	return s.render(c, fiber.StatusOK, TemplateCreatePost, fiber.Map{
		"form":    form.Context(),
		"is_edit": true,
		"post":    post,
	})
}

// AddComment handles /posts/:id/comment/. It always redirects to the post;
// an invalid comment is dropped without a message.
func (s *Server) AddComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if c.Method() == fiber.MethodPost {
		var data forms.CommentData
		if err := c.BodyParser(&data); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		form := forms.NewCommentForm().Bind(data)
		if form.Validate() {
			if _, err := s.commentService.AddComment(ctx, post.ID, currentUserID(c), form.Data.Text); err != nil {
				return err
			}
		}
	}

	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}
