package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yatube/internal/featureflags"
	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) SetGroup(context.Context, uint, *uint) error { return nil }
func (s *postRepoStub) Count(context.Context, repository.PostQuery) (int64, error) {
	return 0, nil
}
func (s *postRepoStub) List(context.Context, repository.PostQuery, int, int) ([]*models.Post, error) {
	return nil, nil
}
func (s *postRepoStub) Listing(repository.PostQuery) pagination.Source[*models.Post] {
	return pagination.FromSlice[*models.Post](nil)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return nil, models.NewNotFoundError("Post", id)
		},
		updateFn: func(context.Context, *models.Post) error { return nil },
	}
}

type pageInvalidatorStub struct {
	paths    []string
	prefixes []string
}

func (p *pageInvalidatorStub) Invalidate(_ context.Context, paths ...string) error {
	p.paths = append(p.paths, paths...)
	return nil
}

func (p *pageInvalidatorStub) InvalidatePrefix(_ context.Context, prefix string) error {
	p.prefixes = append(p.prefixes, prefix)
	return nil
}

func gifUpload() *forms.Upload {
	return &forms.Upload{Filename: "small.gif", ContentType: "image/gif", Content: testutil.SmallGIF, Format: "gif"}
}

func TestMediaStore_SavePostImage(t *testing.T) {
	root := t.TempDir()
	store := NewMediaStore(root, "/media")

	rel, err := store.SavePostImage(context.Background(), gifUpload())
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", rel)

	data, err := os.ReadFile(filepath.Join(root, "posts", "small.gif"))
	require.NoError(t, err)
	assert.Equal(t, testutil.SmallGIF, data)

	second, err := store.SavePostImage(context.Background(), gifUpload())
	require.NoError(t, err)
	assert.NotEqual(t, rel, second)
	assert.True(t, strings.HasPrefix(second, "posts/small_"))
	assert.True(t, strings.HasSuffix(second, ".gif"))

	assert.Equal(t, "/media/posts/small.gif", store.URL(rel))
	assert.Equal(t, "", store.URL(""))

	require.NoError(t, store.Remove(rel))
	require.NoError(t, store.Remove(rel))
	_, err = os.Stat(filepath.Join(root, "posts", "small.gif"))
	assert.True(t, os.IsNotExist(err))

	_, err = store.SavePostImage(context.Background(), &forms.Upload{Filename: "x.gif"})
	assert.True(t, models.IsValidation(err))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd", ""))
	assert.Equal(t, "evil.png", sanitizeFilename(`C:\temp\evil.png`, "png"))
	assert.Equal(t, "my_photo.jpg", sanitizeFilename("my photo.jpg", "jpeg"))
	assert.Equal(t, "image.gif", sanitizeFilename("", "gif"))
	assert.Equal(t, "upload.webp", sanitizeFilename("upload", "webp"))
}

func TestPostService_CreatePost(t *testing.T) {
	repo := noopPostRepo()
	var stored *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 42
		stored = p
		return nil
	}
	pages := &pageInvalidatorStub{}
	svc := NewPostService(repo, NewMediaStore(t.TempDir(), "/media/"), pages, featureflags.NewManager(""))

	group := &models.Group{ID: 3, Slug: "test-slug"}
	post, err := svc.CreatePost(context.Background(), 7, forms.PostCleaned{Text: "Тестовый текст", Group: group, Image: gifUpload()})
	require.NoError(t, err)

	assert.Equal(t, uint(42), post.ID)
	assert.Same(t, stored, post)
	assert.Equal(t, uint(7), post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, uint(3), *post.GroupID)
	assert.Equal(t, "posts/small.gif", post.Image)
	assert.Empty(t, pages.paths, "index cache is not invalidated unless the flag is on")

	_, err = svc.CreatePost(context.Background(), 0, forms.PostCleaned{Text: "x"})
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestPostService_CreatePostRemovesImageOnFailure(t *testing.T) {
	root := t.TempDir()
	repo := noopPostRepo()
	repo.createFn = func(context.Context, *models.Post) error {
		return models.NewInternalError(errors.New("db down"))
	}
	svc := NewPostService(repo, NewMediaStore(root, "/media/"), nil, nil)

	_, err := svc.CreatePost(context.Background(), 1, forms.PostCleaned{Text: "x", Image: gifUpload()})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "posts"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostService_InvalidatesIndexWhenFlagOn(t *testing.T) {
	pages := &pageInvalidatorStub{}
	svc := NewPostService(noopPostRepo(), NewMediaStore(t.TempDir(), "/media/"), pages,
		featureflags.NewManager(featureflags.IndexCacheInvalidate+"=on"))

	post, err := svc.CreatePost(context.Background(), 1, forms.PostCleaned{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, pages.paths)
	assert.Equal(t, []string{"/?"}, pages.prefixes)

	require.NoError(t, svc.UpdatePost(context.Background(), 1, post, forms.PostCleaned{Text: "y"}))
	assert.Len(t, pages.paths, 2)
}

func TestPostService_UpdatePost(t *testing.T) {
	groupID := uint(3)
	newPost := func() *models.Post {
		return &models.Post{ID: 5, Text: "old", AuthorID: 1, GroupID: &groupID, Image: "posts/old.gif"}
	}

	t.Run("non author is forbidden and nothing changes", func(t *testing.T) {
		repo := noopPostRepo()
		updated := false
		repo.updateFn = func(context.Context, *models.Post) error {
			updated = true
			return nil
		}
		svc := NewPostService(repo, NewMediaStore(t.TempDir(), "/media/"), nil, nil)

		post := newPost()
		err := svc.UpdatePost(context.Background(), 2, post, forms.PostCleaned{Text: "hijacked"})
		assert.True(t, models.IsForbidden(err))
		assert.False(t, updated)
		assert.Equal(t, "old", post.Text)
	})

	t.Run("author edits text and clears group, image kept", func(t *testing.T) {
		var saved *models.Post
		repo := noopPostRepo()
		repo.updateFn = func(_ context.Context, p *models.Post) error {
			saved = p
			return nil
		}
		svc := NewPostService(repo, NewMediaStore(t.TempDir(), "/media/"), nil, nil)

		post := newPost()
		require.NoError(t, svc.UpdatePost(context.Background(), 1, post, forms.PostCleaned{Text: "new"}))
		require.NotNil(t, saved)
		assert.Equal(t, "new", saved.Text)
		assert.Nil(t, saved.GroupID)
		assert.Equal(t, "posts/old.gif", saved.Image)
	})

	t.Run("new image replaces stored one", func(t *testing.T) {
		svc := NewPostService(noopPostRepo(), NewMediaStore(t.TempDir(), "/media/"), nil, nil)
		post := newPost()
		require.NoError(t, svc.UpdatePost(context.Background(), 1, post, forms.PostCleaned{Text: "new", Image: gifUpload()}))
		assert.Equal(t, "posts/small.gif", post.Image)
	})
}

func TestCanEdit(t *testing.T) {
	post := &models.Post{AuthorID: 1}
	assert.True(t, CanEdit(post, 1))
	assert.False(t, CanEdit(post, 2))
	assert.False(t, CanEdit(post, 0))
	assert.False(t, CanEdit(nil, 1))
}

type serviceFixture struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository
}

func setupServiceTestDB(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &serviceFixture{
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		follows:  repository.NewFollowRepository(db),
	}
}

func (f *serviceFixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestFollowService(t *testing.T) {
	f := setupServiceTestDB(t)
	svc := NewFollowService(f.follows)
	ctx := context.Background()
	reader := f.user(t, "reader")
	leo := f.user(t, "leo")

	created, err := svc.Follow(ctx, reader.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, created, "self-follow is ignored")

	created, err = svc.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Follow(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.False(t, created, "duplicate follow is ignored")

	count, err := f.follows.CountFollowing(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	following, err := svc.IsFollowing(ctx, reader.ID, leo.ID)
	require.NoError(t, err)
	assert.True(t, following)

	following, err = svc.IsFollowing(ctx, 0, leo.ID)
	require.NoError(t, err)
	assert.False(t, following)

	require.NoError(t, svc.Unfollow(ctx, reader.ID, leo.ID))
	assert.True(t, models.IsNotFound(svc.Unfollow(ctx, reader.ID, leo.ID)))

	count, err = f.follows.CountFollowing(ctx, reader.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCommentService(t *testing.T) {
	f := setupServiceTestDB(t)
	svc := NewCommentService(f.comments, f.posts)
	ctx := context.Background()
	leo := f.user(t, "leo")
	post := &models.Post{Text: "post", AuthorID: leo.ID}
	require.NoError(t, f.posts.Create(ctx, post))

	_, err := svc.AddComment(ctx, post.ID, leo.ID, "   ")
	assert.True(t, models.IsValidation(err))

	_, err = svc.AddComment(ctx, 999, leo.ID, "hello")
	assert.True(t, models.IsNotFound(err))

	comment, err := svc.AddComment(ctx, post.ID, leo.ID, "  Тестовый комментарий ")
	require.NoError(t, err)
	assert.Equal(t, "Тестовый комментарий", comment.Text)

	list, err := svc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "leo", list[0].Author.Username)
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	f := setupServiceTestDB(t)
	svc := NewUserService(f.users, bcrypt.MinCost)
	ctx := context.Background()

	user, err := svc.Register(ctx, forms.SignupData{Username: "leo", Email: "leo@example.com", Password1: "war-and-peace"})
	require.NoError(t, err)
	assert.NotEqual(t, "war-and-peace", user.Password)

	_, err = svc.Register(ctx, forms.SignupData{Username: "leo", Password1: "war-and-peace"})
	assert.True(t, models.IsValidation(err))

	got, err := svc.Authenticate(ctx, "leo", "war-and-peace")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "leo", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "war-and-peace")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
