// Package seed provides helpers to create demo data for the blog database.
// These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded user.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	NumUsers int
	NumPosts int
	// MaxFollows caps how many authors each user follows.
	MaxFollows int
	// MaxComments caps comments per post.
	MaxComments int
	// MaxDays spreads publication dates over that many past days.
	MaxDays      int
	PasswordCost int
	// Seed makes generated data reproducible when non-zero.
	Seed int64
}

// Result summarises what a run created.
type Result struct {
	Users    []*models.User
	Groups   []models.Group
	Posts    []*models.Post
	Comments int
	Follows  int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	rnd    *rand.Rand
	faker  *gofakeit.Faker
	hashed string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.PasswordCost <= 0 {
		opts.PasswordCost = bcrypt.DefaultCost
	}
	return &Factory{
		db:    db,
		opts:  opts,
		rnd:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hashed != "" {
		return f.hashed, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.PasswordCost)
	if err != nil {
		return "", err
	}
	f.hashed = string(h)
	return f.hashed, nil
}

// User creates a user with a fake name; n keeps usernames unique within a run.
func (f *Factory) User(n int, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Username:  fmt.Sprintf("%s%d", f.faker.Username(), n),
		Email:     f.faker.Email(),
		FirstName: first,
		LastName:  last,
		Password:  hash,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Post creates a post by author, optionally in group, with a past publication date.
func (f *Factory) Post(author *models.User, group *models.Group, overrides ...func(*models.Post)) (*models.Post, error) {
	back := time.Duration(f.rnd.Intn(f.opts.MaxDays*24*60)) * time.Minute
	post := &models.Post{
		Text:     f.faker.Paragraph(1, 3, 12, "\n"),
		AuthorID: author.ID,
		PubDate:  time.Now().Add(-back),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Omit("Author", "Group").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// Comment adds a fake comment by author to post.
func (f *Factory) Comment(post *models.Post, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Text:     f.faker.Sentence(f.rnd.Intn(12) + 3),
		PostID:   post.ID,
		AuthorID: author.ID,
	}
	if err := f.db.Omit("Author", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// Follow stores the edge user -> author.
func (f *Factory) Follow(user, author *models.User) error {
	return f.db.Omit("User", "Author").Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error
}

// Run seeds groups, users, posts, comments and follows.
func (f *Factory) Run(groups []GroupFixture) (*Result, error) {
	logger := middleware.Logger
	res := &Result{}

	stored, err := Groups(f.db, groups)
	if err != nil {
		return nil, err
	}
	res.Groups = stored
	logger.Info("groups seeded", slog.Int("count", len(stored)))

	for i := 0; i < f.opts.NumUsers; i++ {
		u, err := f.User(i + 1)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		res.Users = append(res.Users, u)
	}
	logger.Info("users seeded", slog.Int("count", len(res.Users)))
	if len(res.Users) == 0 {
		return res, nil
	}

	for i := 0; i < f.opts.NumPosts; i++ {
		author := res.Users[f.rnd.Intn(len(res.Users))]
		var group *models.Group
		if len(res.Groups) > 0 && f.rnd.Intn(3) > 0 {
			group = &res.Groups[f.rnd.Intn(len(res.Groups))]
		}
		p, err := f.Post(author, group)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts = append(res.Posts, p)

		for n := f.rnd.Intn(f.opts.MaxComments + 1); n > 0; n-- {
			if _, err := f.Comment(p, res.Users[f.rnd.Intn(len(res.Users))]); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			res.Comments++
		}
	}
	logger.Info("posts seeded", slog.Int("posts", len(res.Posts)), slog.Int("comments", res.Comments))

	for _, u := range res.Users {
		perm := f.rnd.Perm(len(res.Users))
		want := f.rnd.Intn(f.opts.MaxFollows + 1)
		for _, idx := range perm {
			if want == 0 {
				break
			}
			author := res.Users[idx]
			if author.ID == u.ID {
				continue
			}
			if err := f.Follow(u, author); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			res.Follows++
			want--
		}
	}
	logger.Info("follows seeded", slog.Int("count", res.Follows))

	return res, nil
}

// ClearAll deletes every row, children first.
func ClearAll(db *gorm.DB) error {
	for _, model := range []any{&models.Comment{}, &models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
