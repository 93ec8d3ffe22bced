package seed

import (
	"context"
	"strings"
	"testing"

	"yatube/internal/cache"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadGroups(t *testing.T) {
	groups, err := LoadGroups(strings.NewReader(`
groups:
  - title: Кошки
    slug: cats
    description: Фотографии котов
  - title: " Travel "
    slug: travel
`))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, GroupFixture{Title: "Кошки", Slug: "cats", Description: "Фотографии котов"}, groups[0])
	assert.Equal(t, "Travel", groups[1].Title)

	empty, err := LoadGroups(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLoadGroups_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad slug":      "groups:\n  - title: A\n    slug: not a slug\n",
		"missing title": "groups:\n  - slug: a\n",
		"duplicate":     "groups:\n  - title: A\n    slug: a\n  - title: B\n    slug: a\n",
		"unknown field": "groups:\n  - title: A\n    slug: a\n    colour: red\n",
		"not yaml":      "groups: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadGroups(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestGroups_Upsert(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	first, err := Groups(db, []GroupFixture{{Title: "Cats", Slug: "cats"}})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := Groups(db, []GroupFixture{{Title: "Кошки", Slug: "cats", Description: "new"}})
	require.NoError(t, err)
	require.Len(t, second, 1)

	var stored []models.Group
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "Кошки", stored[0].Title)
	assert.Equal(t, "new", stored[0].Description)
}

func TestGroups_DropsCachedChoices(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prev := cache.GetClient()
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(prev)
		_ = rdb.Close()
	})

	ctx := context.Background()
	require.NoError(t, rdb.Set(ctx, cache.GroupChoicesKey, "[]", 0).Err())
	require.NoError(t, rdb.Set(ctx, cache.GroupKey("cats"), "{}", 0).Err())
	require.NoError(t, rdb.Set(ctx, cache.GroupKey("dogs"), "{}", 0).Err())

	db := testutil.NewSQLiteDB(t)
	_, err := Groups(db, []GroupFixture{{Title: "Cats", Slug: "cats"}})
	require.NoError(t, err)

	assert.False(t, mr.Exists(cache.GroupChoicesKey))
	assert.False(t, mr.Exists(cache.GroupKey("cats")))
	assert.True(t, mr.Exists(cache.GroupKey("dogs")))
}

func TestFactory_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	f := NewFactory(db, Options{
		NumUsers:     5,
		NumPosts:     20,
		MaxFollows:   2,
		MaxComments:  2,
		PasswordCost: bcrypt.MinCost,
		Seed:         42,
	})

	res, err := f.Run(DefaultGroups)
	require.NoError(t, err)
	assert.Len(t, res.Users, 5)
	assert.Len(t, res.Groups, len(DefaultGroups))
	assert.Len(t, res.Posts, 20)

	var posts, comments, follows, selfFollows int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	require.NoError(t, db.Model(&models.Follow{}).Where("user_id = author_id").Count(&selfFollows).Error)
	assert.Equal(t, int64(20), posts)
	assert.Equal(t, int64(res.Comments), comments)
	assert.Equal(t, int64(res.Follows), follows)
	assert.Zero(t, selfFollows)

	var user models.User
	require.NoError(t, db.First(&user, res.Users[0].ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))

	require.NoError(t, ClearAll(db))
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, posts)
}
