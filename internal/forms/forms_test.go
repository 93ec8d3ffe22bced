package forms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupsStub() *testutil.GroupRepoStub {
	return testutil.NewGroupRepoStub(models.Group{ID: 1, Title: "Тестовая группа", Slug: "test-slug"})
}

func TestPostForm_Validate(t *testing.T) {
	ctx := context.Background()
	// header and IHDR survive, pixel data does not
	truncatedPNG := testutil.TinyPNG(t, 64, 64)[:40]
	tests := []struct {
		name       string
		data       PostData
		image      *Upload
		wantValid  bool
		wantErrFor string
	}{
		{"text only", PostData{Text: "Тестовый текст"}, nil, true, ""},
		{"text and group", PostData{Text: "Тестовый текст", Group: "1"}, nil, true, ""},
		{"blank text", PostData{Text: "   "}, nil, false, "text"},
		{"unknown group", PostData{Text: "x", Group: "99"}, nil, false, "group"},
		{"non numeric group", PostData{Text: "x", Group: "abc"}, nil, false, "group"},
		{"negative group", PostData{Text: "x", Group: "-1"}, nil, false, "group"},
		{"gif image", PostData{Text: "x"}, &Upload{Filename: "small.gif", ContentType: "image/gif", Content: testutil.SmallGIF}, true, ""},
		{"not an image", PostData{Text: "x"}, &Upload{Filename: "a.gif", Content: []byte("plain text")}, false, "image"},
		{"empty file", PostData{Text: "x"}, &Upload{Filename: "a.gif"}, false, "image"},
		{"truncated png", PostData{Text: "x"}, &Upload{Filename: "a.png", ContentType: "image/png", Content: truncatedPNG}, false, "image"},
		{"content type mismatch", PostData{Text: "x"}, &Upload{Filename: "a.png", ContentType: "image/png", Content: testutil.SmallGIF}, false, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewPostForm(nil, nil).Bind(tt.data, tt.image)
			form.MaxImageBytes = 5 * 1024 * 1024

			valid, err := form.Validate(ctx, groupsStub())
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, valid, "errors: %v", form.Errors)
			if tt.wantErrFor != "" {
				assert.True(t, form.Errors.Has(tt.wantErrFor), "errors: %v", form.Errors)
			}
		})
	}
}

func TestPostForm_CleanedData(t *testing.T) {
	upload := &Upload{Filename: "small.gif", ContentType: "image/gif", Content: testutil.SmallGIF}
	form := NewPostForm(nil, nil).Bind(PostData{Text: "  Текст  ", Group: "1"}, upload)

	valid, err := form.Validate(context.Background(), groupsStub())
	require.NoError(t, err)
	require.True(t, valid)

	cleaned := form.Cleaned()
	assert.Equal(t, "Текст", cleaned.Text)
	require.NotNil(t, cleaned.Group)
	assert.Equal(t, "test-slug", cleaned.Group.Slug)
	require.NotNil(t, cleaned.Image)
	assert.Equal(t, "gif", cleaned.Image.Format)
	assert.Equal(t, 2, cleaned.Image.Width)
	assert.Equal(t, 1, cleaned.Image.Height)
}

func TestPostForm_ImageTooLarge(t *testing.T) {
	png := testutil.TinyPNG(t, 64, 64)
	form := NewPostForm(nil, nil).Bind(PostData{Text: "x"}, &Upload{Filename: "a.png", Content: png})
	form.MaxImageBytes = int64(len(png) - 1)

	valid, err := form.Validate(context.Background(), groupsStub())
	require.NoError(t, err)
	assert.False(t, valid)
	assert.True(t, form.Errors.Has("image"))
}

func TestPostForm_LookupFailureIsReturned(t *testing.T) {
	stub := groupsStub()
	stub.Err = errors.New("db down")
	form := NewPostForm(nil, nil).Bind(PostData{Text: "x", Group: "1"}, nil)

	_, err := form.Validate(context.Background(), stub)
	assert.EqualError(t, err, "db down")
}

func TestPostForm_UnboundIsInvalid(t *testing.T) {
	valid, err := NewPostForm(nil, nil).Validate(context.Background(), groupsStub())
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestPostForm_Context(t *testing.T) {
	groupID := uint(1)
	post := &models.Post{ID: 7, Text: "Старый текст", GroupID: &groupID, Image: "posts/small.gif"}
	choices := []models.Group{{ID: 1, Title: "Тестовая группа"}}

	ctx := NewPostForm(post, choices).Context()
	assert.False(t, ctx.IsBound)
	assert.Equal(t, []string{"text", "group", "image"}, ctx.Order)
	assert.Equal(t, "Старый текст", ctx.Fields["text"].Value)
	assert.Equal(t, "1", ctx.Fields["group"].Value)
	assert.Equal(t, "posts/small.gif", ctx.Fields["image"].Value)
	assert.Equal(t, HelpPostText, ctx.Fields["text"].HelpText)
	assert.Equal(t, HelpPostGroup, ctx.Fields["group"].HelpText)
	assert.Equal(t, []Choice{{Value: 1, Label: "Тестовая группа"}}, ctx.Choices)

	bound := NewPostForm(post, choices).Bind(PostData{Text: ""}, nil)
	_, err := bound.Validate(context.Background(), groupsStub())
	require.NoError(t, err)
	bctx := bound.Context()
	assert.True(t, bctx.IsBound)
	assert.Equal(t, []string{MsgRequired}, bctx.Fields["text"].Errors)
	assert.Equal(t, "", bctx.Fields["group"].Value)
}

func TestCommentForm(t *testing.T) {
	form := NewCommentForm().Bind(CommentData{Text: "Тестовый комментарий"})
	assert.True(t, form.Validate())

	empty := NewCommentForm().Bind(CommentData{Text: " \n "})
	assert.False(t, empty.Validate())
	assert.Equal(t, []string{MsgRequired}, empty.Errors["text"])

	assert.False(t, NewCommentForm().Validate())
	assert.Equal(t, HelpCommentText, NewCommentForm().Context().Fields["text"].HelpText)
}

func TestSignupForm(t *testing.T) {
	valid := SignupData{Username: "leo", Email: "leo@example.com", Password1: "war-and-peace", Password2: "war-and-peace"}

	tests := []struct {
		name       string
		mutate     func(d *SignupData)
		wantErrFor string
	}{
		{"valid", func(*SignupData) {}, ""},
		{"missing username", func(d *SignupData) { d.Username = " " }, "username"},
		{"bad username", func(d *SignupData) { d.Username = "leo tolstoy" }, "username"},
		{"bad email", func(d *SignupData) { d.Email = "nope" }, "email"},
		{"short password", func(d *SignupData) { d.Password1, d.Password2 = "abc", "abc" }, "password1"},
		{"numeric password", func(d *SignupData) { d.Password1, d.Password2 = "1234567890", "1234567890" }, "password1"},
		{"mismatch", func(d *SignupData) { d.Password2 = "something-else" }, "password2"},
		{"long first name", func(d *SignupData) { d.FirstName = strings.Repeat("л", 151) }, "first_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := valid
			tt.mutate(&data)
			form := NewSignupForm().Bind(data)
			ok := form.Validate()
			if tt.wantErrFor == "" {
				assert.True(t, ok, "errors: %v", form.Errors)
				return
			}
			assert.False(t, ok)
			assert.True(t, form.Errors.Has(tt.wantErrFor), "errors: %v", form.Errors)
		})
	}
}

func TestSignupForm_ContextHidesPasswords(t *testing.T) {
	form := NewSignupForm().Bind(SignupData{Username: "leo", Password1: "secret-pass", Password2: "secret-pass"})
	ctx := form.Context()
	assert.Equal(t, "", ctx.Fields["password1"].Value)
	assert.Equal(t, "leo", ctx.Fields["username"].Value)
}

func TestLoginForm(t *testing.T) {
	form := NewLoginForm().Bind(LoginData{Username: "leo", Password: "pw"})
	assert.True(t, form.Validate())

	form.Fail()
	assert.Equal(t, []string{MsgLoginFailed}, form.Context().Errors[NonFieldErrors])

	missing := NewLoginForm().Bind(LoginData{Username: "leo"})
	assert.False(t, missing.Validate())
	assert.True(t, missing.Errors.Has("password"))
}
