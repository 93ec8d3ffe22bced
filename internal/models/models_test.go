package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringers(t *testing.T) {
	user := User{Username: "HasNoName"}
	group := Group{Title: "Тестовая группа", Slug: "test-slug"}
	post := Post{Text: "Тестовый пост, длиннее пятнадцати символов"}
	comment := Comment{Text: "Тестовый комментарий"}

	assert.Equal(t, "HasNoName", user.String())
	assert.Equal(t, "Тестовая группа", group.String())
	assert.Equal(t, "Тестовый пост, ", post.String())
	assert.Equal(t, "Тестовый коммен", comment.String())
	assert.Equal(t, "short", Post{Text: "short"}.String())
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Leo Tolstoy", User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}.FullName())
	assert.Equal(t, "Leo", User{Username: "leo", FirstName: "Leo"}.FullName())
	assert.Equal(t, "leo", User{Username: "leo"}.FullName())
}

func TestErrorClassification(t *testing.T) {
	notFound := NewNotFoundError("Group", "missing")
	wrapped := fmt.Errorf("load group: %w", notFound)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.True(t, IsValidation(NewValidationError("bad")))
	assert.True(t, IsForbidden(NewForbiddenError("nope")))
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
	assert.Equal(t, "Group missing not found", notFound.Error())

	internal := NewInternalError(errors.New("boom"))
	assert.Equal(t, "Internal server error: boom", internal.Error())
	assert.EqualError(t, errors.Unwrap(internal), "boom")
}
