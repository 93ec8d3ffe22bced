package forms

import (
	"context"
	"strconv"
	"strings"

	"yatube/internal/models"
)

// Help texts shown under the post and comment inputs.
const (
	HelpPostText    = "Текст публикации"
	HelpPostGroup   = "Пожалуйста, выберете наиболее подходящую группу из списка или оставьте без группы"
	HelpCommentText = "Напишите текст комментария"
)

// GroupLookup resolves a submitted group choice.
type GroupLookup interface {
	GetByID(ctx context.Context, id uint) (*models.Group, error)
}

// PostData holds the raw submitted post fields.
type PostData struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group" validate:"omitempty,numeric"`
}

// PostCleaned is the validated result of a PostForm.
type PostCleaned struct {
	Text  string
	Group *models.Group
	Image *Upload
}

// PostForm creates or edits a post: text (required), optional group, optional image.
type PostForm struct {
	Data          PostData
	Image         *Upload
	Instance      *models.Post
	Choices       []models.Group
	Errors        FieldErrors
	MaxImageBytes int64

	bound   bool
	cleaned PostCleaned
}

// NewPostForm returns an unbound form, pre-filled from instance when editing.
func NewPostForm(instance *models.Post, choices []models.Group) *PostForm {
	return &PostForm{Instance: instance, Choices: choices, Errors: FieldErrors{}}
}

// Bind attaches submitted data and an optional image upload.
func (f *PostForm) Bind(data PostData, image *Upload) *PostForm {
	f.Data = data
	f.Image = image
	f.bound = true
	return f
}

// IsBound reports whether data was submitted.
func (f *PostForm) IsBound() bool {
	return f.bound
}

// Validate checks the submitted data and fills Cleaned on success.
// An unbound form is never valid.
func (f *PostForm) Validate(ctx context.Context, groups GroupLookup) (bool, error) {
	if !f.bound {
		return false, nil
	}
	f.Errors = FieldErrors{}
	f.Data.Text = strings.TrimSpace(f.Data.Text)
	f.Data.Group = strings.TrimSpace(f.Data.Group)

	validateInto(&f.Data, f.Errors)

	cleaned := PostCleaned{Text: f.Data.Text}

	if f.Data.Group != "" && !f.Errors.Has("group") {
		group, err := resolveGroup(ctx, groups, f.Data.Group)
		switch {
		case err != nil && models.IsNotFound(err):
			f.Errors.Add("group", MsgInvalidChoice)
		case err != nil:
			return false, err
		default:
			cleaned.Group = group
		}
	}

	if f.Image != nil {
		if msg := inspectImage(f.Image, f.MaxImageBytes); msg != "" {
			f.Errors.Add("image", msg)
		} else {
			cleaned.Image = f.Image
		}
	}

	if len(f.Errors) > 0 {
		return false, nil
	}
	f.cleaned = cleaned
	return true, nil
}

func resolveGroup(ctx context.Context, groups GroupLookup, raw string) (*models.Group, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, models.NewNotFoundError("Group", raw)
	}
	return groups.GetByID(ctx, uint(id))
}

// Cleaned returns the validated values; only meaningful after a successful Validate.
func (f *PostForm) Cleaned() PostCleaned {
	return f.cleaned
}

// Context renders the form for templates.
func (f *PostForm) Context() *Context {
	var text, group, image any = "", "", ""
	switch {
	case f.bound:
		text, group = f.Data.Text, f.Data.Group
		if f.Instance != nil {
			image = f.Instance.Image
		}
	case f.Instance != nil:
		text = f.Instance.Text
		if f.Instance.GroupID != nil {
			group = strconv.FormatUint(uint64(*f.Instance.GroupID), 10)
		}
		image = f.Instance.Image
	}

	ctx := newContext(f.bound, f.Errors,
		&Field{Name: "text", Label: "Текст поста", HelpText: HelpPostText, Required: true, Value: text},
		&Field{Name: "group", Label: "Группа", HelpText: HelpPostGroup, Value: group},
		&Field{Name: "image", Label: "Картинка", Value: image},
	)
	ctx.Choices = make([]Choice, 0, len(f.Choices))
	for _, g := range f.Choices {
		ctx.Choices = append(ctx.Choices, Choice{Value: g.ID, Label: g.Title})
	}
	return ctx
}
