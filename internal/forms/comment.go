package forms

import "strings"

// CommentData holds the raw submitted comment field.
type CommentData struct {
	Text string `form:"text" validate:"required"`
}

// CommentForm adds a comment to a post.
type CommentForm struct {
	Data   CommentData
	Errors FieldErrors
	bound  bool
}

// NewCommentForm returns an unbound comment form.
func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: FieldErrors{}}
}

// Bind attaches submitted data.
func (f *CommentForm) Bind(data CommentData) *CommentForm {
	f.Data = data
	f.bound = true
	return f
}

// Validate reports whether the bound text is non-empty after trimming.
func (f *CommentForm) Validate() bool {
	if !f.bound {
		return false
	}
	f.Errors = FieldErrors{}
	f.Data.Text = strings.TrimSpace(f.Data.Text)
	validateInto(&f.Data, f.Errors)
	return len(f.Errors) == 0
}

// Context renders the form for templates.
func (f *CommentForm) Context() *Context {
	return newContext(f.bound, f.Errors,
		&Field{Name: "text", Label: "Текст комментария", HelpText: HelpCommentText, Required: true, Value: f.Data.Text},
	)
}
