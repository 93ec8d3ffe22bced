package forms

// NonFieldErrors is the key for errors not tied to a single field.
const NonFieldErrors = "__all__"

// FieldErrors maps a field name to its error messages.
type FieldErrors map[string][]string

// Add appends msg to the errors of field.
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field has any error.
func (e FieldErrors) Has(field string) bool {
	return len(e[field]) > 0
}

// Field describes one input for rendering.
type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	HelpText string   `json:"help_text,omitempty"`
	Required bool     `json:"required"`
	Value    any      `json:"value"`
	Errors   []string `json:"errors"`
}

// Choice is one option of a select field.
type Choice struct {
	Value uint   `json:"value"`
	Label string `json:"label"`
}

// Context is the template view of a form.
type Context struct {
	IsBound bool              `json:"is_bound"`
	Fields  map[string]*Field `json:"fields"`
	Order   []string          `json:"order"`
	Errors  FieldErrors       `json:"errors"`
	Choices []Choice          `json:"choices,omitempty"`
}

func newContext(bound bool, errs FieldErrors, fields ...*Field) *Context {
	ctx := &Context{
		IsBound: bound,
		Fields:  make(map[string]*Field, len(fields)),
		Order:   make([]string, 0, len(fields)),
		Errors:  errs,
	}
	if ctx.Errors == nil {
		ctx.Errors = FieldErrors{}
	}
	for _, f := range fields {
		f.Errors = ctx.Errors[f.Name]
		if f.Errors == nil {
			f.Errors = []string{}
		}
		ctx.Fields[f.Name] = f
		ctx.Order = append(ctx.Order, f.Name)
	}
	return ctx
}
