// Package forms parses and validates the reader-facing forms: comments,
// share-by-email and search.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so messages line up with inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError carries one message per invalid field, keyed by form
// field name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, or "" when it is valid.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).",
			fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
	default:
		return "Enter a valid value."
	}
}

func field(values url.Values, name string) string {
	return strings.TrimSpace(values.Get(name))
}

// CommentForm is submitted from a post's detail page.
type CommentForm struct {
	Name  string `form:"name" json:"name" validate:"required,max=80"`
	Email string `form:"email" json:"email" validate:"required,email"`
	Body  string `form:"body" json:"body" validate:"required"`
}

// ParseCommentForm reads a comment form from submitted values.
func ParseCommentForm(values url.Values) CommentForm {
	return CommentForm{
		Name:  values.Get("name"),
		Email: values.Get("email"),
		Body:  values.Get("body"),
	}.Clean()
}

// Clean strips surrounding whitespace from every field, however the form
// was decoded.
func (f CommentForm) Clean() CommentForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Body = strings.TrimSpace(f.Body)
	return f
}

func (f CommentForm) Validate() error {
	return check(f)
}

// EmailPostForm recommends a post to someone by email.
type EmailPostForm struct {
	Name     string `form:"name" json:"name" validate:"required,max=25"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	To       string `form:"to" json:"to" validate:"required,email"`
	Comments string `form:"comments" json:"comments"`
}

// ParseEmailPostForm reads a share form from submitted values.
func ParseEmailPostForm(values url.Values) EmailPostForm {
	return EmailPostForm{
		Name:     values.Get("name"),
		Email:    values.Get("email"),
		To:       values.Get("to"),
		Comments: values.Get("comments"),
	}.Clean()
}

func (f EmailPostForm) Clean() EmailPostForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.To = strings.TrimSpace(f.To)
	f.Comments = strings.TrimSpace(f.Comments)
	return f
}

func (f EmailPostForm) Validate() error {
	return check(f)
}

// SearchForm holds the search query.
type SearchForm struct {
	Query string `form:"query" json:"query" validate:"required"`
}

// ParseSearchForm reads the query parameter. The second result reports
// whether the parameter was present at all; a search page without it
// shows an empty form rather than an error.
func ParseSearchForm(values url.Values) (SearchForm, bool) {
	_, present := values["query"]
	return SearchForm{Query: field(values, "query")}, present
}

func (f SearchForm) Validate() error {
	return check(f)
}
