// Package forms validates and binds user-submitted fields for posts and
// comments. Forms never persist anything themselves: on success they yield an
// unsaved entity and the caller stamps author and timestamp server-side.
package forms

import (
	"strconv"

	"inkwell/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Errors maps a form field name to a user-facing validation message.
type Errors map[string]string

// requiredMessage is rendered next to the offending field.
const requiredMessage = "This field is required."

// PostForm carries the writable fields of a post submission. GroupID is nil
// when the group selector was left empty; Image is the stored media path the
// storage collaborator returned, empty when nothing was uploaded.
type PostForm struct {
	Text    string `validate:"required"`
	GroupID *uint
	Image   string
}

// BindPostForm parses raw form values into a PostForm. group is the raw
// group selector value; an empty string means no group.
func BindPostForm(text, group string) (*PostForm, Errors) {
	form := &PostForm{Text: text}

	if group != "" {
		id, err := strconv.ParseUint(group, 10, 32)
		if err != nil || id == 0 {
			return nil, Errors{"group": "Select a valid group."}
		}
		gid := uint(id)
		form.GroupID = &gid
	}

	if errs := check(form); errs != nil {
		return nil, errs
	}
	return form, nil
}

// Post builds an unsaved post for the given author. The creation timestamp
// is left zero so the store assigns it on insert.
func (f *PostForm) Post(authorID uint) *models.Post {
	return &models.Post{
		Text:     f.Text,
		AuthorID: authorID,
		GroupID:  f.GroupID,
		Image:    f.Image,
	}
}

// Apply copies the form's writable fields onto an existing post, leaving
// author and creation timestamp untouched. The image is only replaced when a
// new one was uploaded.
func (f *PostForm) Apply(post *models.Post) {
	post.Text = f.Text
	post.GroupID = f.GroupID
	if f.Image != "" {
		post.Image = f.Image
	}
}

// CommentForm carries the single writable field of a comment submission.
type CommentForm struct {
	Text string `validate:"required"`
}

// BindCommentForm parses raw form values into a CommentForm.
func BindCommentForm(text string) (*CommentForm, Errors) {
	form := &CommentForm{Text: text}
	if errs := check(form); errs != nil {
		return nil, errs
	}
	return form, nil
}

// Comment builds an unsaved comment for the given post and author.
func (f *CommentForm) Comment(postID, authorID uint) *models.Comment {
	return &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     f.Text,
	}
}

func check(form any) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	errs := Errors{}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["__all__"] = "Invalid submission."
		return errs
	}
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required":
			errs[fieldName(fe.Field())] = requiredMessage
		case "email":
			errs[fieldName(fe.Field())] = "Enter a valid email address."
		case "min":
			errs[fieldName(fe.Field())] = "Value is too short."
		case "max":
			errs[fieldName(fe.Field())] = "Value is too long."
		default:
			errs[fieldName(fe.Field())] = "Enter a valid value."
		}
	}
	return errs
}

func fieldName(structField string) string {
	switch structField {
	case "Text":
		return "text"
	case "GroupID":
		return "group"
	case "Image":
		return "image"
	case "Username":
		return "username"
	case "Email":
		return "email"
	case "Password":
		return "password"
	}
	return structField
}
