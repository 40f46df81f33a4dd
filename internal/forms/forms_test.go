package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindPostForm(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		group     string
		wantErrs  Errors
		wantGroup *uint
	}{
		{
			name:     "empty text rejected",
			text:     "",
			group:    "",
			wantErrs: Errors{"text": requiredMessage},
		},
		{
			name:  "text only, no group",
			text:  "hello",
			group: "",
		},
		{
			name:      "text with group",
			text:      "hello",
			group:     "3",
			wantGroup: uintPtr(3),
		},
		{
			name:     "garbage group value",
			text:     "hello",
			group:    "not-a-number",
			wantErrs: Errors{"group": "Select a valid group."},
		},
		{
			name:     "zero group value",
			text:     "hello",
			group:    "0",
			wantErrs: Errors{"group": "Select a valid group."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, errs := BindPostForm(tt.text, tt.group)
			if tt.wantErrs != nil {
				assert.Equal(t, tt.wantErrs, errs)
				assert.Nil(t, form)
				return
			}
			require.Nil(t, errs)
			assert.Equal(t, tt.text, form.Text)
			assert.Equal(t, tt.wantGroup, form.GroupID)
		})
	}
}

func TestPostForm_Post_StampsAuthorNotTimestamp(t *testing.T) {
	form, errs := BindPostForm("some text", "2")
	require.Nil(t, errs)

	post := form.Post(7)
	assert.Equal(t, uint(7), post.AuthorID)
	assert.Equal(t, "some text", post.Text)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, uint(2), *post.GroupID)
	// The store assigns the creation time on insert.
	assert.True(t, post.CreatedAt.IsZero())
}

func TestPostForm_Apply_KeepsImageWhenNotReplaced(t *testing.T) {
	form, errs := BindPostForm("updated", "")
	require.Nil(t, errs)

	post := form.Post(1)
	post.Image = "posts/original.png"
	form.Apply(post)
	assert.Equal(t, "posts/original.png", post.Image)

	form.Image = "posts/replacement.png"
	form.Apply(post)
	assert.Equal(t, "posts/replacement.png", post.Image)
}

func TestBindCommentForm(t *testing.T) {
	_, errs := BindCommentForm("")
	assert.Equal(t, Errors{"text": requiredMessage}, errs)

	form, errs := BindCommentForm("nice post")
	assert.Nil(t, errs)

	comment := form.Comment(4, 9)
	assert.Equal(t, uint(4), comment.PostID)
	assert.Equal(t, uint(9), comment.AuthorID)
	assert.Equal(t, "nice post", comment.Text)
}

func uintPtr(v uint) *uint { return &v }
