package repository

import (
	"context"
	"fmt"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Pagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "paginated")
	group := createTestGroup(t, db, "pagination-group")

	for i := 0; i < 13; i++ {
		post := &models.Post{
			Text:     fmt.Sprintf("post %d", i),
			AuthorID: author.ID,
			GroupID:  &group.ID,
		}
		require.NoError(t, repo.Create(ctx, post))
	}

	t.Run("index", func(t *testing.T) {
		page1, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Len(t, page1, 10)

		page2, err := repo.List(ctx, 10, 10)
		require.NoError(t, err)
		assert.Len(t, page2, 3)
	})

	t.Run("group listing", func(t *testing.T) {
		page1, err := repo.ListByGroup(ctx, group.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, page1, 10)

		page2, err := repo.ListByGroup(ctx, group.ID, 10, 10)
		require.NoError(t, err)
		assert.Len(t, page2, 3)
	})

	t.Run("profile listing", func(t *testing.T) {
		page1, err := repo.ListByAuthor(ctx, author.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, page1, 10)

		page2, err := repo.ListByAuthor(ctx, author.ID, 10, 10)
		require.NoError(t, err)
		assert.Len(t, page2, 3)
	})

	t.Run("page beyond available is empty, not an error", func(t *testing.T) {
		page3, err := repo.List(ctx, 10, 20)
		require.NoError(t, err)
		assert.Empty(t, page3)
	})

	t.Run("newest first", func(t *testing.T) {
		page1, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, "post 12", page1[0].Text)
	})

	count, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 13, count)
}

func TestPostRepository_Feed(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	reader := createTestUser(t, db, "reader")
	followed := createTestUser(t, db, "followed")
	stranger := createTestUser(t, db, "stranger")

	require.NoError(t, posts.Create(ctx, &models.Post{Text: "from followed", AuthorID: followed.ID}))
	require.NoError(t, posts.Create(ctx, &models.Post{Text: "from stranger", AuthorID: stranger.ID}))

	require.NoError(t, follows.Follow(ctx, reader.ID, followed.ID))

	feed, err := posts.ListFeed(ctx, reader.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "from followed", feed[0].Text)
	assert.Equal(t, "followed", feed[0].Author.Username)

	// A user who follows nobody has an empty feed.
	empty, err := posts.ListFeed(ctx, stranger.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	count, err := posts.CountFeed(ctx, reader.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPostRepository_UpdateKeepsTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "editor")
	post := &models.Post{Text: "original", AuthorID: author.ID}
	require.NoError(t, repo.Create(ctx, post))

	created := post.CreatedAt

	post.Text = "edited"
	post.GroupID = nil
	require.NoError(t, repo.Update(ctx, post))

	reloaded, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", reloaded.Text)
	assert.WithinDuration(t, created, reloaded.CreatedAt, 0)
}

func TestPostRepository_FindByImage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "photographer")
	post := &models.Post{Text: "with image", AuthorID: author.ID, Image: "posts/small.gif"}
	require.NoError(t, repo.Create(ctx, post))

	found, err := repo.FindByImage(ctx, "posts/small.gif")
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)

	_, err = repo.FindByImage(ctx, "posts/missing.gif")
	assert.True(t, models.IsCode(err, "NOT_FOUND"))
}

func TestPostRepository_AuthorCascadeAndGroupSetNull(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostRepository(db)
	groups := NewGroupRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "doomed")
	commenter := createTestUser(t, db, "commenter")
	group := createTestGroup(t, db, "doomed-group")

	post := &models.Post{Text: "to be orphaned", AuthorID: author.ID, GroupID: &group.ID}
	require.NoError(t, posts.Create(ctx, post))
	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: commenter.ID, Text: "hi"}))

	// Deleting the group nulls the reference on its posts.
	require.NoError(t, groups.Delete(ctx, group.ID))
	reloaded, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GroupID)

	// Deleting the author cascades to the post and, through it, its comments.
	require.NoError(t, db.Delete(&models.User{}, author.ID).Error)

	_, err = posts.GetByID(ctx, post.ID)
	assert.True(t, models.IsCode(err, "NOT_FOUND"))

	remaining, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCommentRepository_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "talker")
	post := &models.Post{Text: "discussed", AuthorID: author.ID}
	require.NoError(t, posts.Create(ctx, post))

	for i := 0; i < 3; i++ {
		require.NoError(t, comments.Create(ctx, &models.Comment{
			PostID:   post.ID,
			AuthorID: author.ID,
			Text:     fmt.Sprintf("comment %d", i),
		}))
	}

	list, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "comment 2", list[0].Text)
	assert.Equal(t, "comment 0", list[2].Text)
}
