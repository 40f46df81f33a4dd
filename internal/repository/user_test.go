package repository

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := &models.User{Username: "echo", Email: "echo@example.com", Password: "x"}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.User{Username: "echo", Email: "other@example.com", Password: "x"}
	err := repo.Create(ctx, dup)
	assert.True(t, models.IsCode(err, "ALREADY_EXISTS"), "got %v", err)
}
