package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The index page is cached as rendered bytes. Until the TTL passes or the
// cache is cleared, a new post must not change the served body.
func TestIndex_CachedBody(t *testing.T) {
	ts := setupTestServer(t)
	author := ts.createUser(t, "writer")
	ts.createPost(t, author, "first post", nil)

	resp := ts.get(t, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before := readBody(t, resp)

	ts.createPost(t, author, "second post", nil)

	resp = ts.get(t, "/", nil)
	cached := readBody(t, resp)
	assert.Equal(t, before, cached, "body must come from cache while the TTL holds")

	require.NoError(t, ts.server.pages.Clear(context.Background()))

	resp = ts.get(t, "/", nil)
	after := readBody(t, resp)
	assert.NotEqual(t, before, after, "cleared cache must serve fresh content")
	assert.Contains(t, after, "second post")
}

func TestIndex_CacheExpires(t *testing.T) {
	ts := setupTestServer(t)
	author := ts.createUser(t, "writer")
	ts.createPost(t, author, "first post", nil)

	resp := ts.get(t, "/", nil)
	before := readBody(t, resp)

	ts.createPost(t, author, "second post", nil)
	ts.redis.FastForward(21 * time.Second)

	resp = ts.get(t, "/", nil)
	after := readBody(t, resp)
	assert.NotEqual(t, before, after)
	assert.Contains(t, after, "second post")
}

func TestIndex_CacheKeyedByPage(t *testing.T) {
	ts := setupTestServer(t)
	author := ts.createUser(t, "writer")
	for i := 0; i < 13; i++ {
		ts.createPost(t, author, "numbered post", nil)
	}

	first := readBody(t, ts.get(t, "/", nil))
	second := readBody(t, ts.get(t, "/?page=2", nil))
	assert.NotEqual(t, first, second, "pages must be cached under distinct keys")
}

func TestAdminClearCache(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.createAdmin(t)

	ts.createPost(t, admin, "first post", nil)
	before := readBody(t, ts.get(t, "/", nil))
	ts.createPost(t, admin, "second post", nil)

	resp := ts.postForm(t, "/admin/cache/clear/", admin, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	after := readBody(t, ts.get(t, "/", nil))
	assert.NotEqual(t, before, after)
}

func TestAdminRoutes_ForbiddenForNonAdmins(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.createUser(t, "mortal")

	resp := ts.get(t, "/admin/groups/", user)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	page := decodePage(t, resp)
	assert.Equal(t, "core/403.html", page.Template)
}
