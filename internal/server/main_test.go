package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// smallGIF is a 1x1 image for upload tests.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61,
	0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x00, 0x00, 0x00,
	0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// testRenderer emits the template name and data as JSON. Output is
// deterministic for identical data, which the cache tests rely on.
type testRenderer struct{}

func (testRenderer) Render(name string, data render.Map) ([]byte, error) {
	return json.Marshal(map[string]any{
		"template": name,
		"data":     data,
	})
}

type testServer struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	redis  *miniredis.Miniredis
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:                 "test",
		SessionSecret:       "test-secret-0123456789abcdef0123456789abcdef",
		MediaRoot:           t.TempDir(),
		PageCacheTTLSeconds: 20,
	}
	middleware.InitMiddleware(cfg)

	db, err := gorm.Open(sqlite.Open("file::memory:?_fk=1"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{},
	))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	srv := NewServerWithDeps(cfg, db, client, testRenderer{})
	return &testServer{server: srv, app: srv.NewApp(), db: db, redis: mr}
}

func (ts *testServer) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pass12345"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, ts.db.Create(user).Error)
	return user
}

func (ts *testServer) createGroup(t *testing.T, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, ts.db.Create(group).Error)
	return group
}

func (ts *testServer) createPost(t *testing.T, author *models.User, text string, groupID *uint) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID, GroupID: groupID}
	require.NoError(t, ts.db.Create(post).Error)
	return post
}

// get issues a GET request, optionally signed in as user.
func (ts *testServer) get(t *testing.T, path string, user *models.User) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	ts.sign(t, req, user)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// postForm issues a form POST, optionally signed in as user.
func (ts *testServer) postForm(t *testing.T, path string, user *models.User, values url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	ts.sign(t, req, user)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ts *testServer) sign(t *testing.T, req *http.Request, user *models.User) {
	t.Helper()
	if user == nil {
		return
	}
	token, err := middleware.IssueSession(user.ID, user.IsAdmin)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
}

// renderedPage is the decoded testRenderer output.
type renderedPage struct {
	Template string                     `json:"template"`
	Data     map[string]json.RawMessage `json:"data"`
}

func decodePage(t *testing.T, resp *http.Response) renderedPage {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var page renderedPage
	require.NoError(t, json.Unmarshal(body, &page), "body: %s", body)
	return page
}

type decodedPageObj struct {
	Posts       []models.Post
	Number      int
	NumPages    int
	HasNext     bool
	HasPrevious bool
}

func pageObj(t *testing.T, page renderedPage) decodedPageObj {
	t.Helper()
	raw, ok := page.Data["PageObj"]
	require.True(t, ok, "no PageObj in %s", page.Template)
	var obj decodedPageObj
	require.NoError(t, json.Unmarshal(raw, &obj))
	return obj
}

func location(resp *http.Response) string {
	return resp.Header.Get(fiber.HeaderLocation)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
