package server

import (
	"errors"
	"log/slog"
	"strconv"

	"inkwell/internal/models"
	"inkwell/internal/render"

	"github.com/gofiber/fiber/v2"
)

// pageSize is the number of posts shown per listing page.
const pageSize = 10

// PageObj describes one page of posts for the templates.
type PageObj struct {
	Posts       []*models.Post
	Number      int
	NumPages    int
	HasNext     bool
	HasPrevious bool
}

// pageNumber reads ?page=N, treating anything unparseable or below 1 as the
// first page.
func pageNumber(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// paginate assembles the page object for a listing. A page past the end is
// served empty rather than erroring.
func paginate(posts []*models.Post, total int64, number int) PageObj {
	numPages := int((total + pageSize - 1) / pageSize)
	if numPages < 1 {
		numPages = 1
	}
	return PageObj{
		Posts:       posts,
		Number:      number,
		NumPages:    numPages,
		HasNext:     number < numPages,
		HasPrevious: number > 1 && len(posts) > 0,
	}
}

func offsetFor(number int) int {
	return (number - 1) * pageSize
}

// currentUserID returns the signed-in user's ID, or ok=false for anonymous
// requests.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok
}

// renderPage renders a template with the base data every page expects and
// sends it as HTML. The current user is loaded once here so templates can
// always reference it.
func (s *Server) renderPage(c *fiber.Ctx, status int, name string, data render.Map) error {
	if data == nil {
		data = render.Map{}
	}
	body, err := s.renderBody(c, name, data)
	if err != nil {
		return err
	}
	return sendHTML(c, status, body)
}

// sessionUser loads the signed-in user's record, or nil for anonymous
// requests and dangling sessions.
func (s *Server) sessionUser(c *fiber.Ctx) *models.User {
	id, ok := currentUserID(c)
	if !ok {
		return nil
	}
	user, err := s.userRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return nil
	}
	return user
}

func sendHTML(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}

// renderError serves the error page for status. When the template itself
// fails a plain-text fallback goes out so the client always gets a response.
func (s *Server) renderError(c *fiber.Ctx, status int) error {
	var name string
	switch status {
	case fiber.StatusNotFound:
		name = "core/404.html"
	case fiber.StatusForbidden:
		name = "core/403.html"
	default:
		status = fiber.StatusInternalServerError
		name = "core/500.html"
	}

	body, err := s.renderer.Render(name, render.Map{
		"Path": c.Path(),
		"User": s.sessionUser(c),
	})
	if err != nil {
		slog.ErrorContext(c.UserContext(), "error page render failed",
			"template", name, "error", err)
		return c.Status(status).SendString(fiber.ErrInternalServerError.Message)
	}
	return sendHTML(c, status, body)
}

// ErrorHandler is Fiber's last-resort error handler. Domain errors map to
// their page, everything else is logged and served as a 500.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return s.renderError(c, fiber.StatusNotFound)
		case "UNAUTHORIZED":
			return s.renderError(c, fiber.StatusForbidden)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound, fiber.StatusForbidden:
			return s.renderError(c, fiberErr.Code)
		case fiber.StatusMethodNotAllowed:
			return c.Status(fiberErr.Code).SendString(fiberErr.Message)
		}
	}

	slog.ErrorContext(c.UserContext(), "unhandled error",
		"path", c.Path(), "error", err)
	return s.renderError(c, fiber.StatusInternalServerError)
}
