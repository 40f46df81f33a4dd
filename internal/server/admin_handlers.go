package server

import (
	"log/slog"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/render"

	"github.com/gofiber/fiber/v2"
)

// AdminGroups handles GET /admin/groups/
func (s *Server) AdminGroups(c *fiber.Ctx) error {
	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	return s.renderPage(c, fiber.StatusOK, "admin/groups.html", render.Map{
		"Groups": groups,
	})
}

// AdminCreateGroup handles POST /admin/groups/
func (s *Server) AdminCreateGroup(c *fiber.Ctx) error {
	group := &models.Group{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Slug:        strings.TrimSpace(c.FormValue("slug")),
		Description: c.FormValue("description"),
	}
	if group.Title == "" || group.Slug == "" {
		groups, err := s.groupRepo.List(c.UserContext())
		if err != nil {
			return err
		}
		return s.renderPage(c, fiber.StatusOK, "admin/groups.html", render.Map{
			"Groups": groups,
			"Errors": map[string]string{"__all__": "Title and slug are required."},
		})
	}
	if err := s.groupRepo.Create(c.UserContext(), group); err != nil {
		return err
	}
	slog.InfoContext(c.UserContext(), "group created", "slug", group.Slug)
	return c.Redirect("/admin/groups/", fiber.StatusFound)
}

// AdminEditGroup handles POST /admin/groups/:id/edit/
func (s *Server) AdminEditGroup(c *fiber.Ctx) error {
	group, err := s.groupByParam(c)
	if err != nil {
		return err
	}
	if title := strings.TrimSpace(c.FormValue("title")); title != "" {
		group.Title = title
	}
	if slug := strings.TrimSpace(c.FormValue("slug")); slug != "" {
		group.Slug = slug
	}
	group.Description = c.FormValue("description")

	if err := s.groupRepo.Update(c.UserContext(), group); err != nil {
		return err
	}
	return c.Redirect("/admin/groups/", fiber.StatusFound)
}

// AdminDeleteGroup handles POST /admin/groups/:id/delete/. Posts in the
// group survive with their group reference cleared.
func (s *Server) AdminDeleteGroup(c *fiber.Ctx) error {
	group, err := s.groupByParam(c)
	if err != nil {
		return err
	}
	if err := s.groupRepo.Delete(c.UserContext(), group.ID); err != nil {
		return err
	}
	slog.InfoContext(c.UserContext(), "group deleted", "slug", group.Slug)
	return c.Redirect("/admin/groups/", fiber.StatusFound)
}

// AdminClearCache handles POST /admin/cache/clear/, dropping every cached
// page immediately instead of waiting out the TTL.
func (s *Server) AdminClearCache(c *fiber.Ctx) error {
	if err := s.pages.Clear(c.UserContext()); err != nil {
		return models.NewInternalError(err)
	}
	slog.InfoContext(c.UserContext(), "page cache cleared")
	return c.Redirect("/admin/groups/", fiber.StatusFound)
}

func (s *Server) groupByParam(c *fiber.Ctx) (*models.Group, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, models.NewNotFoundError("Group", c.Params("id"))
	}
	return s.groupRepo.GetByID(c.UserContext(), uint(id))
}
