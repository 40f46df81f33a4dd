package server

import (
	"inkwell/internal/render"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex handles GET /follow/, the feed of posts by followed authors.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	number := pageNumber(c)
	posts, err := s.postRepo.ListFeed(c.UserContext(), userID, pageSize, offsetFor(number))
	if err != nil {
		return err
	}
	total, err := s.postRepo.CountFeed(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return s.renderPage(c, fiber.StatusOK, "posts/follow.html", render.Map{
		"Title":   "Your feed",
		"PageObj": paginate(posts, total, number),
	})
}

// FollowUser handles GET /profile/:username/follow/. Following yourself is
// silently skipped; following someone twice changes nothing.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	author, err := s.userRepo.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	userID, _ := currentUserID(c)

	if userID != author.ID {
		if err := s.followRepo.Follow(c.UserContext(), userID, author.ID); err != nil {
			return err
		}
	}
	return c.Redirect("/profile/"+author.Username+"/", fiber.StatusFound)
}

// UnfollowUser handles GET /profile/:username/unfollow/
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	author, err := s.userRepo.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	userID, _ := currentUserID(c)

	if err := s.followRepo.Unfollow(c.UserContext(), userID, author.ID); err != nil {
		return err
	}
	return c.Redirect("/profile/"+author.Username+"/", fiber.StatusFound)
}
