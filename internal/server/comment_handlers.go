package server

import (
	"inkwell/internal/forms"
	"inkwell/internal/render"

	"github.com/gofiber/fiber/v2"
)

// AddComment handles POST /posts/:id/comment/. A valid comment redirects
// back to the post; an invalid one re-renders the detail page with the form
// errors alongside the existing comments.
func (s *Server) AddComment(c *fiber.Ctx) error {
	post, err := s.postByParam(c)
	if err != nil {
		return err
	}
	userID, _ := currentUserID(c)

	form, errs := forms.BindCommentForm(c.FormValue("text"))
	if errs != nil {
		comments, err := s.commentRepo.ListByPost(c.UserContext(), post.ID)
		if err != nil {
			return err
		}
		return s.renderPage(c, fiber.StatusOK, "posts/post_detail.html", render.Map{
			"Post":     post,
			"Comments": comments,
			"Errors":   errs,
		})
	}

	if err := s.commentRepo.Create(c.UserContext(), form.Comment(post.ID, userID)); err != nil {
		return err
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}
