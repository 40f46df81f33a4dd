package server

import (
	"io"
	"strconv"

	"inkwell/internal/forms"
	"inkwell/internal/models"
	"inkwell/internal/render"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET /. The rendered body is cached briefly, so a freshly
// created post may take up to the cache TTL to appear.
func (s *Server) Index(c *fiber.Ctx) error {
	key := s.pages.Key(c.Path(), string(c.Request().URI().QueryString()))
	if body, ok := s.pages.Get(c.UserContext(), key); ok {
		return sendHTML(c, fiber.StatusOK, body)
	}

	number := pageNumber(c)
	posts, err := s.postRepo.List(c.UserContext(), pageSize, offsetFor(number))
	if err != nil {
		return err
	}
	total, err := s.postRepo.CountAll(c.UserContext())
	if err != nil {
		return err
	}

	body, err := s.renderBody(c, "posts/index.html", render.Map{
		"Title":   "Latest posts",
		"PageObj": paginate(posts, total, number),
	})
	if err != nil {
		return err
	}

	s.pages.Set(c.UserContext(), key, body)
	return sendHTML(c, fiber.StatusOK, body)
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx) error {
	group, err := s.groupRepo.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}

	number := pageNumber(c)
	posts, err := s.postRepo.ListByGroup(c.UserContext(), group.ID, pageSize, offsetFor(number))
	if err != nil {
		return err
	}
	total, err := s.postRepo.CountByGroup(c.UserContext(), group.ID)
	if err != nil {
		return err
	}

	return s.renderPage(c, fiber.StatusOK, "posts/group_list.html", render.Map{
		"Group":   group,
		"PageObj": paginate(posts, total, number),
	})
}

// Profile handles GET /profile/:username/
func (s *Server) Profile(c *fiber.Ctx) error {
	author, err := s.userRepo.GetByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}

	number := pageNumber(c)
	posts, err := s.postRepo.ListByAuthor(c.UserContext(), author.ID, pageSize, offsetFor(number))
	if err != nil {
		return err
	}
	total, err := s.postRepo.CountByAuthor(c.UserContext(), author.ID)
	if err != nil {
		return err
	}

	following := false
	if viewerID, ok := currentUserID(c); ok && viewerID != author.ID {
		following, err = s.followRepo.IsFollowing(c.UserContext(), viewerID, author.ID)
		if err != nil {
			return err
		}
	}

	return s.renderPage(c, fiber.StatusOK, "posts/profile.html", render.Map{
		"Author":    author,
		"PageObj":   paginate(posts, total, number),
		"PostCount": total,
		"Following": following,
	})
}

// PostDetail handles GET /posts/:id/
func (s *Server) PostDetail(c *fiber.Ctx) error {
	post, err := s.postByParam(c)
	if err != nil {
		return err
	}

	comments, err := s.commentRepo.ListByPost(c.UserContext(), post.ID)
	if err != nil {
		return err
	}

	return s.renderPage(c, fiber.StatusOK, "posts/post_detail.html", render.Map{
		"Post":     post,
		"Comments": comments,
	})
}

// CreatePostPage handles GET /create/
func (s *Server) CreatePostPage(c *fiber.Ctx) error {
	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	return s.renderPage(c, fiber.StatusOK, "posts/create_post.html", render.Map{
		"Groups": groups,
	})
}

// CreatePost handles POST /create/. A valid submission redirects to the
// author's profile; an invalid one re-renders the form with its errors.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	form, errs := s.bindPostSubmission(c)
	if errs != nil {
		return s.rerenderPostForm(c, "posts/create_post.html", errs, nil)
	}

	post := form.Post(userID)
	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		return err
	}

	author, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.Redirect("/profile/"+author.Username+"/", fiber.StatusFound)
}

// EditPostPage handles GET /posts/:id/edit/. Only the author may edit;
// everyone else is bounced to the post detail page.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	post, err := s.postByParam(c)
	if err != nil {
		return err
	}
	if userID, _ := currentUserID(c); userID != post.AuthorID {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	var selected uint
	if post.GroupID != nil {
		selected = *post.GroupID
	}
	return s.renderPage(c, fiber.StatusOK, "posts/create_post.html", render.Map{
		"Post":    post,
		"Groups":  groups,
		"IsEdit":  true,
		"Text":    post.Text,
		"GroupID": selected,
	})
}

// EditPost handles POST /posts/:id/edit/
func (s *Server) EditPost(c *fiber.Ctx) error {
	post, err := s.postByParam(c)
	if err != nil {
		return err
	}
	if userID, _ := currentUserID(c); userID != post.AuthorID {
		return c.Redirect(postURL(post.ID), fiber.StatusFound)
	}

	form, errs := s.bindPostSubmission(c)
	if errs != nil {
		return s.rerenderPostForm(c, "posts/create_post.html", errs, post)
	}

	form.Apply(post)
	if err := s.postRepo.Update(c.UserContext(), post); err != nil {
		return err
	}
	return c.Redirect(postURL(post.ID), fiber.StatusFound)
}

// ServeMedia handles GET /media/* for uploaded images.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	abs, err := s.media.Open(c.Params("*"))
	if err != nil {
		return err
	}
	return c.SendFile(abs)
}

// bindPostSubmission reads the post form fields plus the optional image
// upload, storing the image through the media store when present.
func (s *Server) bindPostSubmission(c *fiber.Ctx) (*forms.PostForm, forms.Errors) {
	form, errs := forms.BindPostForm(c.FormValue("text"), c.FormValue("group"))
	if errs != nil {
		return nil, errs
	}

	file, err := c.FormFile("image")
	if err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return nil, forms.Errors{"image": "Unable to read uploaded file."}
		}
		defer func() { _ = src.Close() }()

		content, err := io.ReadAll(src)
		if err != nil {
			return nil, forms.Errors{"image": "Unable to read uploaded file."}
		}
		rel, err := s.media.Save(file.Filename, content)
		if err != nil {
			if models.IsCode(err, "VALIDATION_ERROR") {
				return nil, forms.Errors{"image": "Upload a valid image."}
			}
			return nil, forms.Errors{"image": "Unable to store uploaded file."}
		}
		form.Image = rel
	}

	return form, nil
}

func (s *Server) rerenderPostForm(c *fiber.Ctx, name string, errs forms.Errors, post *models.Post) error {
	groups, err := s.groupRepo.List(c.UserContext())
	if err != nil {
		return err
	}
	data := render.Map{
		"Errors": errs,
		"Groups": groups,
		"Text":   c.FormValue("text"),
	}
	if post != nil {
		data["Post"] = post
		data["IsEdit"] = true
	}
	return s.renderPage(c, fiber.StatusOK, name, data)
}

// postByParam loads the post addressed by the :id route parameter.
func (s *Server) postByParam(c *fiber.Ctx) (*models.Post, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, models.NewNotFoundError("Post", c.Params("id"))
	}
	return s.postRepo.GetByID(c.UserContext(), uint(id))
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// renderBody renders a page to bytes without sending it, for handlers that
// cache the body.
func (s *Server) renderBody(c *fiber.Ctx, name string, data render.Map) ([]byte, error) {
	data["Path"] = c.Path()
	if token, ok := c.Locals("csrf").(string); ok {
		data["CSRFToken"] = token
	}
	if _, present := data["User"]; !present {
		data["User"] = s.sessionUser(c)
	}
	return s.renderer.Render(name, data)
}
