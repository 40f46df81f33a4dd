package server

import (
	"log/slog"
	"strings"

	"inkwell/internal/forms"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// safeNext restricts post-login redirects to local paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// SignupPage handles GET /auth/signup/
func (s *Server) SignupPage(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); ok {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.renderPage(c, fiber.StatusOK, "auth/signup.html", nil)
}

// Signup handles POST /auth/signup/
func (s *Server) Signup(c *fiber.Ctx) error {
	form, errs := forms.BindSignupForm(
		strings.TrimSpace(c.FormValue("username")),
		strings.TrimSpace(c.FormValue("email")),
		c.FormValue("password"),
	)
	if errs != nil {
		return s.renderPage(c, fiber.StatusOK, "auth/signup.html", render.Map{
			"Errors":   errs,
			"Username": c.FormValue("username"),
			"Email":    c.FormValue("email"),
		})
	}

	if _, err := s.userRepo.GetByUsername(c.UserContext(), form.Username); err == nil {
		return s.renderPage(c, fiber.StatusOK, "auth/signup.html", render.Map{
			"Errors":   forms.Errors{"username": "This username is taken."},
			"Username": form.Username,
			"Email":    form.Email,
		})
	}
	if _, err := s.userRepo.GetByEmail(c.UserContext(), form.Email); err == nil {
		return s.renderPage(c, fiber.StatusOK, "auth/signup.html", render.Map{
			"Errors":   forms.Errors{"email": "This email is already registered."},
			"Username": form.Username,
			"Email":    form.Email,
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: string(hash),
	}
	if err := s.userRepo.Create(c.UserContext(), user); err != nil {
		// A concurrent signup can slip past the lookups above and land on
		// the unique index instead.
		if models.IsCode(err, "ALREADY_EXISTS") {
			return s.renderPage(c, fiber.StatusOK, "auth/signup.html", render.Map{
				"Errors":   forms.Errors{"username": "This username is taken."},
				"Username": form.Username,
				"Email":    form.Email,
			})
		}
		return err
	}

	slog.InfoContext(c.UserContext(), "user signed up", "username", user.Username)
	return s.signIn(c, user, "/")
}

// LoginPage handles GET /auth/login/
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, ok := currentUserID(c); ok {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.renderPage(c, fiber.StatusOK, "auth/login.html", render.Map{
		"Next": safeNext(c.Query("next")),
	})
}

// Login handles POST /auth/login/
func (s *Server) Login(c *fiber.Ctx) error {
	next := safeNext(c.FormValue("next"))

	form, errs := forms.BindLoginForm(
		strings.TrimSpace(c.FormValue("username")),
		c.FormValue("password"),
	)
	if errs != nil {
		return s.renderPage(c, fiber.StatusOK, "auth/login.html", render.Map{
			"Errors":   errs,
			"Username": c.FormValue("username"),
			"Next":     next,
		})
	}

	failed := func() error {
		return s.renderPage(c, fiber.StatusOK, "auth/login.html", render.Map{
			"Errors":   forms.Errors{"__all__": "Invalid username or password."},
			"Username": form.Username,
			"Next":     next,
		})
	}

	user, err := s.userRepo.GetByUsername(c.UserContext(), form.Username)
	if err != nil {
		return failed()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		return failed()
	}

	return s.signIn(c, user, next)
}

// Logout handles GET /auth/logout/
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(middleware.ExpiredSessionCookie())
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) signIn(c *fiber.Ctx, user *models.User, next string) error {
	token, err := middleware.IssueSession(user.ID, user.IsAdmin)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(middleware.SessionCookieFor(token))
	return c.Redirect(next, fiber.StatusFound)
}
