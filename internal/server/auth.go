package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/featureflags"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// LoginURL is where anonymous users are sent for views requiring a login.
	LoginURL = "/auth/login/"
	// TokenCookie holds the session token.
	TokenCookie = "access_token"

	tokenIssuer   = "yatube"
	tokenAudience = "yatube-web"
	tokenTTL      = 14 * 24 * time.Hour

	localClaims = "tokenClaims"
)

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// generateToken creates a signed session token for user.
func (s *Server) generateToken(user *models.User, now time.Time) (string, *tokenClaims, error) {
	if s.config.JWTSecret == "" {
		return "", nil, fmt.Errorf("JWT secret not configured")
	}
	claims := &tokenClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// parseToken validates signature, issuer, audience and lifetime.
func (s *Server) parseToken(tokenString string) (*tokenClaims, uint, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(s.config.JWTSecret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, 0, errors.New("invalid or expired token")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, 0, errors.New("invalid subject claim")
	}
	return claims, uint(userID), nil
}

func tokenFromRequest(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		parts := strings.Split(auth, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return c.Cookies(TokenCookie)
}

// CurrentUser identifies the caller from the session cookie or a Bearer
// token. Missing, invalid or revoked tokens leave the request anonymous.
func (s *Server) CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			return c.Next()
		}

		claims, userID, err := s.parseToken(tokenString)
		if err != nil {
			return c.Next()
		}

		revoked, err := cache.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation check failed",
				slog.String("error", err.Error()))
		}
		if revoked {
			return c.Next()
		}

		c.Locals(middleware.LocalUserID, userID)
		c.Locals(localClaims, claims)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// currentUserID returns the authenticated user's ID, or 0 for anonymous callers.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		return id
	}
	return 0
}

// LoginRequired redirects anonymous callers to the login page with the
// requested path in `next`.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUserID(c) == 0 {
			return redirectToLogin(c)
		}
		return c.Next()
	}
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect(LoginURL+"?next="+escapeNext(c.OriginalURL()), fiber.StatusFound)
}

// escapeNext query-escapes a return path but keeps its slashes readable.
func escapeNext(path string) string {
	return strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

// safeNext returns next when it is a local path, otherwise "/".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

func nextParam(c *fiber.Ctx) string {
	if next := c.FormValue("next"); next != "" {
		return next
	}
	return c.Query("next")
}

func (s *Server) setSession(c *fiber.Ctx, user *models.User) error {
	now := time.Now()
	token, claims, err := s.generateToken(user, now)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// Login handles GET|POST /auth/login/
func (s *Server) Login(c *fiber.Ctx) error {
	form := forms.NewLoginForm()
	next := nextParam(c)

	if c.Method() == fiber.MethodPost {
		var data forms.LoginData
		if err := c.BodyParser(&data); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if form.Bind(data).Validate() {
			user, err := s.userService.Authenticate(c.UserContext(), form.Data.Username, data.Password)
			switch {
			case errors.Is(err, service.ErrInvalidCredentials):
				form.Fail()
			case err != nil:
				return err
			default:
				if err := s.setSession(c, user); err != nil {
					return err
				}
				return c.Redirect(safeNext(next), fiber.StatusFound)
			}
		}
	}

	return s.render(c, fiber.StatusOK, TemplateLogin, fiber.Map{
		"form": form.Context(),
		"next": next,
	})
}

// Signup handles GET|POST /auth/signup/
func (s *Server) Signup(c *fiber.Ctx) error {
	if !s.featureFlags.On(featureflags.SignupOpen) {
		return models.NewNotFoundError("Page", c.Path())
	}

	form := forms.NewSignupForm()
	if c.Method() == fiber.MethodPost {
		var data forms.SignupData
		if err := c.BodyParser(&data); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if form.Bind(data).Validate() {
			user, err := s.userService.Register(c.UserContext(), form.Data)
			switch {
			case models.IsValidation(err):
				form.Errors.Add("username", forms.MsgUsernameTaken)
			case err != nil:
				return err
			default:
				if err := s.setSession(c, user); err != nil {
					return err
				}
				return c.Redirect("/", fiber.StatusFound)
			}
		}
	}

	return s.render(c, fiber.StatusOK, TemplateSignup, fiber.Map{
		"form": form.Context(),
	})
}

// Logout handles /auth/logout/: the token is revoked until it would expire.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals(localClaims).(*tokenClaims); ok && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := cache.Revoke(c.UserContext(), claims.ID, ttl); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke token",
				slog.String("error", err.Error()))
		}
	}
	c.ClearCookie(TokenCookie)
	return c.Redirect("/", fiber.StatusFound)
}
