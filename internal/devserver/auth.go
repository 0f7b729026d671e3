package devserver

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/projectflow/projectflow/internal/model"
)

const tokenTTL = 7 * 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	Avatar string     `json:"avatar,omitempty"`
	Token  string     `json:"token"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "name, email, and a password of at least 8 characters are required")
	}

	role := model.Role(req.Role)
	if !role.Valid() {
		role = model.RoleTeamMember
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	userID := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO users (id, name, email, password_hash, role, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, req.Name, strings.ToLower(req.Email), string(hash), string(role), req.Avatar, now())
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fail(c, http.StatusConflict, "a user with that email already exists")
		}
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return s.respondWithToken(c, userID)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	var userID, hash string
	err := s.db.QueryRow(`SELECT id, password_hash FROM users WHERE email = $1`,
		strings.ToLower(req.Email)).Scan(&userID, &hash)
	if err == sql.ErrNoRows {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return fail(c, http.StatusUnauthorized, "invalid email or password")
	}

	return s.respondWithToken(c, userID)
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) respondWithToken(c echo.Context, userID string) error {
	user, err := s.getUser(userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, authResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		Avatar: user.AvatarURL,
		Token:  token,
	})
}

// authMiddleware validates the bearer token and loads the acting user
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return fail(c, http.StatusUnauthorized, "authorization required")
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		if raw == auth {
			return fail(c, http.StatusUnauthorized, "invalid authorization format")
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			return fail(c, http.StatusUnauthorized, "invalid token")
		}

		claims := token.Claims.(*jwt.RegisteredClaims)
		user, err := s.getUser(claims.Subject)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "invalid token")
		}

		c.Set("user", user)
		return next(c)
	}
}

// currentUser returns the actor the auth middleware attached
func currentUser(c echo.Context) model.User {
	u, _ := c.Get("user").(model.User)
	return u
}
