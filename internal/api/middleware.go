package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/study"
)

const sessionKey = "session"

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("X-Request-ID", id)

		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		applog.Debug("request",
			"id", id,
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", status,
			"dur", time.Since(start).String(),
		)
		return err
	}
}

// auth verifies the HS256 bearer token and stores the session of its
// subject for the handlers.
func (s *Server) auth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims := &jwt.RegisteredClaims{}
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}); err != nil {
			applog.Debug("token rejected", "err", err)
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		sess := study.Session{UserID: strings.TrimSpace(claims.Subject)}
		if !sess.Valid() {
			return fiber.NewError(fiber.StatusUnauthorized, "token has no subject")
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization must be a bearer token")
	}
	return strings.TrimSpace(token), nil
}

func session(c *fiber.Ctx) study.Session {
	sess, _ := c.Locals(sessionKey).(study.Session)
	return sess
}
