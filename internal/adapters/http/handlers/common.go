package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"libraryhub/internal/core/domain"
	"libraryhub/internal/core/services"
	"libraryhub/internal/pkg/logger"
	"libraryhub/internal/pkg/response"
	"libraryhub/internal/pkg/validation"
)

// bind parses the body into req and runs its validate tags. The error is
// meant for handleError.
func bind(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	return validation.Struct(req)
}

func parseID(c *fiber.Ctx, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *fiber.Ctx, key string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	id := uint(v)
	return &id, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseDate accepts 2006-01-02 or RFC 3339
func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// getClientIP reads X-Forwarded-For only when the peer is a trusted proxy,
// see middleware.AppConfig
func getClientIP(c *fiber.Ctx) string {
	return c.IP()
}

// actor builds the caller from the locals set by the auth middleware
func actor(c *fiber.Ctx) (services.Actor, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := c.Locals("role").(string)
	return services.Actor{
		UserID:    userID,
		Role:      domain.Role(role),
		IPAddress: getClientIP(c),
	}, true
}

// handleError maps service errors onto the response envelope
func handleError(c *fiber.Ctx, err error, fallback string) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs) && len(verrs) > 0:
		return response.ValidationFailed(c, verrs[0].Message, verrs)
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, domain.Message(err))
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, domain.Message(err))
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, domain.Message(err))
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, domain.Message(err))
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid):
		return response.Unauthorized(c, domain.Message(err))
	case errors.Is(err, context.DeadlineExceeded):
		return response.ServiceUnavailable(c, "Request timed out")
	default:
		logger.GetLogger(c.UserContext()).WithError(err).Errorf("❌ %s", fallback)
		return response.InternalServerError(c, fallback)
	}
}
