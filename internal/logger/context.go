package logger

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ContextKey là kiểu key cho các giá trị log trong context
type ContextKey string

const (
	// RequestIDKey là key chứa request id trong context
	RequestIDKey ContextKey = "request_id"
	// UserIDKey là key chứa user id trong context
	UserIDKey ContextKey = "user_id"
)

// WithContext trả về entry đã gắn các field từ context (request_id, user_id)
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(GetAppLogger())
	if ctx == nil {
		return entry
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		entry = entry.WithField("user_id", userID)
	}
	return entry
}

// WithRequest trả về entry đã gắn thông tin request từ Fiber context
func WithRequest(c fiber.Ctx) *logrus.Entry {
	entry := logrus.NewEntry(GetAppLogger())
	if c == nil {
		return entry
	}
	entry = entry.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	})
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}
