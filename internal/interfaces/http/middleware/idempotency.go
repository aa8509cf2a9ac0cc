package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendfleet/backend/internal/domain/shared"
	"github.com/vendfleet/backend/internal/infrastructure/logger"
	"github.com/vendfleet/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client's idempotency key
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the stored key size
const maxIdempotencyKeyLength = 128

// Idempotency rejects a repeated write carrying an Idempotency-Key the company already
// used within ttl. Requests without the header pass through. A request that fails with
// a 5xx releases its key so that the client can retry it. When the store itself fails
// the request is let through and the failure logged.
// Register it after JWTAuth.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidInput, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}
		companyID, ok := GetCompanyID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		scoped := companyID.String() + ":" + key
		fresh, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			logger.L(ctx).Warn("Idempotency store unavailable, processing request",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, shared.ErrDuplicateRequest.Message, GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := store.Forget(ctx, scoped); err != nil {
				logger.L(ctx).Warn("Failed to release idempotency key",
					zap.String("idempotency_key", key),
					zap.Error(err),
				)
			}
		}
	}
}
