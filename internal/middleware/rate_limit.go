package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/stringer07/factor-mining/internal/errors"
)

// RateLimit 全局令牌桶限流
func RateLimit(requestsPerSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			appErr := errors.NewAppError(errors.ErrCodeRateLimit, "too many requests", nil).
				WithRequestID(GetRequestID(c))
			c.JSON(appErr.HTTPStatus(), errors.NewErrorResponse(appErr, c.Request.URL.Path))
			c.Abort()
			return
		}
		c.Next()
	}
}
