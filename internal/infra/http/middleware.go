package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"todod/internal/domain"
	"todod/internal/infra/ratelimit"
	"todod/internal/logging"
	"todod/internal/usecase"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// sessionMiddleware brackets the rest of the chain with one database session.
// Close runs on every exit path, panics included.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.todos == nil {
			writeError(c, domain.ErrUnavailable)
			return
		}
		sess, err := s.todos.OpenSession(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		defer func() {
			if err := sess.Close(); err != nil {
				s.logger.Warn("close session", "err", err, "request_id", logging.RequestID(c))
			}
		}()
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFromContext(c *gin.Context) (usecase.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		writeError(c, fmt.Errorf("%w: no session bound to request", domain.ErrUnavailable))
		return nil, false
	}
	sess, ok := value.(usecase.Session)
	if !ok {
		writeError(c, fmt.Errorf("session has type %T", value))
		return nil, false
	}
	return sess, true
}

// rateLimit counts requests per client against one todo operation.
func (s *Server) rateLimit(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.rateLimiter == nil || s.rateLimitRequests <= 0 {
			c.Next()
			return
		}
		key := ratelimit.OperationKey(c.ClientIP(), operation)
		decision, err := s.rateLimiter.Allow(c.Request.Context(), key, s.rateLimitRequests, s.rateLimitWindow)
		if err != nil {
			if s.rateLimitFailClosed {
				writeDetail(c, http.StatusTooManyRequests, "Rate limiter unavailable")
				return
			}
			s.logger.Warn("rate limiter failed open", "err", err)
			c.Next()
			return
		}
		writeRateLimitHeaders(c, decision)
		if !decision.Allowed {
			writeDetail(c, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		c.Next()
	}
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
