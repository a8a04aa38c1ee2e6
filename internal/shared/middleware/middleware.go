package middleware

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hackload-kz/rorobotics/internal/shared/constants"
	"github.com/hackload-kz/rorobotics/internal/users"
	"github.com/hackload-kz/rorobotics/pkg/cache"
	"github.com/hackload-kz/rorobotics/pkg/logger"
	"github.com/hackload-kz/rorobotics/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ContextKeyUser is where the authenticated user lands in the gin context.
const ContextKeyUser = "auth_user"

// AuthUser is the request identity attached by BasicAuth.
type AuthUser struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
}

// BasicAuth authenticates requests with HTTP Basic credentials against
// the users table. Successful checks are cached in redis keyed by
// email plus a hash of the password, so the hot path skips the
// database. last_logged_in is written at most once per throttle window.
type BasicAuth struct {
	repo         users.Repository
	cacheService cache.Service
	redis        *redis.Client
	cacheTTL     time.Duration
}

func NewBasicAuth(repo users.Repository, cacheService cache.Service, redisClient *redis.Client, cacheTTL time.Duration) *BasicAuth {
	return &BasicAuth{
		repo:         repo,
		cacheService: cacheService,
		redis:        redisClient,
		cacheTTL:     cacheTTL,
	}
}

// Handler returns the gin middleware.
func (a *BasicAuth) Handler() gin.HandlerFunc {
	log := logger.GetDefault()

	return func(c *gin.Context) {
		email, password, ok := parseBasicAuth(c.GetHeader("Authorization"))
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="ticketing"`)
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		authKey := constants.BuildAuthKey(email, hashPassword(password))

		// Cached credential check first
		if a.cacheService != nil {
			var cached AuthUser
			if err := a.cacheService.Get(c.Request.Context(), authKey, &cached); err == nil {
				c.Set(ContextKeyUser, cached)
				a.touchLastLoggedIn(c, cached.UserID)
				c.Next()
				return
			}
		}

		user, err := a.repo.GetByEmail(c.Request.Context(), email)
		if err != nil || !user.IsActive || !user.VerifyPassword(password) {
			log.LogAuthFailure(c.Request.Context(), "bad credentials", c.ClientIP())
			c.Header("WWW-Authenticate", `Basic realm="ticketing"`)
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		authUser := AuthUser{
			UserID:    user.UserID,
			Email:     user.Email,
			FirstName: user.FirstName,
			Surname:   user.Surname,
		}

		if a.cacheService != nil {
			_ = a.cacheService.Set(c.Request.Context(), authKey, authUser, a.cacheTTL)
		}

		c.Set(ContextKeyUser, authUser)
		a.touchLastLoggedIn(c, authUser.UserID)
		c.Next()
	}
}

// touchLastLoggedIn updates the user's last_logged_in timestamp, rate
// limited to one write per window via SET NX.
func (a *BasicAuth) touchLastLoggedIn(c *gin.Context, userID int64) {
	if a.redis != nil {
		throttleKey := "auth:last_login_touch:" + strconv.FormatInt(userID, 10)
		set, err := a.redis.SetNX(c.Request.Context(), throttleKey, 1, 15*time.Minute).Result()
		if err == nil && !set {
			return
		}
	}
	if err := a.repo.TouchLastLoggedIn(c.Request.Context(), userID); err != nil {
		logger.GetDefault().Warn("failed to touch last_logged_in", "user_id", userID, "error", err)
	}
}

// CurrentUser returns the authenticated user attached by BasicAuth.
func CurrentUser(c *gin.Context) (AuthUser, bool) {
	value, exists := c.Get(ContextKeyUser)
	if !exists {
		return AuthUser{}, false
	}
	user, ok := value.(AuthUser)
	return user, ok
}

func parseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	credentials := string(decoded)
	idx := strings.IndexByte(credentials, ':')
	if idx < 0 {
		return "", "", false
	}

	return credentials[:idx], credentials[idx+1:], true
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
