package middleware

import (
	"github.com/GriffinCanCode/rnpad/internal/domain/identity"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/shared/id"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const browserIDKey = "browser_id"

// IdentityConfig configures the Identity middleware
type IdentityConfig struct {
	Cookie  identity.CookieOptions
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Identity resolves the anonymous browser identity from the cookie jar,
// issuing a cookie on first visit, and stores it on the context.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		opts := []identity.Option{identity.WithLogger(logger)}
		if cfg.Metrics != nil {
			opts = append(opts, identity.WithFallbackHook(func(error) {
				cfg.Metrics.IdentityFallback.Inc()
			}))
		}

		provider := identity.NewProvider(identity.NewCookieStore(c, cfg.Cookie), opts...)
		c.Set(browserIDKey, provider.GetOrCreate(c.Request.Context()))
		c.Next()
	}
}

// BrowserID returns the identity resolved by Identity
func BrowserID(c *gin.Context) (id.BrowserID, bool) {
	val, ok := c.Get(browserIDKey)
	if !ok {
		return "", false
	}
	bid, ok := val.(id.BrowserID)
	return bid, ok && bid != ""
}
