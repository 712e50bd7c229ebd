package transport

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"storefront-backend/internal/identity"
	"storefront-backend/internal/model"
	"storefront-backend/internal/service"
)

const (
	identityKey     = "identity"
	requestIDHeader = "X-Request-ID"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		log.WithFields(log.Fields{
			"requestId":  requestID,
			"method":     c.Request.Method,
			"url":        c.Request.URL.String(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"remoteAddr": c.ClientIP(),
			"userAgent":  c.Request.UserAgent(),
		}).Info("handled request")
	}
}

func authenticate(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := verifier.Resolve(c.Request)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// requireAdmin rejects callers whose user record is not flagged as admin.
func requireAdmin(accounts service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.Profile(c.Request.Context(), currentIdentity(c).Subject)
		if errors.Is(err, model.ErrUserNotFound) {
			respondError(c, errors.Wrap(model.ErrForbidden, "admin access required"))
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		if !user.IsAdmin {
			respondError(c, errors.Wrap(model.ErrForbidden, "admin access required"))
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) identity.Identity {
	id, _ := c.Get(identityKey)
	resolved, _ := id.(identity.Identity)
	return resolved
}
