package transport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"storefront-backend/internal/model"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{model.ErrInvalidInput, http.StatusBadRequest},
	{model.ErrUnauthenticated, http.StatusUnauthorized},
	{model.ErrForbidden, http.StatusForbidden},
	{model.ErrUserNotFound, http.StatusNotFound},
	{model.ErrCartLineNotFound, http.StatusNotFound},
	{model.ErrOrderNotFound, http.StatusNotFound},
	{model.ErrProductNotFound, http.StatusNotFound},
	{model.ErrConflict, http.StatusConflict},
	{model.ErrVersionConflict, http.StatusConflict},
}

func statusOf(err error) int {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// messageOf renders err for the client. Input and authentication errors are wrapped with a
// human readable message, so the generic sentinel suffix is dropped for them.
func messageOf(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{model.ErrInvalidInput, model.ErrUnauthenticated} {
		if errors.Is(err, sentinel) && msg != sentinel.Error() {
			return strings.TrimSuffix(msg, ": "+sentinel.Error())
		}
	}
	return msg
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	entry := log.WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"status": status,
	}).WithError(err)
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": messageOf(err)})
}

func respond(c *gin.Context, status int, body gin.H) {
	body["success"] = true
	c.JSON(status, body)
}
