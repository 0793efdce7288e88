package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"prefect-admin/internal/models"
	"prefect-admin/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CurrentUserKey holds the logged-in models.User in the gin context.
const CurrentUserKey = "CurrentUser"

// InjectUser loads the session's user once per request. A session whose
// user no longer exists is cleared; a failed lookup keeps the session.
func InjectUser(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get("user_id").(uint); ok && uid > 0 {
			user, err := s.GetUser(c.Request.Context(), uid)
			if err == nil {
				c.Set(CurrentUserKey, *user)
				// the role in the cookie follows the stored one
				if role, _ := sess.Get("role").(string); role != string(user.Role) {
					sess.Set("role", string(user.Role))
					_ = sess.Save()
				}
			} else if errors.Is(err, store.ErrNotFound) {
				sess.Clear()
				_ = sess.Save()
			} else {
				slog.ErrorContext(c.Request.Context(), "load session user",
					"user_id", uid, "request_id", GetRequestID(c.Request.Context()), "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code": http.StatusInternalServerError,
					"msg":  "internal error",
				})
				return
			}
		}

		c.Next()
	}
}

// CurrentUser returns the user placed by InjectUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}
