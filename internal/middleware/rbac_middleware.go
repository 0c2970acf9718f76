package middleware

import (
	"net/http"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by any enforcer keyed on role, resource and action.
type RBACService interface {
	Enforce(role, resource, action string) (bool, error)
}

// RBACAuthorize rejects the request before the handler runs when the
// caller's role holds no policy for resource:action. Ownership checks stay
// in the domain layer.
func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			abortWith(c, apperror.New(apperror.CodeUnauthorized, "Missing auth context", http.StatusUnauthorized))
			return
		}

		allowed, err := service.Enforce(role, resource, action)
		if err != nil {
			abortWith(c, apperror.ErrInternal)
			return
		}

		if !allowed {
			response.Error(c, apperror.ErrForbidden.HTTPStatus, apperror.ErrForbidden.Code, apperror.ErrForbidden.Message,
				map[string]string{"required": resource + ":" + action})
			c.Abort()
			return
		}
		c.Next()
	}
}
