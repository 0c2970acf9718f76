package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeEnforcer struct {
	allowed map[string]bool
	err     error
}

func (f *fakeEnforcer) Enforce(role, resource, action string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[role+":"+resource+":"+action], nil
}

func serveWithRole(svc RBACService, role string) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/leaves",
		func(c *gin.Context) {
			if role != "" {
				c.Set("role", role)
			}
		},
		RBACAuthorize(svc, "leave", "apply"),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leaves", nil))
	return w.Code
}

func TestRBACAuthorize(t *testing.T) {
	svc := &fakeEnforcer{allowed: map[string]bool{"EMPLOYEE:leave:apply": true}}

	assert.Equal(t, http.StatusCreated, serveWithRole(svc, "EMPLOYEE"))
	assert.Equal(t, http.StatusForbidden, serveWithRole(svc, "MANAGER"))
	assert.Equal(t, http.StatusUnauthorized, serveWithRole(svc, ""))
	assert.Equal(t, http.StatusInternalServerError, serveWithRole(&fakeEnforcer{err: errors.New("boom")}, "EMPLOYEE"))
}
