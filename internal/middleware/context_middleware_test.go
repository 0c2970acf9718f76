package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var rid, uid string
	r := gin.New()
	r.GET("/x",
		func(c *gin.Context) { c.Set("user_id_validated", "user-1") },
		ContextLogger(zap.NewNop()),
		func(c *gin.Context) {
			meta := contextutil.ExtractMetadata(c.Request.Context())
			rid, uid = meta.RequestID, meta.UserID
			c.Status(http.StatusNoContent)
		},
	)

	t.Run("keeps incoming request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("X-Request-ID", "rid-1")
		r.ServeHTTP(w, req)

		assert.Equal(t, "rid-1", rid)
		assert.Equal(t, "user-1", uid)
		assert.Equal(t, "rid-1", w.Header().Get("X-Request-ID"))
	})

	t.Run("generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		assert.NotEmpty(t, rid)
		assert.Equal(t, rid, w.Header().Get("X-Request-ID"))
	})
}
