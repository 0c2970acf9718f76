package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rbacResource = "leave"

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	leaves.Use(middleware.ContextLogger(logger))
	{
		leaves.POST("",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionApply)),
			middleware.Idempotency(rdb),
			handler.Apply,
		)

		leaves.GET("/mine",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionRead)),
			handler.ListMine,
		)

		leaves.GET("/mine/summary",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionRead)),
			handler.MineSummary,
		)

		leaves.GET("/managed",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionRead)),
			handler.ListManaged,
		)

		leaves.GET("/managed/summary",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionRead)),
			handler.ManagedSummary,
		)

		leaves.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionRead)),
			handler.GetByID,
		)

		leaves.PUT("/:id",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionUpdate)),
			handler.Update,
		)

		leaves.POST("/:id/cancel",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionCancel)),
			middleware.Idempotency(rdb),
			handler.Cancel,
		)

		leaves.POST("/:id/approve",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionApprove)),
			middleware.Idempotency(rdb),
			handler.Approve,
		)

		leaves.POST("/:id/reject",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbacResource, string(ActionReject)),
			middleware.Idempotency(rdb),
			handler.Reject,
		)
	}
}
