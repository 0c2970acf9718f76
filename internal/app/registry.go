package app

import (
	"net/http"
	"sort"

	"go-leave/internal/leave"
	"go-leave/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func registerModules(router *gin.Engine, deps dependencies) error {
	// --- RBAC Core ---
	rbacService, err := rbac.NewService(leavePolicies(), deps.logger)
	if err != nil {
		return err
	}
	if err := logPolicies(rbacService, deps.logger); err != nil {
		return err
	}

	// --- Services ---
	leaveService := leave.NewServiceWithOutbox(deps.store, deps.clock, deps.outbox, deps.logger)

	// --- Handlers ---
	leaveHandler := leave.NewHandler(leaveService, deps.logger)

	// --- Routes Registration ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, rbacService, deps.rdb, deps.logger)
	}

	return nil
}

// leavePolicies turns the lifecycle capability table into route policies.
func leavePolicies() []rbac.Policy {
	var policies []rbac.Policy
	for role, actions := range leave.Capabilities() {
		for _, action := range actions {
			policies = append(policies, rbac.Policy{
				Role:     string(role),
				Resource: "leave",
				Action:   string(action),
			})
		}
	}
	return policies
}

// logPolicies prints the active route policies once at startup.
func logPolicies(svc rbac.Service, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.L()
	}
	policies, err := svc.Policies()
	if err != nil {
		return err
	}
	rules := make([]string, 0, len(policies))
	for _, p := range policies {
		rules = append(rules, p.Role+" "+p.Resource+":"+p.Action)
	}
	sort.Strings(rules)
	logger.Named("app.rbac").Info("rbac policies active", zap.Strings("rules", rules))
	return nil
}
