package rbac

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// modelText grants a role an action on a resource. Roles are flat; who the
// request belongs to is decided in the domain layer.
const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

type Policy struct {
	Role     string
	Resource string
	Action   string
}

type Service interface {
	Enforce(role, resource, action string) (bool, error)
	Policies() ([]Policy, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	return casbin.NewEnforcer(m)
}

// NewService builds an in-memory enforcer seeded with policies.
func NewService(policies []Policy, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	e, err := NewEnforcer()
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p.Role, p.Resource, p.Action); err != nil {
			return nil, fmt.Errorf("add policy %s %s:%s: %w", p.Role, p.Resource, p.Action, err)
		}
	}
	l.Info("rbac policies loaded", zap.Int("policies", len(policies)))

	return &service{enforcer: e, logger: l}, nil
}

func (s *service) Enforce(role, resource, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(role, resource, action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", role),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", role),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

// Policies lists the rules the enforcer currently holds.
func (s *service) Policies() ([]Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules, err := s.enforcer.GetPolicy()
	if err != nil {
		return nil, fmt.Errorf("rbac policies: %w", err)
	}
	out := make([]Policy, 0, len(rules))
	for _, r := range rules {
		if len(r) < 3 {
			continue
		}
		out = append(out, Policy{Role: r[0], Resource: r[1], Action: r[2]})
	}
	return out, nil
}
