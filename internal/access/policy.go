package access

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/storewatch/backend/internal/models"
)

// API resources guarded by the role policy.
const (
	ResourceIncidents = "incidents"
	ResourceBranches  = "branches"
	ResourceSettings  = "settings"
	ResourceAnalysis  = "analysis"
	ResourceMedia     = "media"
	ResourceUsers     = "users"
	ResourceUsage     = "usage"
)

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionExport = "export"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// superadmin inherits every user permission.
var defaultPolicies = [][]string{
	{string(models.RoleUser), ResourceIncidents, ActionRead},
	{string(models.RoleUser), ResourceIncidents, ActionCreate},
	{string(models.RoleUser), ResourceIncidents, ActionUpdate},
	{string(models.RoleUser), ResourceBranches, ActionRead},
	{string(models.RoleUser), ResourceSettings, ActionRead},
	{string(models.RoleUser), ResourceAnalysis, ActionCreate},
	{string(models.RoleUser), ResourceMedia, ActionCreate},
	{string(models.RoleSuperAdmin), "*", "*"},
}

// Policy answers whether a role may perform an action on an API resource.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy(string(models.RoleSuperAdmin), string(models.RoleUser)); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Allowed(role models.Role, resource, action string) (bool, error) {
	if !role.Valid() {
		return false, nil
	}
	return p.enforcer.Enforce(string(role), resource, action)
}
