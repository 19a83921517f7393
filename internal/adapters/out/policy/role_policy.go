// Package policy is a role based ports.PolicyEngine. Roles map to
// permissions and users map to roles; users not listed get the default roles.
package policy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"orderflow/internal/core/domain/model/screen"
	"orderflow/internal/core/ports"

	"gopkg.in/yaml.v3"
)

// OperatorRole is granted to every user by DefaultSpec.
const OperatorRole = "operator"

// Spec is the YAML document loaded from POLICY_FILE.
//
//	roles:
//	  operator: [orders.intake, orders.prepare]
//	  supervisor: [orders.qa, orders.deliver]
//	users:
//	  alice: [operator, supervisor]
//	default_roles: [operator]
type Spec struct {
	Roles        map[string][]string `yaml:"roles"`
	Users        map[string][]string `yaml:"users"`
	DefaultRoles []string            `yaml:"default_roles"`
}

func (s Spec) Validate() error {
	if len(s.Roles) == 0 {
		return errors.New("policy.roles must be non-empty")
	}
	for _, role := range s.DefaultRoles {
		if _, ok := s.Roles[role]; !ok {
			return fmt.Errorf("policy.default_roles references unknown role %q", role)
		}
	}
	for user, roles := range s.Users {
		if strings.TrimSpace(user) == "" {
			return errors.New("policy.users has an empty user id")
		}
		for _, role := range roles {
			if _, ok := s.Roles[role]; !ok {
				return fmt.Errorf("policy.users[%s] references unknown role %q", user, role)
			}
		}
	}
	return nil
}

// ParseSpec decodes and validates a YAML policy.
func ParseSpec(input []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(input, &spec); err != nil {
		return Spec{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// LoadSpec reads a policy file; an empty path yields DefaultSpec.
func LoadSpec(path string) (Spec, error) {
	if path == "" {
		return DefaultSpec(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read policy file: %w", err)
	}
	return ParseSpec(raw)
}

// DefaultSpec grants every user the permissions of the built-in screens,
// except those of the auto screen which only the system actor uses.
func DefaultSpec() Spec {
	var perms []string
	for _, c := range screen.DefaultContracts() {
		if c.Key == screen.Auto {
			continue
		}
		for _, p := range c.RequiredPermissions {
			if !slices.Contains(perms, p) {
				perms = append(perms, p)
			}
		}
	}
	return Spec{
		Roles:        map[string][]string{OperatorRole: perms},
		DefaultRoles: []string{OperatorRole},
	}
}

// RolePolicy answers permission checks from a Spec. It is immutable after
// construction and safe for concurrent use.
type RolePolicy struct {
	grants   map[string]map[string]struct{}
	defaults map[string]struct{}
}

var _ ports.PolicyEngine = (*RolePolicy)(nil)

func NewRolePolicy(spec Spec) (*RolePolicy, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	expand := func(roles []string) map[string]struct{} {
		out := make(map[string]struct{})
		for _, role := range roles {
			for _, p := range spec.Roles[role] {
				out[p] = struct{}{}
			}
		}
		return out
	}

	p := &RolePolicy{
		grants:   make(map[string]map[string]struct{}, len(spec.Users)),
		defaults: expand(spec.DefaultRoles),
	}
	for user, roles := range spec.Users {
		p.grants[user] = expand(roles)
	}
	return p, nil
}

// Allowed reports whether the user holds req.Permission. Tenant and resource
// are not consulted by the role map.
func (p *RolePolicy) Allowed(ctx context.Context, req ports.PolicyRequest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if req.UserID == "" || req.Permission == "" {
		return false, nil
	}

	perms, ok := p.grants[req.UserID]
	if !ok {
		perms = p.defaults
	}
	_, allowed := perms[req.Permission]
	return allowed, nil
}
