package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/forgo/guilds/internal/model"
)

// RoleCatalog is the configured role ladder. Level 0 is the master; the
// highest level is the role new members join with.
type RoleCatalog struct {
	roles []model.Role // sorted by level, contiguous from 0
	nodes []string
}

// NewRoleCatalog validates and indexes the given roles
func NewRoleCatalog(roles []model.Role) (*RoleCatalog, error) {
	if len(roles) == 0 {
		return nil, ErrInvalidConfiguration.With("reason", "no roles defined")
	}

	sorted := make([]model.Role, len(roles))
	copy(sorted, roles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })

	var errs []error
	var nodes []string
	for i, r := range sorted {
		if r.Level != i {
			errs = append(errs, roleError(r.Level, fmt.Sprintf("expected level %d", i)))
			continue
		}
		for _, a := range r.Actions {
			if !a.IsValid() {
				errs = append(errs, roleError(r.Level, fmt.Sprintf("unknown action %q", a)))
			}
		}
		if r.Node != "" {
			nodes = append(nodes, r.Node)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(nodes)

	return &RoleCatalog{roles: sorted, nodes: nodes}, nil
}

func roleError(level int, reason string) error {
	return ErrInvalidConfiguration.With("role", fmt.Sprint(level), "reason", reason)
}

// Get returns the role at the given level
func (c *RoleCatalog) Get(level int) (model.Role, bool) {
	if level < 0 || level >= len(c.roles) {
		return model.Role{}, false
	}
	return c.roles[level], true
}

// Master returns the level-0 role
func (c *RoleCatalog) Master() model.Role {
	return c.roles[0]
}

// Lowest returns the role with the least authority, assigned on join
func (c *RoleCatalog) Lowest() model.Role {
	return c.roles[len(c.roles)-1]
}

// All returns every role in level order
func (c *RoleCatalog) All() []model.Role {
	out := make([]model.Role, len(c.roles))
	copy(out, c.roles)
	return out
}

// Nodes returns the sorted permission nodes attached to roles
func (c *RoleCatalog) Nodes() []string {
	return append([]string(nil), c.nodes...)
}
