package authz

import (
	"regexp"

	"github.com/class-unity/classunity-api/internal/models"
)

// RouteRule grants a set of roles access to paths matching a pattern.
type RouteRule struct {
	pattern *regexp.Regexp
	roles   map[models.Role]struct{}
}

// RouteTable is the ordered route-access configuration. Matching uses
// intersection semantics: every rule whose pattern matches the path must
// allow the role. Paths matching no rule are allowed by default; the scoper
// still restricts the rows such requests can reach.
type RouteTable struct {
	rules []RouteRule
}

// RouteEntry pairs a path pattern with its allowed roles.
type RouteEntry struct {
	Pattern string
	Roles   []models.Role
}

// NewRouteTable compiles entries into a RouteTable. Patterns are anchored
// to the full path.
func NewRouteTable(entries []RouteEntry) (*RouteTable, error) {
	table := &RouteTable{rules: make([]RouteRule, 0, len(entries))}
	for _, entry := range entries {
		re, err := regexp.Compile("^" + entry.Pattern + "$")
		if err != nil {
			return nil, err
		}
		roles := make(map[models.Role]struct{}, len(entry.Roles))
		for _, role := range entry.Roles {
			roles[role] = struct{}{}
		}
		table.rules = append(table.rules, RouteRule{pattern: re, roles: roles})
	}
	return table, nil
}

// Allowed reports whether the role may access the path.
func (t *RouteTable) Allowed(path string, role models.Role) bool {
	for _, rule := range t.rules {
		if !rule.pattern.MatchString(path) {
			continue
		}
		if _, ok := rule.roles[role]; !ok {
			return false
		}
	}
	return true
}

// DefaultRouteTable returns the route-access configuration for the API,
// rooted at the given prefix.
func DefaultRouteTable(prefix string) (*RouteTable, error) {
	all := []models.Role{models.RoleAdmin, models.RoleTeacher, models.RoleStudent}
	staff := []models.Role{models.RoleAdmin, models.RoleTeacher}
	adminOnly := []models.Role{models.RoleAdmin}

	return NewRouteTable([]RouteEntry{
		{Pattern: prefix + "/dashboard(.*)", Roles: all},
		{Pattern: prefix + "/teachers(.*)", Roles: staff},
		{Pattern: prefix + "/students(.*)", Roles: staff},
		{Pattern: prefix + "/courses(.*)", Roles: adminOnly},
		{Pattern: prefix + "/classes(.*)", Roles: staff},
		{Pattern: prefix + "/exams(.*)", Roles: all},
		{Pattern: prefix + "/assignments(.*)", Roles: all},
		{Pattern: prefix + "/results(.*)", Roles: all},
		{Pattern: prefix + "/results/export", Roles: staff},
		{Pattern: prefix + "/events(.*)", Roles: all},
		{Pattern: prefix + "/announcements(.*)", Roles: all},
		{Pattern: prefix + "/chat(.*)", Roles: all},
		{Pattern: prefix + "/chat/sync", Roles: adminOnly},
		{Pattern: prefix + "/audit(.*)", Roles: adminOnly},
	})
}
