package permission

import (
	"fmt"
	"strings"

	"github.com/jwalitptl/eservice-api/internal/model"
)

// Requirement is what a route demands: nothing (public) or at least one of AnyOf.
type Requirement struct {
	public bool
	anyOf  []Name
}

func Public() Requirement { return Requirement{public: true} }

func One(n Name) Requirement { return Requirement{anyOf: []Name{n}} }

func AnyOf(names ...Name) Requirement { return Requirement{anyOf: names} }

func (r Requirement) IsPublic() bool { return r.public }

// Names returns the OR-set; empty for public routes.
func (r Requirement) Names() []Name {
	out := make([]Name, len(r.anyOf))
	copy(out, r.anyOf)
	return out
}

// SatisfiedBy reports whether set meets the requirement.
func (r Requirement) SatisfiedBy(set model.PermissionSet) bool {
	if r.public {
		return true
	}
	return set.HasAny(r.anyOf...)
}

func (r Requirement) String() string {
	if r.public {
		return "public"
	}
	parts := make([]string, len(r.anyOf))
	for i, n := range r.anyOf {
		parts[i] = string(n)
	}
	return strings.Join(parts, " | ")
}

// Entry declares one row of the route table.
type Entry struct {
	Key         string
	Requirement Requirement
	Audience    []model.RoleType
}

type segment struct {
	literal string
	param   string
}

func (s segment) wildcard() bool { return s.param != "" }

// Route is a parsed table entry.
type Route struct {
	Method      string
	Pattern     string
	Requirement Requirement
	Audience    []model.RoleType
	segments    []segment
}

func (r *Route) Key() string { return r.Method + " " + r.Pattern }

// Params reports the wildcard names in declaration order.
func (r *Route) Params() []string {
	var out []string
	for _, s := range r.segments {
		if s.wildcard() {
			out = append(out, s.param)
		}
	}
	return out
}

func (r *Route) match(parts []string) bool {
	if len(parts) != len(r.segments) {
		return false
	}
	for i, s := range r.segments {
		if s.wildcard() {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if parts[i] != s.literal {
			return false
		}
	}
	return true
}

// Table is an immutable route to requirement lookup.
type Table struct {
	routes []*Route
	exact  map[string]*Route
	byType map[model.RoleType]model.PermissionSet
}

// NewTable parses entries. Declaration order decides which pattern wins when several match.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		exact:  make(map[string]*Route, len(entries)),
		byType: make(map[model.RoleType]model.PermissionSet),
	}
	for _, e := range entries {
		route, err := parseEntry(e)
		if err != nil {
			return nil, err
		}
		if _, dup := t.exact[route.Key()]; dup {
			return nil, fmt.Errorf("duplicate route %q", route.Key())
		}
		t.exact[route.Key()] = route
		t.routes = append(t.routes, route)

		if route.Requirement.IsPublic() {
			continue
		}
		for _, rt := range route.Audience {
			set, ok := t.byType[rt]
			if !ok {
				set = model.NewPermissionSet()
				t.byType[rt] = set
			}
			for _, n := range route.Requirement.anyOf {
				set.Add(n)
			}
		}
	}
	return t, nil
}

func MustTable(entries []Entry) *Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

func parseEntry(e Entry) (*Route, error) {
	method, pattern, ok := strings.Cut(strings.TrimSpace(e.Key), " ")
	if !ok || method == "" || !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("malformed route key %q", e.Key)
	}
	if method != strings.ToUpper(method) {
		return nil, fmt.Errorf("route %q: method must be upper case", e.Key)
	}
	if !e.Requirement.public && len(e.Requirement.anyOf) == 0 {
		return nil, fmt.Errorf("route %q: empty requirement", e.Key)
	}
	for _, n := range e.Requirement.anyOf {
		if !IsKnown(n) {
			return nil, fmt.Errorf("route %q: unknown permission %q", e.Key, n)
		}
	}

	pattern = normalizePath(pattern)
	route := &Route{
		Method:      method,
		Pattern:     pattern,
		Requirement: e.Requirement,
		Audience:    e.Audience,
	}
	for _, part := range splitPath(pattern) {
		switch {
		case strings.HasPrefix(part, "[") && strings.HasSuffix(part, "]"):
			name := part[1 : len(part)-1]
			if name == "" || strings.ContainsAny(name, "[]") {
				return nil, fmt.Errorf("route %q: malformed parameter %q", e.Key, part)
			}
			route.segments = append(route.segments, segment{param: name})
		case strings.ContainsAny(part, "[]"):
			return nil, fmt.Errorf("route %q: malformed segment %q", e.Key, part)
		default:
			route.segments = append(route.segments, segment{literal: part})
		}
	}
	return route, nil
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Match returns the route for method and path: an exact key match first,
// then the first pattern whose segments match.
func (t *Table) Match(method, path string) (*Route, bool) {
	method = strings.ToUpper(method)
	path = normalizePath(path)

	if r, ok := t.exact[method+" "+path]; ok {
		return r, true
	}

	parts := splitPath(path)
	for _, r := range t.routes {
		if r.Method == method && r.match(parts) {
			return r, true
		}
	}
	return nil, false
}

// Lookup is Match reduced to the requirement.
func (t *Table) Lookup(method, path string) (Requirement, bool) {
	r, ok := t.Match(method, path)
	if !ok {
		return Requirement{}, false
	}
	return r.Requirement, true
}

// Routes returns the parsed routes in declaration order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// ExpectedPermissions derives a role type's baseline from the routes whose
// audience includes it. Administrators are expected to hold the whole catalog.
func (t *Table) ExpectedPermissions(rt model.RoleType) model.PermissionSet {
	if rt == model.RoleTypeAdmin {
		return All()
	}
	out := model.NewPermissionSet()
	for n := range t.byType[rt] {
		out.Add(n)
	}
	return out
}
