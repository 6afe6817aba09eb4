package rbac

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
)

// fakeStore is an in-memory RBAC, user and office store.
type fakeStore struct {
	mu        sync.Mutex
	roles     map[uuid.UUID]*model.Role
	rolePerms map[uuid.UUID]map[uuid.UUID]struct{}
	perms     map[uuid.UUID]*model.Permission
	users     map[uuid.UUID]*model.User
	staff     map[uuid.UUID]uuid.UUID
	offices   map[uuid.UUID]*model.Office

	permNamesErr error
	userErr      error
}

var (
	_ repository.RBACRepository   = (*fakeStore)(nil)
	_ repository.UserRepository   = (*fakeStore)(nil)
	_ repository.OfficeRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	s := &fakeStore{
		roles:     map[uuid.UUID]*model.Role{},
		rolePerms: map[uuid.UUID]map[uuid.UUID]struct{}{},
		perms:     map[uuid.UUID]*model.Permission{},
		users:     map[uuid.UUID]*model.User{},
		staff:     map[uuid.UUID]uuid.UUID{},
		offices:   map[uuid.UUID]*model.Office{},
	}
	for _, d := range permission.Catalog() {
		id := uuid.New()
		s.perms[id] = &model.Permission{ID: id, Name: string(d.Name), Description: d.Description}
	}
	return s
}

func (s *fakeStore) permID(n permission.Name) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.perms {
		if p.Name == string(n) {
			return id
		}
	}
	panic("unknown permission " + n)
}

func (s *fakeStore) addOffice() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.offices[id] = &model.Office{Base: model.Base{ID: id}, Name: "Office " + id.String()[:4]}
	return id
}

func (s *fakeStore) addRole(name string, officeID *uuid.UUID, names ...permission.Name) *model.Role {
	ids := make([]uuid.UUID, len(names))
	for i, n := range names {
		ids[i] = s.permID(n)
	}
	role := &model.Role{Name: name, OfficeID: officeID}
	if err := s.CreateRole(context.Background(), role, ids); err != nil {
		panic(err)
	}
	return role
}

func (s *fakeStore) addUser(role *model.Role, officeID *uuid.UUID, status string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	u := &model.User{Base: model.Base{ID: id}, Name: "user", Status: status}
	if role != nil {
		rid := role.ID
		u.RoleID = &rid
	}
	s.users[id] = u
	if officeID != nil {
		s.staff[id] = *officeID
	}
	return id
}

func catalogNames() []permission.Name {
	defs := permission.Catalog()
	out := make([]permission.Name, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func (s *fakeStore) namesOf(roleID uuid.UUID) []string {
	names, _ := s.GetRolePermissionNames(context.Background(), roleID)
	return names
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
}

func officeKey(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func (s *fakeStore) nameTaken(name string, officeID *uuid.UUID, except uuid.UUID) bool {
	for _, r := range s.roles {
		if r.ID != except && strings.EqualFold(r.Name, name) && officeKey(r.OfficeID) == officeKey(officeID) {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateRole(_ context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(role.Name, role.OfficeID, uuid.Nil) {
		return fmt.Errorf("failed to create role: %w", repository.ErrDuplicate)
	}
	role.ID = uuid.New()
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	cp := *role
	s.roles[role.ID] = &cp
	set := map[uuid.UUID]struct{}{}
	for _, id := range permissionIDs {
		set[id] = struct{}{}
	}
	s.rolePerms[role.ID] = set
	return nil
}

func (s *fakeStore) GetRole(_ context.Context, id uuid.UUID) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, notFound("role")
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) GetRoleByName(_ context.Context, name string, officeID *uuid.UUID) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if strings.EqualFold(r.Name, name) && officeKey(r.OfficeID) == officeKey(officeID) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, notFound("role")
}

func (s *fakeStore) UpdateRole(_ context.Context, role *model.Role, resolve repository.PermissionResolver) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[role.ID]; !ok {
		return 0, notFound("role")
	}
	if s.nameTaken(role.Name, role.OfficeID, role.ID) {
		return 0, fmt.Errorf("failed to update role: %w", repository.ErrDuplicate)
	}

	cp := *role
	var set map[uuid.UUID]struct{}
	if resolve != nil {
		ids, err := resolve(&cp)
		if err != nil {
			return 0, err
		}
		set = map[uuid.UUID]struct{}{}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}

	s.roles[role.ID] = &cp
	if set != nil {
		s.rolePerms[role.ID] = set
	}
	return len(set), nil
}

func (s *fakeStore) ListRoles(_ context.Context, f model.RoleFilter) ([]*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Role
	for _, r := range s.roles {
		switch {
		case f.GlobalOnly && r.OfficeID != nil:
			continue
		case !f.GlobalOnly && f.OfficeID != nil:
			own := r.OfficeID != nil && *r.OfficeID == *f.OfficeID
			if !own && !(f.IncludeGlobal && r.OfficeID == nil) {
				continue
			}
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Search)) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeStore) EnsureGlobalRole(ctx context.Context, role *model.Role) (*model.Role, bool, error) {
	if existing, err := s.GetRoleByName(ctx, role.Name, nil); err == nil {
		return existing, false, nil
	}
	created := &model.Role{Name: role.Name, Description: role.Description}
	if err := s.CreateRole(ctx, created, nil); err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *fakeStore) ReplaceRolePermissions(_ context.Context, roleID uuid.UUID, resolve repository.PermissionResolver) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[roleID]
	if !ok {
		return 0, notFound("role")
	}
	cp := *r
	ids, err := resolve(&cp)
	if err != nil {
		return 0, err
	}
	set := map[uuid.UUID]struct{}{}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	s.rolePerms[roleID] = set
	return len(set), nil
}

func (s *fakeStore) GetRolePermissionNames(_ context.Context, roleID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permNamesErr != nil {
		return nil, s.permNamesErr
	}
	var names []string
	for id := range s.rolePerms[roleID] {
		if p, ok := s.perms[id]; ok {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStore) ListPermissions(context.Context) ([]*model.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Permission, 0, len(s.perms))
	for _, p := range s.perms {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeStore) GetPermissionsByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Permission
	for _, id := range ids {
		if p, ok := s.perms[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertPermissions(_ context.Context, permissions []*model.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range permissions {
		found := false
		for id, existing := range s.perms {
			if existing.Name == p.Name {
				p.ID = id
				found = true
				break
			}
		}
		if !found {
			p.ID = uuid.New()
			cp := *p
			s.perms[p.ID] = &cp
		}
	}
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userErr != nil {
		return nil, s.userErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetStaffOffice(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.staff[userID]
	if !ok {
		return uuid.Nil, notFound("staff")
	}
	return id, nil
}

func (s *fakeStore) GetOffice(_ context.Context, id uuid.UUID) (*model.Office, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offices[id]
	if !ok {
		return nil, notFound("office")
	}
	cp := *o
	return &cp, nil
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) Record(_ context.Context, eventType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, payload})
}

func (r *fakeRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestService(store *fakeStore) (*Service, *fakeRecorder) {
	rec := &fakeRecorder{}
	return NewService(store, store, store, permission.Routes(), rec, nil), rec
}
