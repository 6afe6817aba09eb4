package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/repository"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
)

const (
	MsgReservedRole       = "Only administrators can create admin or manager roles"
	MsgReservedRoleModify = "Only administrators can modify admin or manager roles"
	MsgNotRoleManager     = "Only administrators and managers can manage roles"
	MsgCreateOwnOffice    = "Managers can only create roles for their own office"
	MsgManageOwnOffice    = "Managers can only manage roles for their own office"
	MsgManagerNoOffice    = "Manager is not assigned to an office"
	MsgRoleNameTaken      = "Role name already exists"
	MsgRoleNameRequired   = "Role name is required"
)

// authorizeRoleScope checks the actor may manage roles owned by officeID (nil = global).
func authorizeRoleScope(actor *model.Actor, officeID *uuid.UUID, creating bool) error {
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsManager() {
		return apperrors.Forbidden(MsgNotRoleManager)
	}
	if actor.OfficeID == nil {
		return apperrors.Forbidden(MsgManagerNoOffice)
	}
	if officeID == nil || *officeID != *actor.OfficeID {
		if creating {
			return apperrors.Forbidden(MsgCreateOwnOffice)
		}
		return apperrors.Forbidden(MsgManageOwnOffice)
	}
	return nil
}

func (s *Service) CreateRole(ctx context.Context, actor *model.Actor, in model.CreateRoleInput) (*model.RoleView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.BadRequest(MsgRoleNameRequired, nil)
	}
	if !actor.IsAdmin() && !actor.IsManager() {
		return nil, apperrors.Forbidden(MsgNotRoleManager)
	}
	if !actor.IsAdmin() && model.IsReservedRoleName(name) {
		return nil, apperrors.Forbidden(MsgReservedRole)
	}

	officeID := in.OfficeID
	if officeID == nil && actor.IsManager() {
		officeID = actor.OfficeID
	}
	if err := authorizeRoleScope(actor, officeID, true); err != nil {
		return nil, err
	}
	if officeID != nil {
		if _, err := s.offices.GetOffice(ctx, *officeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("Office", err)
			}
			return nil, apperrors.Internal(err)
		}
	}

	catalogIDs, err := s.catalogIDs(ctx)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	if len(in.PermissionIDs) > 0 {
		if ids, err = s.validatePermissionIDs(ctx, in.PermissionIDs); err != nil {
			return nil, err
		}
	} else {
		for n := range s.routes.ExpectedPermissions(model.RoleTypeOf(name)) {
			if id, ok := catalogIDs[n]; ok {
				ids = append(ids, id)
			}
		}
	}
	ids = WidenIfAdmin(name, ids, catalogIDList(catalogIDs))

	role := &model.Role{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OfficeID:    officeID,
	}
	if err := s.repo.CreateRole(ctx, role, ids); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(MsgRoleNameTaken, err)
		}
		return nil, apperrors.Internal(err)
	}

	log.Info().Str("role_id", role.ID.String()).Str("name", role.Name).Msg("role created")
	s.record(ctx, model.EventRoleCreated, map[string]interface{}{
		"role_id":   role.ID,
		"name":      role.Name,
		"office_id": role.OfficeID,
		"actor_id":  actorID(actor),
	})
	return s.view(ctx, role)
}

func (s *Service) GetRole(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.RoleView, error) {
	role, err := s.loadRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.IsGlobal() {
		if err := authorizeRoleScope(actor, role.OfficeID, false); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, role)
}

// ListRoles returns every role for administrators; others see global roles plus their office's.
func (s *Service) ListRoles(ctx context.Context, actor *model.Actor, search string) ([]*model.RoleView, error) {
	filter := model.RoleFilter{Search: strings.TrimSpace(search)}
	if !actor.IsAdmin() {
		if actor.OfficeID != nil {
			filter.OfficeID = actor.OfficeID
			filter.IncludeGlobal = true
		} else {
			filter.GlobalOnly = true
		}
	}

	roles, err := s.repo.ListRoles(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	views := make([]*model.RoleView, 0, len(roles))
	for _, r := range roles {
		v, err := s.view(ctx, r)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) UpdateRole(ctx context.Context, actor *model.Actor, id uuid.UUID, in model.UpdateRoleInput) (*model.RoleView, error) {
	role, err := s.loadRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeRoleScope(actor, role.OfficeID, false); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && model.IsReservedRoleName(role.Name) {
		return nil, apperrors.Forbidden(MsgReservedRoleModify)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.BadRequest(MsgRoleNameRequired, nil)
		}
		if !actor.IsAdmin() && model.IsReservedRoleName(name) {
			return nil, apperrors.Forbidden(MsgReservedRole)
		}
		role.Name = name
	}
	if in.Description != nil {
		role.Description = strings.TrimSpace(*in.Description)
	}

	// Admin-type names always carry the full catalog, so a rename into one
	// widens even without permission_ids. Ids are checked before any write.
	var resolve repository.PermissionResolver
	if in.PermissionIDs != nil || model.RoleTypeOf(role.Name) == model.RoleTypeAdmin {
		var requested []uuid.UUID
		if in.PermissionIDs != nil {
			requested = *in.PermissionIDs
		}
		if resolve, err = s.widener(ctx, requested); err != nil {
			return nil, err
		}
	}

	n, err := s.repo.UpdateRole(ctx, role, resolve)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.Conflict(MsgRoleNameTaken, err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("Role", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.record(ctx, model.EventRoleUpdated, map[string]interface{}{
		"role_id":  role.ID,
		"name":     role.Name,
		"actor_id": actorID(actor),
	})
	if resolve != nil {
		s.record(ctx, model.EventRolePermissionsUpdated, map[string]interface{}{
			"role_id":        role.ID,
			"assigned_count": n,
			"actor_id":       actorID(actor),
		})
	}
	return s.view(ctx, role)
}

// AssignPermissions replaces a role's permission set. Admin-type roles are
// widened to the full catalog; that is a repair, not an error.
func (s *Service) AssignPermissions(ctx context.Context, actor *model.Actor, roleID uuid.UUID, permissionIDs []uuid.UUID) (*model.AssignResult, error) {
	role, err := s.loadRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRoleScope(actor, role.OfficeID, false); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && model.IsReservedRoleName(role.Name) {
		return nil, apperrors.Forbidden(MsgReservedRoleModify)
	}
	return s.assign(ctx, actor, role, permissionIDs)
}

func (s *Service) assign(ctx context.Context, actor *model.Actor, role *model.Role, permissionIDs []uuid.UUID) (*model.AssignResult, error) {
	resolve, err := s.widener(ctx, permissionIDs)
	if err != nil {
		return nil, err
	}

	n, err := s.repo.ReplaceRolePermissions(ctx, role.ID, resolve)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Role", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.record(ctx, model.EventRolePermissionsUpdated, map[string]interface{}{
		"role_id":        role.ID,
		"assigned_count": n,
		"actor_id":       actorID(actor),
	})
	return &model.AssignResult{Success: true, AssignedCount: n}, nil
}

// EnsureCustomerRole returns the global customer role, creating it with the
// customer baseline on first use.
func (s *Service) EnsureCustomerRole(ctx context.Context) (*model.Role, error) {
	role, created, err := s.repo.EnsureGlobalRole(ctx, &model.Role{
		Name:        model.RoleNameCustomer,
		Description: "Citizens using the portal",
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !created {
		return role, nil
	}

	catalogIDs, err := s.catalogIDs(ctx)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for n := range s.routes.ExpectedPermissions(model.RoleTypeCustomer) {
		if id, ok := catalogIDs[n]; ok {
			ids = append(ids, id)
		}
	}
	if _, err := s.assign(ctx, nil, role, ids); err != nil {
		return nil, err
	}
	log.Info().Str("role_id", role.ID.String()).Msg("customer role created")
	return role, nil
}

// Seed stores the catalog and the system roles. The admin role is widened
// to the full catalog on every run.
func (s *Service) Seed(ctx context.Context) error {
	if _, err := permission.NewService(s.repo).SeedCatalog(ctx); err != nil {
		return err
	}

	admin, _, err := s.repo.EnsureGlobalRole(ctx, &model.Role{
		Name:        model.RoleNameAdmin,
		Description: "Portal administrators",
	})
	if err != nil {
		return apperrors.Internal(err)
	}
	if _, err := s.assign(ctx, nil, admin, nil); err != nil {
		return err
	}

	_, err = s.EnsureCustomerRole(ctx)
	return err
}

func (s *Service) loadRole(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Role", err)
		}
		return nil, apperrors.Internal(err)
	}
	return role, nil
}

// widener validates permissionIDs and returns the resolver that applies
// WidenIfAdmin against the locked role's name.
func (s *Service) widener(ctx context.Context, permissionIDs []uuid.UUID) (repository.PermissionResolver, error) {
	ids, err := s.validatePermissionIDs(ctx, permissionIDs)
	if err != nil {
		return nil, err
	}
	catalogIDs, err := s.catalogIDs(ctx)
	if err != nil {
		return nil, err
	}
	full := catalogIDList(catalogIDs)

	return func(locked *model.Role) ([]uuid.UUID, error) {
		return WidenIfAdmin(locked.Name, ids, full), nil
	}, nil
}

// validatePermissionIDs dedupes ids and requires each to exist and be in the catalog.
func (s *Service) validatePermissionIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	found, err := s.repo.GetPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(found) != len(ids) {
		return nil, apperrors.NotFound("Permission", nil)
	}
	for _, p := range found {
		if !permission.IsKnown(permission.Name(p.Name)) {
			return nil, apperrors.NotFound("Permission", nil)
		}
	}
	return ids, nil
}

// catalogIDs maps catalog names to stored ids.
func (s *Service) catalogIDs(ctx context.Context) (map[permission.Name]uuid.UUID, error) {
	stored, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	out := make(map[permission.Name]uuid.UUID, len(stored))
	for _, p := range stored {
		if n := permission.Name(p.Name); permission.IsKnown(n) {
			out[n] = p.ID
		}
	}
	return out, nil
}

// catalogIDList lists ids in catalog order.
func catalogIDList(byName map[permission.Name]uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(byName))
	for _, d := range permission.Catalog() {
		if id, ok := byName[d.Name]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) view(ctx context.Context, role *model.Role) (*model.RoleView, error) {
	names, err := s.repo.GetRolePermissionNames(ctx, role.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	assigned, _ := permission.SetFromNames(names)
	expected := s.routes.ExpectedPermissions(model.RoleTypeOf(role.Name))

	if names == nil {
		names = []string{}
	}
	return &model.RoleView{
		Role:               role,
		Permissions:        names,
		HasFullPermissions: len(expected) > 0 && assigned.Contains(expected),
	}, nil
}

func actorID(actor *model.Actor) uuid.UUID {
	if actor == nil || actor.User == nil {
		return uuid.Nil
	}
	return actor.User.ID
}
