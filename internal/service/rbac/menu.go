package rbac

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
)

// FilterMenu keeps the entries userID may see. An inactive or unknown user,
// a user without a role, or a roleName that is not the user's role yields an
// empty menu. Entries are matched against the role's stored permissions, the
// same set the route guard checks.
func (s *Service) FilterMenu(ctx context.Context, userID uuid.UUID, roleName string, groups [][]model.MenuItem) [][]model.MenuItem {
	empty := [][]model.MenuItem{}

	actor, err := s.ResolveActor(ctx, userID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("menu filtered to nothing")
		return empty
	}
	if roleName != "" && model.NormalizeRoleName(roleName) != model.NormalizeRoleName(actor.Role.Name) {
		log.Warn().Str("user_id", userID.String()).Str("role", roleName).Msg("menu requested for a role the user does not hold")
		return empty
	}

	return FilterGroups(groups, actor.Permissions)
}

// FilterGroups applies set to each group and drops groups left empty.
func FilterGroups(groups [][]model.MenuItem, set model.PermissionSet) [][]model.MenuItem {
	out := make([][]model.MenuItem, 0, len(groups))
	for _, g := range groups {
		if items := filterItems(g, set); len(items) > 0 {
			out = append(out, items)
		}
	}
	return out
}

func filterItems(items []model.MenuItem, set model.PermissionSet) []model.MenuItem {
	var out []model.MenuItem
	for _, item := range items {
		if len(item.Permissions) > 0 && !set.HasAny(item.Permissions...) {
			continue
		}
		if len(item.Children) > 0 {
			item.Children = filterItems(item.Children, set)
			// a pure container with nothing left to show
			if len(item.Children) == 0 && item.Href == "" {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}
