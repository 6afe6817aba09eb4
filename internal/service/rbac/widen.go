package rbac

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/model"
)

// WidenIfAdmin returns the ids to persist for a role. Admin-type roles always
// receive the full catalog in addition to whatever was requested; other roles
// get the requested ids with duplicates removed. Order is preserved.
func WidenIfAdmin(roleName string, requested, fullCatalog []uuid.UUID) []uuid.UUID {
	if model.RoleTypeOf(roleName) != model.RoleTypeAdmin {
		return dedupe(requested)
	}
	merged := make([]uuid.UUID, 0, len(fullCatalog)+len(requested))
	merged = append(merged, fullCatalog...)
	merged = append(merged, requested...)
	return dedupe(merged)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
