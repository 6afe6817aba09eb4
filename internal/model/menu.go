package model

// MenuItem is a navigation entry. Permissions is an OR-set; empty means always visible.
type MenuItem struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Href        string           `json:"href,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Permissions []PermissionName `json:"permissions,omitempty"`
	Children    []MenuItem       `json:"children,omitempty"`
}

type MenuRequest struct {
	RoleName string       `json:"role_name"`
	Groups   [][]MenuItem `json:"groups" binding:"required"`
}

type AccessCheckRequest struct {
	Method string `json:"method" binding:"required,oneof=GET POST PUT PATCH DELETE"`
	Path   string `json:"path" binding:"required,startswith=/"`
}
