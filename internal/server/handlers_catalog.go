package server

import (
	"net/http"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// RolesResponse lists the catalog roles in catalog order.
type RolesResponse struct {
	Roles []types.RoleCatalogEntry `json:"roles"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, RolesResponse{Roles: s.catalog.Roles()})
}

// handleGetRole accepts a role id or, failing that, a role name.
func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	role, ok := s.catalog.Resolve(id)
	if !ok {
		serviceErrorResponse(w, r, &ErrRoleNotFound{RoleID: id})
		return
	}
	jsonResponse(w, http.StatusOK, role)
}

func (s *Server) handleCatalogOptions(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, s.catalog.Options())
}
