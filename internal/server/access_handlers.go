package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

// AccessHandler serves identity, group, and role management.
type AccessHandler struct {
	iam iam.Service
}

// NewAccessHandler creates the handler for the /access routes.
func NewAccessHandler(svc iam.Service) *AccessHandler {
	return &AccessHandler{iam: svc}
}

// Mount registers the /access routes.
func (h *AccessHandler) Mount(r chi.Router) {
	r.Route("/access", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/users/token", h.Token)
		r.Post("/users/refresh-token", h.RefreshToken)
		r.Post("/users/create", h.CreateUser)
		r.Get("/users/list", h.ListUsers)
		r.Put("/users/change-password", h.ChangePassword)
		r.Delete("/users/delete", h.DeleteUser)

		r.Post("/roles/create", h.CreateRole)
		r.Get("/roles/list", h.ListRoles)
		r.Delete("/roles/delete", h.DeleteRole)

		r.Post("/groups/create", h.CreateGroup)
		r.Get("/groups/list", h.ListGroups)
		r.Get("/groups/read", h.ReadGroup)
		r.Delete("/groups/delete", h.DeleteGroup)
		r.Post("/groups/add-members", h.AddMembers)
		r.Post("/groups/remove-members", h.RemoveMembers)
	})
}

func (h *AccessHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var creds schema.UserCredentials
	if err := decodeBody(r, &creds); err != nil {
		respondError(w, err)
		return
	}
	user, err := h.iam.Signup(r.Context(), creds)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccessHandler) Token(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &creds); err != nil {
		respondError(w, err)
		return
	}
	pair, err := h.iam.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

// RefreshToken exchanges a refresh token for a fresh access token. The
// refresh token rides in the Authorization header, so this route stays
// outside the access-token middleware.
func (h *AccessHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		respondError(w, err)
		return
	}
	access, err := h.iam.Refresh(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, access)
}

func (h *AccessHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var creds schema.UserCredentials
	if err := decodeBody(r, &creds); err != nil {
		respondError(w, err)
		return
	}
	user, err := h.iam.CreateUser(r.Context(), CallerFromContext(r.Context()), creds)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccessHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.iam.ListUsers(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *AccessHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var creds schema.UserCredentials
	if err := decodeBody(r, &creds); err != nil {
		respondError(w, err)
		return
	}
	user, err := h.iam.ChangePassword(r.Context(), CallerFromContext(r.Context()), creds)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccessHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondError(w, schema.Validationf("username is required"))
		return
	}
	if err := h.iam.DeleteUser(r.Context(), CallerFromContext(r.Context()), username); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *AccessHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var role schema.Role
	if err := decodeBody(r, &role); err != nil {
		respondError(w, err)
		return
	}
	created, err := h.iam.CreateRole(r.Context(), CallerFromContext(r.Context()), role)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (h *AccessHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.iam.ListRoles(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

func (h *AccessHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("role_name")
	if name == "" {
		respondError(w, schema.Validationf("role_name is required"))
		return
	}
	if err := h.iam.DeleteRole(r.Context(), CallerFromContext(r.Context()), name); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *AccessHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var group schema.Group
	if err := decodeBody(r, &group); err != nil {
		respondError(w, err)
		return
	}
	created, err := h.iam.CreateGroup(r.Context(), CallerFromContext(r.Context()), group)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, created)
}

func (h *AccessHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.iam.ListGroups(r.Context(), CallerFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

func (h *AccessHandler) ReadGroup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("group_name")
	if name == "" {
		respondError(w, schema.Validationf("group_name is required"))
		return
	}
	group, err := h.iam.ReadGroup(r.Context(), CallerFromContext(r.Context()), name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

func (h *AccessHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("group_name")
	if name == "" {
		respondError(w, schema.Validationf("group_name is required"))
		return
	}
	if err := h.iam.DeleteGroup(r.Context(), CallerFromContext(r.Context()), name); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *AccessHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	var query schema.GroupMembershipQuery
	if err := decodeBody(r, &query); err != nil {
		respondError(w, err)
		return
	}
	group, err := h.iam.AddMembers(r.Context(), CallerFromContext(r.Context()), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}

func (h *AccessHandler) RemoveMembers(w http.ResponseWriter, r *http.Request) {
	var query schema.GroupMembershipQuery
	if err := decodeBody(r, &query); err != nil {
		respondError(w, err)
		return
	}
	group, err := h.iam.RemoveMembers(r.Context(), CallerFromContext(r.Context()), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, group)
}
