package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/enriquecapellan/ai-qualifier-be/internal/auth"
	"github.com/enriquecapellan/ai-qualifier-be/internal/icp"
	"github.com/enriquecapellan/ai-qualifier-be/internal/model"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Me(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type createCompanyRequest struct {
	Domain string `json:"domain"`
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Domain == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "domain is required"})
		return
	}

	created, err := s.companies.Create(r.Context(), auth.UserID(r.Context()), req.Domain)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.companies.Get(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleMyCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.companies.ListByOwner(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) handleGenerateICP(w http.ResponseWriter, r *http.Request) {
	var overrides icp.Overrides
	// The body is optional: an empty body means no overrides.
	if r.Body != nil && r.ContentLength != 0 {
		if !decodeJSON(w, r, &overrides) {
			return
		}
	}

	generated, err := s.icps.Generate(r.Context(), chi.URLParam(r, "companyID"), overrides)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, generated)
}

func (s *Server) handleGetICP(w http.ResponseWriter, r *http.Request) {
	found, err := s.icps.GetByCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

type qualifyRequest struct {
	Domains string `json:"domains"`
}

func (s *Server) handleQualifyProspects(w http.ResponseWriter, r *http.Request) {
	var req qualifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.prospects.QualifyDomains(r.Context(), chi.URLParam(r, "companyID"), req.Domains)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListProspects(w http.ResponseWriter, r *http.Request) {
	prospects, err := s.prospects.ListByCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if prospects == nil {
		prospects = []model.Prospect{}
	}
	writeJSON(w, http.StatusOK, prospects)
}
