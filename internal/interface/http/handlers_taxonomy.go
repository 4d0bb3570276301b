package http

import (
	"net/http"

	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// INDUSTRIES
// ══════════════════════════════════════════════════════════════════════════════

type industryRequest struct {
	Name string `json:"name"`
}

// handleCreateIndustry handles POST /api/v1/industries.
func (s *Server) handleCreateIndustry(w http.ResponseWriter, r *http.Request) {
	var req industryRequest
	if !s.decode(w, r, "industry", &req) {
		return
	}

	ind, err := s.deps.Taxonomy.CreateIndustry(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewIndustryDTO(ind))
}

// handleListIndustries handles GET /api/v1/industries.
func (s *Server) handleListIndustries(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Content.ListIndustries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleGetIndustry handles GET /api/v1/industries/{id}.
func (s *Server) handleGetIndustry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	ind, err := s.deps.Content.GetIndustry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ind)
}

// handleUpdateIndustry handles PATCH /api/v1/industries/{id}.
func (s *Server) handleUpdateIndustry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req industryRequest
	if !s.decode(w, r, "industry", &req) {
		return
	}

	ind, err := s.deps.Taxonomy.RenameIndustry(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewIndustryDTO(ind))
}

// handleDeleteIndustry handles DELETE /api/v1/industries/{id}.
func (s *Server) handleDeleteIndustry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Taxonomy.DeleteIndustry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUB-INDUSTRIES
// ══════════════════════════════════════════════════════════════════════════════

type createSubIndustryRequest struct {
	Name       string  `json:"name"`
	IndustryID int64   `json:"industry_id"`
	BaseScore  float64 `json:"base_score"`
}

type updateSubIndustryRequest struct {
	Name       *string  `json:"name"`
	IndustryID *int64   `json:"industry_id"`
	BaseScore  *float64 `json:"base_score"`
}

// handleCreateSubIndustry handles POST /api/v1/sub-industries.
func (s *Server) handleCreateSubIndustry(w http.ResponseWriter, r *http.Request) {
	var req createSubIndustryRequest
	if !s.decode(w, r, "sub_industry.create", &req) {
		return
	}

	sub, err := s.deps.Taxonomy.CreateSubIndustry(r.Context(), command.CreateSubIndustryCommand{
		Name:       req.Name,
		IndustryID: req.IndustryID,
		BaseScore:  req.BaseScore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewSubIndustryDTO(sub))
}

// handleListSubIndustries handles GET /api/v1/sub-industries?industry_id=.
func (s *Server) handleListSubIndustries(w http.ResponseWriter, r *http.Request) {
	industryID, err := queryInt64(r, "industry_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Content.ListSubIndustries(r.Context(), industryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleGetSubIndustry handles GET /api/v1/sub-industries/{id}.
func (s *Server) handleGetSubIndustry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := s.deps.Content.GetSubIndustry(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

// handleUpdateSubIndustry handles PATCH /api/v1/sub-industries/{id}.
func (s *Server) handleUpdateSubIndustry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateSubIndustryRequest
	if !s.decode(w, r, "sub_industry.update", &req) {
		return
	}

	sub, err := s.deps.Taxonomy.UpdateSubIndustry(r.Context(), command.UpdateSubIndustryCommand{
		SubIndustryID: id,
		Name:          req.Name,
		IndustryID:    req.IndustryID,
		BaseScore:     req.BaseScore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewSubIndustryDTO(sub))
}

// handleDeleteSubIndustry handles DELETE /api/v1/sub-industries/{id}.
func (s *Server) handleDeleteSubIndustry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Taxonomy.DeleteSubIndustry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// ══════════════════════════════════════════════════════════════════════════════
// CRITERIA
// ══════════════════════════════════════════════════════════════════════════════

type createCriteriaRequest struct {
	Text       string `json:"text"`
	IndustryID int64  `json:"industry_id"`
}

type updateCriteriaRequest struct {
	Text       *string `json:"text"`
	IndustryID *int64  `json:"industry_id"`
}

// handleCreateCriteria handles POST /api/v1/criteria.
func (s *Server) handleCreateCriteria(w http.ResponseWriter, r *http.Request) {
	var req createCriteriaRequest
	if !s.decode(w, r, "criteria.create", &req) {
		return
	}

	c, err := s.deps.Taxonomy.CreateCriteria(r.Context(), command.CreateCriteriaCommand{
		Text:       req.Text,
		IndustryID: req.IndustryID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewCriteriaDTO(c))
}

// handleListCriteria handles GET /api/v1/criteria?industry_id=.
func (s *Server) handleListCriteria(w http.ResponseWriter, r *http.Request) {
	industryID, err := queryInt64(r, "industry_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Content.ListCriteria(r.Context(), industryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleGetCriteria handles GET /api/v1/criteria/{id}.
func (s *Server) handleGetCriteria(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.deps.Content.GetCriteria(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// handleUpdateCriteria handles PATCH /api/v1/criteria/{id}.
func (s *Server) handleUpdateCriteria(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateCriteriaRequest
	if !s.decode(w, r, "criteria.update", &req) {
		return
	}

	c, err := s.deps.Taxonomy.UpdateCriteria(r.Context(), command.UpdateCriteriaCommand{
		CriteriaID: id,
		Text:       req.Text,
		IndustryID: req.IndustryID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewCriteriaDTO(c))
}

// handleDeleteCriteria handles DELETE /api/v1/criteria/{id}.
func (s *Server) handleDeleteCriteria(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Taxonomy.DeleteCriteria(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
