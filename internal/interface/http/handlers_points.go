package http

import (
	"net/http"

	"github.com/ingvionio/fullstack/internal/application/command"
	"github.com/ingvionio/fullstack/internal/application/query"
	"github.com/ingvionio/fullstack/internal/application/saga"
)

// maxPhotosPerRequest limits one photo upload request.
const maxPhotosPerRequest = 10

// rewardResponse describes what the author earned for a new point or mark.
type rewardResponse struct {
	XPAwarded int                    `json:"xp_awarded"`
	TotalXP   int                    `json:"total_xp"`
	OldLevel  int                    `json:"old_level"`
	NewLevel  int                    `json:"new_level"`
	LeveledUp bool                   `json:"leveled_up"`
	Unlocked  []query.AchievementDTO `json:"unlocked_achievements"`
}

func newRewardResponse(res *saga.RewardResult) *rewardResponse {
	if res == nil {
		return nil
	}
	out := &rewardResponse{
		XPAwarded: res.XPAwarded,
		OldLevel:  res.OldLevel,
		NewLevel:  res.NewLevel,
		LeveledUp: res.LeveledUp(),
		Unlocked:  make([]query.AchievementDTO, 0, len(res.Unlocked)),
	}
	if res.User != nil {
		out.TotalXP = res.User.XP
	}
	for _, u := range res.Unlocked {
		out.Unlocked = append(out.Unlocked, query.NewAchievementDTO(u.Achievement))
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// POINTS
// ══════════════════════════════════════════════════════════════════════════════

type createPointRequest struct {
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	IndustryID    int64   `json:"industry_id"`
	SubIndustryID int64   `json:"sub_industry_id"`
	CreatorID     *int64  `json:"creator_id"`
}

type updatePointRequest struct {
	Name          *string  `json:"name"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	IndustryID    *int64   `json:"industry_id"`
	SubIndustryID *int64   `json:"sub_industry_id"`
	CreatorID     *int64   `json:"creator_id"`
}

type pointCreatedResponse struct {
	query.PointDTO
	Reward *rewardResponse `json:"reward,omitempty"`
}

// handleCreatePoint handles POST /api/v1/points. Without creator_id the
// authenticated user becomes the creator.
func (s *Server) handleCreatePoint(w http.ResponseWriter, r *http.Request) {
	var req createPointRequest
	if !s.decode(w, r, "point.create", &req) {
		return
	}
	if req.CreatorID == nil {
		if id, ok := currentUser(r); ok {
			req.CreatorID = &id
		}
	}

	res, err := s.deps.Points.Create(r.Context(), command.CreatePointCommand{
		Name:          req.Name,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IndustryID:    req.IndustryID,
		SubIndustryID: req.SubIndustryID,
		CreatorID:     req.CreatorID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, pointCreatedResponse{
		PointDTO: query.NewPointDTO(res.Point),
		Reward:   newRewardResponse(res.Reward),
	})
}

// handleListPoints handles GET /api/v1/points?industry_id=&sub_industry_id=&skip=&limit=.
func (s *Server) handleListPoints(w http.ResponseWriter, r *http.Request) {
	industryID, err := queryInt64(r, "industry_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subIndustryID, err := queryInt64(r, "sub_industry_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	skip, limit, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Content.ListPoints(r.Context(), query.ListPointsQuery{
		IndustryID:    industryID,
		SubIndustryID: subIndustryID,
		Skip:          skip,
		Limit:         limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleGetPoint handles GET /api/v1/points/{id}.
func (s *Server) handleGetPoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.deps.Content.GetPoint(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handlePointCriteria handles GET /api/v1/points/{id}/criteria.
func (s *Server) handlePointCriteria(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Content.PointCriteria(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleUpdatePoint handles PATCH /api/v1/points/{id}.
func (s *Server) handleUpdatePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updatePointRequest
	if !s.decode(w, r, "point.update", &req) {
		return
	}

	p, err := s.deps.Points.Update(r.Context(), command.UpdatePointCommand{
		PointID:       id,
		Name:          req.Name,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IndustryID:    req.IndustryID,
		SubIndustryID: req.SubIndustryID,
		CreatorID:     req.CreatorID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewPointDTO(p))
}

// handleDeletePoint handles DELETE /api/v1/points/{id}.
func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Points.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}

// ══════════════════════════════════════════════════════════════════════════════
// MARKS
// ══════════════════════════════════════════════════════════════════════════════

type createMarkRequest struct {
	PointID     int64     `json:"point_id"`
	UserID      *int64    `json:"user_id"`
	QuestionIDs []int64   `json:"question_ids"`
	Answers     []int     `json:"answers"`
	Weights     []float64 `json:"weights"`
	Comment     *string   `json:"comment"`
	Photos      []string  `json:"photos"`
}

type markCreatedResponse struct {
	query.MarkDTO
	PointRating float64         `json:"point_rating"`
	Reward      *rewardResponse `json:"reward,omitempty"`
}

// handleCreateMark handles POST /api/v1/marks. Without user_id the
// authenticated user becomes the author.
func (s *Server) handleCreateMark(w http.ResponseWriter, r *http.Request) {
	var req createMarkRequest
	if !s.decode(w, r, "mark.create", &req) {
		return
	}
	if req.UserID == nil {
		if id, ok := currentUser(r); ok {
			req.UserID = &id
		}
	}

	res, err := s.deps.Marks.Create(r.Context(), command.CreateMarkCommand{
		PointID:     req.PointID,
		UserID:      req.UserID,
		QuestionIDs: req.QuestionIDs,
		Answers:     req.Answers,
		Weights:     req.Weights,
		Comment:     req.Comment,
		Photos:      req.Photos,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, markCreatedResponse{
		MarkDTO:     query.NewMarkDTO(res.Mark),
		PointRating: res.PointRating,
		Reward:      newRewardResponse(res.Reward),
	})
}

// handleListMarks handles GET /api/v1/marks?point_id=.
func (s *Server) handleListMarks(w http.ResponseWriter, r *http.Request) {
	pointID, err := queryInt64(r, "point_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Content.ListMarks(r.Context(), pointID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleGetMark handles GET /api/v1/marks/{id}.
func (s *Server) handleGetMark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := s.deps.Content.GetMark(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}

// handleAddMarkPhotos handles POST /api/v1/marks/{id}/photos (multipart, field "files").
func (s *Server) handleAddMarkPhotos(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	uploads, cleanup, err := s.readUploads(w, r, "files", maxPhotosPerRequest)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	m, err := s.deps.Marks.AddPhotos(r.Context(), id, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewMarkDTO(m))
}

// handleDeleteMark handles DELETE /api/v1/marks/{id}.
func (s *Server) handleDeleteMark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Marks.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeNoContent(w)
}
