package http

import (
	"net/http"
	"time"

	"github.com/ingvionio/fullstack/internal/application/query"
	"github.com/ingvionio/fullstack/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "health-map-api",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":      "/health",
			"live":        "/live",
			"api":         "/api/" + apiVersion,
			"leaderboard": "/api/" + apiVersion + "/gamification/leaderboard",
		},
	})
}

// handleHealth runs the dependency checks; 503 if any fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeEnvelope(w, http.StatusServiceUnavailable, JSONResponse{Success: false, Data: status, Meta: newMeta(r)})
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleLive is the liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": s.Uptime().Round(time.Second).String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// handleListAchievements handles GET /api/v1/achievements.
func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Achievements.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleGetAchievement handles GET /api/v1/achievements/{id}.
func (s *Server) handleGetAchievement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := s.deps.Achievements.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

// handleUserAchievements handles GET /api/v1/users/{id}/achievements?completed=.
func (s *Server) handleUserAchievements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	onlyCompleted, err := queryBool(r, "completed")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Achievements.ForUser(r.Context(), id, onlyCompleted)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// handleAchievementProgress lists every catalog entry with the user's
// live progress.
func (s *Server) handleAchievementProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := s.deps.Achievements.WithProgress(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, r, list)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS & LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// handleUserProgress handles GET /api/v1/gamification/users/{id}/progress.
func (s *Server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	progress, err := s.deps.Progress.Handle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progress)
}

// handleLeaderboard handles GET /api/v1/gamification/leaderboard?limit=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", query.DefaultLeaderboardLimit)
	if err == nil && (limit < 1 || limit > query.MaxLeaderboardLimit) {
		err = &paramError{name: "limit"}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Leaderboard.Top(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := res.Entries
	if entries == nil {
		entries = []user.RankEntry{}
	}
	meta := newMeta(r)
	n := len(entries)
	meta.Count = &n
	meta.Source = res.Source
	writeEnvelope(w, http.StatusOK, JSONResponse{Success: true, Data: entries, Meta: meta})
}

// handleUserRank handles GET /api/v1/gamification/users/{id}/rank.
func (s *Server) handleUserRank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Leaderboard.UserRank(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
