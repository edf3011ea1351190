package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avolkov/docvault/internal/common"
)

type userJSON struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type userListResponse struct {
	Success bool       `json:"success"`
	Users   []userJSON `json:"users"`
	Total   int64      `json:"total"`
}

type activityLogJSON struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

type activityLogsResponse struct {
	Success bool              `json:"success"`
	Logs    []activityLogJSON `json:"logs"`
}

type recentActivityJSON struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

type dashboardResponse struct {
	TotalDocuments   int64                `json:"total_documents"`
	TotalUsers       int64                `json:"total_users"`
	RecentActivities []recentActivityJSON `json:"recent_activities"`
}

type userStatusRequest struct {
	UserID   int64 `json:"user_id"`
	IsActive bool  `json:"is_active"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	list, total, err := h.admin.ListUsers(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users := make([]userJSON, 0, len(list))
	for _, u := range list {
		users = append(users, userJSON{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive})
	}

	h.writeJSON(w, http.StatusOK, userListResponse{Success: true, Users: users, Total: total})
}

func (h *Handler) handleGetActivityLogs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchTerm string `json:"search_term"`
	}
	// an empty body means an unfiltered query
	_ = json.NewDecoder(r.Body).Decode(&req)

	entries, err := h.audit.Query(r.Context(), req.SearchTerm)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	logs := make([]activityLogJSON, 0, len(entries))
	for _, e := range entries {
		logs = append(logs, activityLogJSON{
			ID:        e.ID,
			UserID:    e.UserID,
			Action:    e.Action,
			Timestamp: e.Timestamp.Format(timestampLayout),
		})
	}

	h.writeJSON(w, http.StatusOK, activityLogsResponse{Success: true, Logs: logs})
}

func (h *Handler) handleGetDashboardData(w http.ResponseWriter, r *http.Request) {
	data, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recent := make([]recentActivityJSON, 0, len(data.RecentActivities))
	for _, e := range data.RecentActivities {
		recent = append(recent, recentActivityJSON{
			Action:    e.Action,
			Timestamp: e.Timestamp.Format(timestampLayout),
		})
	}

	h.writeJSON(w, http.StatusOK, dashboardResponse{
		TotalDocuments:   data.TotalDocuments,
		TotalUsers:       data.TotalUsers,
		RecentActivities: recent,
	})
}

func (h *Handler) handleUpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var req userStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID < 1 {
		h.writeError(w, r, common.ErrorInvalidInput)
		return
	}

	if err := h.admin.SetUserStatus(r.Context(), p, req.UserID, req.IsActive); err != nil {
		h.writeError(w, r, err)
		return
	}

	status := "Inactive"
	if req.IsActive {
		status = "Active"
	}
	h.writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "User status updated to " + status})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		h.writeError(w, r, common.ErrorInvalidInput)
		return
	}
	if userID == p.UserID {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "Cannot delete your own account"})
		return
	}

	if err := h.admin.DeleteUser(r.Context(), p, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "User account deleted successfully"})
}
