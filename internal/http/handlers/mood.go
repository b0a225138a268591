package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/moodlog/server/internal/middleware"
	"github.com/moodlog/server/internal/mood"
)

// MoodHandler handles the mood logging endpoints
type MoodHandler struct {
	moods *mood.Service
}

// NewMoodHandler creates a new mood handler
func NewMoodHandler(moods *mood.Service) *MoodHandler {
	return &MoodHandler{moods: moods}
}

// submitMoodRequest is the request body for POST /api/mood
type submitMoodRequest struct {
	Mood     string `json:"mood"`
	Thoughts string `json:"thoughts"`
}

// HandleSubmitMood handles POST /api/mood
func (h *MoodHandler) HandleSubmitMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req submitMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log, existed, err := h.moods.SubmitMood(r.Context(), userID, strings.TrimSpace(req.Mood), req.Thoughts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	message := "Mood submitted successfully, now submit satisfaction"
	if existed {
		message = "Mood for today already submitted, now submit satisfaction"
	}
	respond(w, http.StatusCreated, message, log)
}

// submitSatisfactionRequest is the request body for PATCH /api/mood/{id}
type submitSatisfactionRequest struct {
	Satisfaction string `json:"satisfaction"`
}

// HandleSubmitSatisfaction handles PATCH /api/mood/{id}
func (h *MoodHandler) HandleSubmitSatisfaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req submitSatisfactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	log, err := h.moods.SubmitSatisfaction(r.Context(), userID, logID, strings.TrimSpace(req.Satisfaction))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Satisfaction submitted successfully", log)
}

// updateTrackerRequest is the request body for PATCH /api/mood/{id}/tracker.
// Absent fields leave the stored value untouched.
type updateTrackerRequest struct {
	WaterGlasses *int `json:"waterGlasses"`
	SleepHours   *int `json:"sleepHours"`
}

// HandleUpdateTracker handles PATCH /api/mood/{id}/tracker
func (h *MoodHandler) HandleUpdateTracker(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateTrackerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.moods.UpdateTrackers(r.Context(), userID, logID, req.WaterGlasses, req.SleepHours)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Trackers updated successfully", result)
}

// HandleWeeklyLogs handles GET /api/mood/weekly
func (h *MoodHandler) HandleWeeklyLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.moods.WeeklyLogs(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Weekly logs fetched successfully", entries)
}

// HandleAverageWeeklyMood handles GET /api/mood/average-weekly
func (h *MoodHandler) HandleAverageWeeklyMood(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	overview, err := h.moods.AverageWeeklyMood(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if overview == nil {
		respond(w, http.StatusOK, "No mood logs found for the past week", nil)
		return
	}
	respond(w, http.StatusOK, "Weekly mood overview fetched successfully", overview)
}

// HandleTodayTrackers handles GET /api/mood/glass-sleep
func (h *MoodHandler) HandleTodayTrackers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	snapshot, found, err := h.moods.TodayTrackers(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	var data interface{}
	if found {
		data = snapshot
	}
	respond(w, http.StatusOK, "Today's water and sleep data fetched successfully", data)
}

// HandleAllMoods handles GET /api/mood/all
func (h *MoodHandler) HandleAllMoods(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	logs, err := h.moods.AllMoods(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "All moods for current user fetched successfully", logs)
}

// HandleMoodDetails handles GET /api/mood/details/{moodId}
func (h *MoodHandler) HandleMoodDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logID, ok := pathID(w, r, "moodId")
	if !ok {
		return
	}

	details, err := h.moods.MoodDetails(r.Context(), userID, logID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Mood details fetched successfully by ID", details)
}

// HandleMoodDates handles GET /api/mood/specific-moods/{moodId}
func (h *MoodHandler) HandleMoodDates(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	logID, ok := pathID(w, r, "moodId")
	if !ok {
		return
	}

	dates, err := h.moods.MoodDates(r.Context(), userID, logID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Mood details fetched successfully by ID", dates)
}

// HandleSevenDayInsights handles GET /api/mood/insights/7days
func (h *MoodHandler) HandleSevenDayInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	insights, err := h.moods.SevenDayInsights(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Seven day insights fetched successfully", insights)
}

// HandleMonthlyInsights handles GET /api/mood/insights/monthly
func (h *MoodHandler) HandleMonthlyInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	insights, err := h.moods.MonthlyInsights(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, "Monthly insights fetched successfully", insights)
}

// pathID parses a UUID path parameter, writing the error response itself.
func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "Mood ID is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid mood ID")
		return uuid.Nil, false
	}
	return id, true
}
