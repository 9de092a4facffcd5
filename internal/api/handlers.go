package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/moodlens/moodlens/internal/capture"
	"github.com/moodlens/moodlens/internal/database"
	"github.com/moodlens/moodlens/internal/emotion"
	"github.com/moodlens/moodlens/internal/observability"
	"github.com/moodlens/moodlens/internal/recommend"
)

type App struct {
	Chain         *emotion.Chain
	Aggregator    *recommend.Aggregator
	DetectionRepo *database.DetectionRepository
	Spotify       *recommend.SpotifyClient

	// Guards against overlapping detections; a second trigger while one
	// is in flight is rejected, not queued or cancelled.
	detecting atomic.Bool
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type detectRequest struct {
	Image       string `json:"image"`
	RequireReal bool   `json:"require_real"`
}

func (app *App) DetectHandler(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !app.detecting.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "a detection is already in progress")
		return
	}
	defer app.detecting.Store(false)

	frame, err := capture.ParseDataURL(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := app.Chain.Detect(r.Context(), frame, req.RequireReal)
	if err != nil {
		if errors.Is(err, emotion.ErrNoRealProvider) {
			respondError(w, http.StatusServiceUnavailable, "no real emotion provider is available")
			return
		}
		respondError(w, http.StatusInternalServerError, "detection failed")
		return
	}

	observability.Detections.WithLabelValues(string(result.Source)).Inc()

	if app.DetectionRepo != nil {
		if _, err := app.DetectionRepo.InsertResult(result); err != nil {
			// History is best-effort; the detection itself succeeded.
			log.Printf("[API] failed to store detection: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, result)
}

func (app *App) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	label, err := emotion.Parse(chi.URLParam(r, "emotion"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	set := app.Aggregator.Get(r.Context(), label)
	respondJSON(w, http.StatusOK, set)
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (app *App) TokenRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if app.Spotify == nil || !app.Spotify.Configured() {
		respondError(w, http.StatusBadGateway, "music catalog provider is not configured")
		return
	}

	force := r.URL.Query().Get("force") == "1"
	token, err := app.Spotify.Tokens().Token(r.Context(), force)
	if err != nil {
		log.Printf("[API] token refresh failed: %v", err)
		respondError(w, http.StatusBadGateway, "failed to obtain token")
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	})
}

func (app *App) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	detections, err := app.DetectionRepo.ListRecent(limit)
	if err != nil {
		log.Printf("[API] failed to list history: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, detections)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
