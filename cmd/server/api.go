package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/profile"
	"github.com/Simplici0/crewpay/internal/report"
	"github.com/Simplici0/crewpay/internal/salary"
)

const maxBodyBytes = 64 << 10

type apiProfile struct {
	profile.Profile
	Recovered bool `json:"recovered,omitempty"`
}

type apiError struct {
	Error  string              `json:"error"`
	Fields []salary.FieldError `json:"fields,omitempty"`
}

type apiBreakdown struct {
	Profile *apiProfile `json:"profile,omitempty"`
	report.View
}

func (s *server) handleAPIProfilesList(w http.ResponseWriter, r *http.Request) {
	profiles := s.profiles.List(r.Context())
	out := make([]apiProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, apiProfile{Profile: p, Recovered: p.Recovered})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleAPIProfileGet(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadForAPI(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, apiProfile{Profile: p, Recovered: p.Recovered})
}

// handleAPIConfigUpdate applies a partial config document on top of the stored config.
func (s *server) handleAPIConfigUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadForAPI(w, r)
	if !ok {
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	cfg := p.Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid config: " + err.Error()})
		return
	}
	if err := cfg.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	saved, err := s.profiles.UpdateConfig(r.Context(), p.ID, cfg)
	if err != nil {
		logger.Log.Error().Err(err).Str("profile_id", p.ID).Msg("Failed to update profile config")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to save profile"})
		return
	}
	writeJSON(w, http.StatusOK, apiProfile{Profile: saved})
}

func (s *server) handleAPIBreakdown(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadForAPI(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, apiBreakdown{
		Profile: &apiProfile{Profile: p, Recovered: p.Recovered},
		View:    report.NewView(salary.Calculate(p.Config)),
	})
}

// handleAPICalculate runs a calculation without touching any profile. Fields missing from
// the body take their default values.
func (s *server) handleAPICalculate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	cfg, err := salary.DecodeRateConfig(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err := cfg.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, apiBreakdown{View: report.NewView(salary.Calculate(cfg))})
}

func (s *server) loadForAPI(w http.ResponseWriter, r *http.Request) (profile.Profile, bool) {
	p, err := s.profiles.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, profile.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return profile.Profile{}, false
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to load profile"})
		return profile.Profile{}, false
	}
	return p, true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.New("request body too large or unreadable")
	}
	return body, nil
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := apiError{Error: err.Error()}
	var verr *salary.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}
