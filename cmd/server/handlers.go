package main

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/profile"
	"github.com/Simplici0/crewpay/internal/report"
	"github.com/Simplici0/crewpay/internal/salary"
	"github.com/Simplici0/crewpay/web"
)

const recoveredWarning = "The saved profile could not be read, so default values are shown. Saving will overwrite it."

type server struct {
	profiles *profile.Service
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
}

type homeViewData struct {
	baseViewData
	Profiles []profile.Profile
}

type notFoundViewData struct {
	baseViewData
	ID string
}

type profileViewData struct {
	baseViewData
	Profile    profile.Profile
	Result     salary.Result
	GrandTotal string
	Holding    string
	PerDiemTHB string
	Errors     []string
	Warning    string
	// Values holds the form inputs keyed by field name.
	Values map[string]string
}

func newProfileView(p profile.Profile, cfg salary.RateConfig) profileViewData {
	res := salary.Calculate(cfg)
	view := profileViewData{
		Profile:    p,
		Values:     formValues(p.Name, cfg),
		Result:     res,
		GrandTotal: salary.FormatMoney(res.Totals.GrandTotalTHB, salary.THB),
		Holding:    salary.FormatMoney(res.Totals.HoldingAmount, res.Totals.HoldingCurrency),
		PerDiemTHB: salary.FormatMoney(res.Totals.PerDiemTHB, salary.THB),
	}
	if p.Recovered {
		view.Warning = recoveredWarning
	}
	return view
}

// formValues renders cfg the way the profile form shows it.
func formValues(name string, cfg salary.RateConfig) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return map[string]string{
		"name":                name,
		"exchange_rate":       f(cfg.ExchangeRate),
		"normal_rate":         f(cfg.NormalRate),
		"ot_rate":             f(cfg.OTRate),
		"super_ot_rate":       f(cfg.SuperOTRate),
		"per_diem_euro_mult":  f(cfg.PerDiemEuroMult),
		"per_diem_other_mult": f(cfg.PerDiemOtherMult),
		"withdrawal_currency": string(cfg.WithdrawalCurrency),
		"cathay_rate":         f(cfg.CathayRate),
		"superrich_rate_usd":  f(cfg.SuperrichRateUSD),
		"superrich_rate_twd":  f(cfg.SuperrichRateTWD),
		"transport_rate":      f(cfg.TransportRate),
		"transport_trips":     strconv.Itoa(cfg.TransportTrips),
		"bh_hours":            strconv.Itoa(cfg.BHHours),
		"bh_mins":             strconv.Itoa(cfg.BHMins),
		"p1_hours":            strconv.Itoa(cfg.P1Hours),
		"p1_mins":             strconv.Itoa(cfg.P1Mins),
		"p2_hours":            strconv.Itoa(cfg.P2Hours),
		"p2_mins":             strconv.Itoa(cfg.P2Mins),
		"base_salary":         f(cfg.BaseSalary),
		"position_allowance":  f(cfg.PositionAllowance),
	}
}

// keepSubmitted replaces the form values with the posted ones.
func (v *profileViewData) keepSubmitted(r *http.Request) {
	for field := range v.Values {
		if _, ok := r.Form[field]; !ok {
			continue
		}
		value := strings.TrimSpace(r.FormValue(field))
		if field == "withdrawal_currency" {
			value = strings.ToUpper(value)
		}
		v.Values[field] = value
	}
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("profile"))
	if id == "" {
		data := homeViewData{Profiles: s.profiles.List(r.Context())}
		if r.URL.Query().Get("deleted") == "1" {
			data.SuccessMessage = "Profile deleted."
		}
		s.renderTemplate(w, http.StatusOK, "home.html", data)
		return
	}

	p, err := s.profiles.Load(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		s.renderTemplate(w, http.StatusNotFound, "not_found.html", notFoundViewData{ID: id})
		return
	}
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	view := newProfileView(p, p.Config)
	if r.URL.Query().Get("saved") == "1" {
		view.SuccessMessage = "Saved."
	}
	s.renderTemplate(w, http.StatusOK, "profile.html", view)
}

func (s *server) handleProfileCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p, err := s.profiles.Create(r.Context(), r.FormValue("name"))
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to create profile")
		s.renderTemplate(w, http.StatusInternalServerError, "home.html", homeViewData{
			baseViewData: baseViewData{ErrorMessage: "The profile could not be created."},
			Profiles:     s.profiles.List(r.Context()),
		})
		return
	}

	http.Redirect(w, r, profileURL(p.ID), http.StatusSeeOther)
}

func (s *server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p, err := s.profiles.Load(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		s.renderTemplate(w, http.StatusNotFound, "not_found.html", notFoundViewData{ID: id})
		return
	}
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	cfg, fieldErrs := parseRateConfigForm(r)
	if len(fieldErrs) == 0 {
		fieldErrs = validationMessages(cfg.Validate())
	}
	if len(fieldErrs) > 0 {
		view := newProfileView(p, p.Config)
		view.keepSubmitted(r)
		view.Errors = fieldErrs
		view.ErrorMessage = "Nothing was saved. Fix the highlighted values and try again."
		s.renderTemplate(w, http.StatusBadRequest, "profile.html", view)
		return
	}

	if name, ok := r.Form["name"]; ok {
		p.Name = strings.Join(name, " ")
	}
	p.Config = cfg

	saved, err := s.profiles.Save(r.Context(), p)
	if err != nil {
		logger.Log.Error().Err(err).Str("profile_id", id).Msg("Failed to save profile")
		view := newProfileView(p, cfg)
		view.Warning = "The result below could not be saved. It will be lost when you leave this page."
		s.renderTemplate(w, http.StatusOK, "profile.html", view)
		return
	}

	http.Redirect(w, r, profileURL(saved.ID)+"&saved=1", http.StatusSeeOther)
}

func (s *server) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.profiles.Delete(r.Context(), id)
	if errors.Is(err, profile.ErrNotFound) {
		s.renderTemplate(w, http.StatusNotFound, "not_found.html", notFoundViewData{ID: id})
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("profile_id", id).Msg("Failed to delete profile")
		http.Error(w, "failed to delete profile", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/?deleted=1", http.StatusSeeOther)
}

func (s *server) handleProfileText(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadForView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteText(&buf, p.Name, salary.Calculate(p.Config)); err != nil {
		http.Error(w, "failed to render breakdown", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleProfileChart(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadForView(w, r)
	if !ok {
		return
	}

	png, err := report.Chart(salary.Calculate(p.Config))
	if errors.Is(err, report.ErrNothingToChart) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("profile_id", p.ID).Msg("Failed to render chart")
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// loadForView loads the profile named by the id URL param, writing a plain 404 when absent.
func (s *server) loadForView(w http.ResponseWriter, r *http.Request) (profile.Profile, bool) {
	p, err := s.profiles.Load(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, profile.ErrNotFound) {
		http.Error(w, "profile not found", http.StatusNotFound)
		return profile.Profile{}, false
	}
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return profile.Profile{}, false
	}
	return p, true
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func profileURL(id string) string {
	return "/?profile=" + url.QueryEscape(id)
}

// parseRateConfigForm reads every calculator input from the form. All problems are reported,
// not just the first.
func parseRateConfigForm(r *http.Request) (salary.RateConfig, []string) {
	var (
		cfg  salary.RateConfig
		errs []string
	)

	floats := []struct {
		field string
		dst   *float64
	}{
		{"exchange_rate", &cfg.ExchangeRate},
		{"normal_rate", &cfg.NormalRate},
		{"ot_rate", &cfg.OTRate},
		{"super_ot_rate", &cfg.SuperOTRate},
		{"per_diem_euro_mult", &cfg.PerDiemEuroMult},
		{"per_diem_other_mult", &cfg.PerDiemOtherMult},
		{"cathay_rate", &cfg.CathayRate},
		{"superrich_rate_usd", &cfg.SuperrichRateUSD},
		{"superrich_rate_twd", &cfg.SuperrichRateTWD},
		{"transport_rate", &cfg.TransportRate},
		{"base_salary", &cfg.BaseSalary},
		{"position_allowance", &cfg.PositionAllowance},
	}
	for _, f := range floats {
		v, err := parseNonNegativeFloat(r.FormValue(f.field), f.field)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		*f.dst = v
	}

	counts := []struct {
		field string
		dst   *int
	}{
		{"transport_trips", &cfg.TransportTrips},
		{"bh_hours", &cfg.BHHours},
		{"p1_hours", &cfg.P1Hours},
		{"p2_hours", &cfg.P2Hours},
	}
	for _, f := range counts {
		v, err := parseNonNegativeInt(r.FormValue(f.field), f.field)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		*f.dst = v
	}

	minutes := []struct {
		field string
		dst   *int
	}{
		{"bh_mins", &cfg.BHMins},
		{"p1_mins", &cfg.P1Mins},
		{"p2_mins", &cfg.P2Mins},
	}
	for _, f := range minutes {
		v, err := parseMinutes(r.FormValue(f.field), f.field)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		*f.dst = v
	}

	currency, err := salary.ParseWithdrawalCurrency(r.FormValue("withdrawal_currency"))
	if err != nil {
		errs = append(errs, "withdrawal_currency must be USD or TWD")
	}
	cfg.WithdrawalCurrency = currency

	return cfg, errs
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%s must be a number", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be greater than or equal to 0", field)
	}
	return value, nil
}

func parseNonNegativeInt(raw, field string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be greater than or equal to 0", field)
	}
	return value, nil
}

func parseMinutes(raw, field string) (int, error) {
	value, err := parseNonNegativeInt(raw, field)
	if err != nil {
		return 0, err
	}
	if value > 59 {
		return 0, fmt.Errorf("%s must be between 0 and 59", field)
	}
	return value, nil
}

func validationMessages(err error) []string {
	if err == nil {
		return nil
	}
	var verr *salary.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		msgs = append(msgs, f.Error())
	}
	return msgs
}

func (s *server) renderTemplate(w http.ResponseWriter, status int, page string, data any) {
	templates, err := template.ParseFS(web.Templates,
		"templates/layout.html",
		"templates/"+page,
	)
	if err != nil {
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logger.Log.Error().Err(err).Str("page", page).Msg("Failed to render template")
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
