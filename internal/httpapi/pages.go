package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/antoniostano/genesisvoice/internal/catalog"
	"github.com/antoniostano/genesisvoice/internal/policy"
	"github.com/antoniostano/genesisvoice/internal/session"
	"github.com/antoniostano/genesisvoice/internal/ttsapi"
)

const (
	msgNetworkError     = "Network error. Please try again."
	msgPasswordMismatch = "Passwords do not match"
	msgPasswordTooShort = "Password must be at least 8 characters"
	msgMissingFields    = "Please fill in all fields"
	msgSessionSave      = "Could not save your session. Please try again."

	minPasswordLength = 8
)

type pageData struct {
	Title         string
	Page          string
	Authenticated bool
	UserName      string
	Error         string

	// Form values echoed back after a failed submit. Passwords never are.
	Name  string
	Email string

	Languages       []catalog.Language
	DefaultLanguage string
	Presets         []catalog.StylePreset
	DefaultPreset   string
	MaxAttempts     int

	Plans         []catalog.PlanCard
	PriceCurrency string

	Usage catalog.UsageView

	APIBaseURL     string
	Endpoints      []catalog.Endpoint
	VoiceActorTags []catalog.EmotionTag
	StyleTags      []catalog.EmotionTag
	RateLimits     []catalog.RateLimit
}

var pageFuncs = template.FuncMap{
	"formatPrice":  catalog.FormatPrice,
	"formatNumber": catalog.FormatNumber,
	"percent":      func(f float64) string { return fmt.Sprintf("%.1f", f) },
}

func mustParsePages() *template.Template {
	return template.Must(template.New("pages").Funcs(pageFuncs).ParseFS(embeddedTemplates, "templates/*.html"))
}

func (s *Server) basePage(r *http.Request, page, title string) pageData {
	data := pageData{Title: title, Page: page}
	sess := sessionFrom(r)
	if sess == nil {
		return data
	}
	data.Authenticated = sess.IsAuthenticated(r.Context())
	if data.Authenticated {
		if user, ok, err := sess.User(r.Context()); err == nil && ok {
			data.UserName = user.DisplayName()
		}
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render page failed", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r, "home", "Genesis Voice")
	data.Languages = catalog.Languages()
	data.DefaultLanguage = s.cfg.DefaultLanguage
	if !catalog.SupportedLanguage(data.DefaultLanguage) {
		data.DefaultLanguage = catalog.Languages()[0].Code
	}
	data.Presets = catalog.StylePresets()
	data.DefaultPreset = catalog.DefaultPreset
	data.MaxAttempts = s.workflow.Config().MaxAttempts
	s.render(w, http.StatusOK, "home.html", data)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", s.basePage(r, "login", "Sign in"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r, "login", "Sign in")
	if err := r.ParseForm(); err != nil {
		data.Error = msgMissingFields
		s.render(w, http.StatusBadRequest, "login.html", data)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	data.Email = email

	if email == "" || password == "" {
		data.Error = msgMissingFields
		s.render(w, http.StatusBadRequest, "login.html", data)
		return
	}

	res, err := s.api.Login(r.Context(), email, password)
	if err != nil {
		s.logger.Info("login rejected", "email", policy.MaskEmail(email), "outcome", ttsapi.Outcome(err))
		data.Error = formError(err)
		s.render(w, http.StatusOK, "login.html", data)
		return
	}
	if !s.establish(w, r, res, "login", &data, "login.html") {
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "register.html", s.basePage(r, "register", "Create your account"))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r, "register", "Create your account")
	if err := r.ParseForm(); err != nil {
		data.Error = msgMissingFields
		s.render(w, http.StatusBadRequest, "register.html", data)
		return
	}
	name := strings.TrimSpace(r.PostForm.Get("name"))
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	confirm := r.PostForm.Get("confirm_password")
	data.Name = name
	data.Email = email

	switch {
	case name == "" || email == "" || password == "":
		data.Error = msgMissingFields
	case password != confirm:
		data.Error = msgPasswordMismatch
	case len([]rune(password)) < minPasswordLength:
		data.Error = msgPasswordTooShort
	}
	if data.Error != "" {
		s.render(w, http.StatusBadRequest, "register.html", data)
		return
	}

	res, err := s.api.Register(r.Context(), email, password, name)
	if err != nil {
		s.logger.Info("registration rejected", "email", policy.MaskEmail(email), "outcome", ttsapi.Outcome(err))
		data.Error = formError(err)
		s.render(w, http.StatusOK, "register.html", data)
		return
	}
	if !s.establish(w, r, res, "register", &data, "register.html") {
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// establish stores a fresh login under a new session id and drops whatever
// the old id held. On failure it renders page with an error and reports false.
func (s *Server) establish(w http.ResponseWriter, r *http.Request, res *ttsapi.AuthResult, event string, data *pageData, page string) bool {
	if res.Token == "" {
		s.logger.Warn("auth response without token", "event", event)
		data.Error = ttsapi.Message(&ttsapi.MalformedResponseError{Op: event, Err: session.ErrEmptyToken})
		s.render(w, http.StatusOK, page, *data)
		return false
	}

	old := sessionFrom(r)
	fresh := session.New(s.store, uuid.NewString())
	if err := fresh.Establish(r.Context(), res.Token, res.User); err != nil {
		s.logger.Error("session save failed", "event", event, "namespace", fresh.Namespace(), "error", err)
		data.Error = msgSessionSave
		s.render(w, http.StatusInternalServerError, page, *data)
		return false
	}
	if err := old.Clear(r.Context()); err != nil {
		s.logger.Warn("previous session clear failed", "namespace", old.Namespace(), "error", err)
	}
	s.setSessionCookie(w, fresh.Namespace())
	s.metrics.SessionEvent(event)
	s.logger.Info("session established", "event", event, "user", policy.MaskEmail(res.User.Email))
	return true
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := sess.Clear(r.Context()); err != nil {
		s.logger.Error("session clear failed", "namespace", sess.Namespace(), "error", err)
		http.Error(w, "could not sign out", http.StatusInternalServerError)
		return
	}
	s.rotateSession(w)
	s.metrics.SessionEvent("logout")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r, "dashboard", "Dashboard")
	if !data.Authenticated {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	token, _, err := sessionFrom(r).Token(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	sub, err := s.api.GetSubscription(r.Context(), token)
	if err != nil {
		// The dashboard still renders with free tier defaults.
		s.logger.Warn("subscription load failed", "outcome", ttsapi.Outcome(err), "error", err)
		sub = nil
	}
	data.Usage = catalog.BuildUsageView(sub)
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, http.StatusOK, "dashboard.html", data)
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r, "pricing", "Pricing")
	data.PriceCurrency = catalog.PriceCurrency

	var remote []ttsapi.Plan
	res, err := s.api.ListPlans(r.Context())
	if err != nil {
		s.logger.Warn("plans load failed", "outcome", ttsapi.Outcome(err), "error", err)
	} else {
		remote = res.Plans
	}
	data.Plans = catalog.MergePlans(remote)
	s.render(w, http.StatusOK, "pricing.html", data)
}

func (s *Server) handleAPIDocs(w http.ResponseWriter, r *http.Request) {
	data := s.basePage(r, "api-docs", "API Documentation")
	data.APIBaseURL = s.cfg.APIBaseURL
	data.Endpoints = catalog.Endpoints(s.cfg.APIBaseURL)
	data.Presets = catalog.StylePresets()
	data.VoiceActorTags = catalog.VoiceActorTags()
	data.StyleTags = catalog.StyleTags()
	data.RateLimits = catalog.RateLimits()
	s.render(w, http.StatusOK, "api_docs.html", data)
}

// formError is the line shown under an auth form: the server's own words for
// API errors and a generic retry hint for anything else.
func formError(err error) string {
	var apiErr *ttsapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ttsapi.ErrInvalidArgument) {
		return msgMissingFields
	}
	return msgNetworkError
}
