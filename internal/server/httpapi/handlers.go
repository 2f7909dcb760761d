package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/server/models"
	"github.com/dmitrijs2005/candidates/internal/server/services"
	"github.com/gorilla/mux"
)

const loginFailedMessage = "Please enter a correct username and password. Note that both fields are case-sensitive."

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := services.SubmitRequest{
		Caller:         callerFrom(ctx),
		TargetUsername: mux.Vars(r)["username"],
		Clear:          r.URL.Query().Get("clear") != "",
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("clear") != "" {
			req.Clear = true
		} else {
			req.Data = r.PostForm
		}
	}

	res, err := s.apps.Submit(ctx, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if res.Logout {
		s.sessions.Clear(w)
	}
	if res.LoginAccountID != 0 {
		if err := s.sessions.Issue(w, res.LoginAccountID); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}

	s.render(w, r, http.StatusOK, "apply.html", res)
}

func (s *Server) confirmManually(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(r.PostForm.Get("application_id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	redirect, err := s.apps.ConfirmManually(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, common.ErrorNotFound)
		return
	}

	redirect, err := s.confirmations.Confirm(r.Context(), id, mux.Vars(r)["code"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

type confirmedPage struct {
	Application *models.Application
	Caller      *services.Caller
}

func (s *Server) confirmed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, common.ErrorNotFound)
		return
	}

	app, err := s.confirmations.Status(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "confirmed.html", confirmedPage{Application: app, Caller: callerFrom(r.Context())})
}

type loginPage struct {
	Username string
	Next     string
	Error    string
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		s.render(w, r, http.StatusOK, "login.html", loginPage{Username: q.Get("username"), Next: q.Get("next")})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	page := loginPage{Username: r.PostForm.Get("username"), Next: r.PostForm.Get("next")}

	res, err := s.logins.Login(r.Context(), page.Username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			page.Error = loginFailedMessage
			s.render(w, r, http.StatusUnauthorized, "login.html", page)
			return
		}
		s.fail(w, r, err)
		return
	}

	if err := s.sessions.Issue(w, res.AccountID); err != nil {
		s.fail(w, r, err)
		return
	}

	// applicants always land where their application state sends them
	redirect := res.Redirect
	if res.Staff && safeNext(page.Next) {
		redirect = page.Next
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, services.ApplyPath(), http.StatusFound)
}

func (s *Server) listing(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	if caller == nil {
		http.Redirect(w, r, services.LoginPath("", r.URL.Path), http.StatusFound)
		return
	}

	l, err := s.listings.List(r.Context(), caller, mux.Vars(r)["round"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "listing.html", l)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeNext accepts only same-site absolute paths as a post-login target.
func safeNext(next string) bool {
	return strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, `\`)
}
