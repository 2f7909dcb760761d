package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests, s.measure)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	pages := r.NewRoute().Subrouter()
	pages.Use(neverCache, s.limiter.Handler, s.withCaller)

	pages.Handle("/", http.RedirectHandler("/apply/", http.StatusFound)).Methods(http.MethodGet)
	pages.HandleFunc("/apply/", s.apply).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/apply/{username}/confirm/", s.confirmManually).Methods(http.MethodPost)
	pages.HandleFunc("/apply/{username}/", s.apply).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/confirm/{id:[0-9]+}/{code}/", s.confirm).Methods(http.MethodGet)
	pages.HandleFunc("/confirmed/{id:[0-9]+}/", s.confirmed).Methods(http.MethodGet)
	pages.HandleFunc("/login/", s.login).Methods(http.MethodGet, http.MethodPost)
	pages.HandleFunc("/logout/", s.logout).Methods(http.MethodPost)
	pages.HandleFunc("/applications/", s.listing).Methods(http.MethodGet)
	pages.HandleFunc("/applications/{round}/", s.listing).Methods(http.MethodGet)

	return r
}
