package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clinmon-lab/asclepius/pkg/domain/types"
	"github.com/clinmon-lab/asclepius/pkg/usecase"
	"github.com/clinmon-lab/asclepius/pkg/utils/errutil"
	"github.com/clinmon-lab/asclepius/pkg/utils/logging"
	"github.com/clinmon-lab/asclepius/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
)

// Server exposes the read-only review API over stored reports and run
// checkpoints. It never triggers pipeline work.
type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api/patients/{patientID}", func(r chi.Router) {
		r.Get("/report", s.reportHandler)
		r.Get("/checkpoint", s.checkpointHandler)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	patientID := types.PatientID(chi.URLParam(r, "patientID"))
	if patientID == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("patient ID is required"), http.StatusBadRequest)
		return
	}

	report, err := s.uc.GetReport(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, usecase.ErrReportNotFound) {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, report)
}

func (s *Server) checkpointHandler(w http.ResponseWriter, r *http.Request) {
	patientID := types.PatientID(chi.URLParam(r, "patientID"))
	if patientID == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.New("patient ID is required"), http.StatusBadRequest)
		return
	}

	cp, err := s.uc.GetCheckpoint(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, usecase.ErrReportNotFound) {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
			return
		}
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, cp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	safe.Write(r.Context(), w, data)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
