// Package api exposes the document analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"fund-review-rag/internal/apperrors"
	"fund-review-rag/internal/config"
	"fund-review-rag/internal/models"

	"github.com/google/uuid"
	"github.com/ory/herodot"
)

// ReviewPipeline runs the full document analysis for one upload.
type ReviewPipeline interface {
	Process(ctx context.Context, data []byte, filename string, customQuestions []string) (models.AnalyzeResponse, error)
}

type Server struct {
	mux      *http.ServeMux
	pipeline ReviewPipeline
	cfg      *config.Config
	writer   *herodot.JSONWriter
}

func NewServer(pipeline ReviewPipeline, cfg *config.Config) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		pipeline: pipeline,
		cfg:      cfg,
		writer:   herodot.NewJSONWriter(nil),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/analyze", s.analyzeDocument)
	s.mux.HandleFunc("/health", s.healthCheck)
}

// Handler returns the server's handler chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return loggingMiddleware(s.mux)
}

func (s *Server) Run(addr string) error {
	log.Printf("Server starting on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) analyzeDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.cfg.Review.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Invalid multipart request"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("No file provided"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason("Failed to read uploaded file"))
		return
	}

	customQuestions, err := s.parseCustomQuestions(r.FormValue("custom_questions"))
	if err != nil {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason(err.Error()))
		return
	}

	result, err := s.pipeline.Process(r.Context(), data, header.Filename, customQuestions)
	if err != nil {
		s.writeProcessError(w, r, err)
		return
	}

	s.writer.Write(w, r, &result)
}

// parseCustomQuestions decodes the optional custom_questions form field and
// enforces the configured count and length caps.
func (s *Server) parseCustomQuestions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, errors.New("Invalid format for custom_questions")
	}

	if len(questions) > s.cfg.Review.MaxCustomQuestions {
		return nil, fmt.Errorf("Too many custom questions: %d exceeds limit of %d", len(questions), s.cfg.Review.MaxCustomQuestions)
	}
	for _, q := range questions {
		if len(q) > s.cfg.Review.MaxQuestionLength {
			return nil, fmt.Errorf("Custom question exceeds %d characters", s.cfg.Review.MaxQuestionLength)
		}
	}

	return questions, nil
}

// writeProcessError maps pipeline failures onto HTTP statuses: client-caused
// input problems are 400, everything else is 500.
func (s *Server) writeProcessError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *apperrors.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason(unsupported.Error()))
		return
	}
	if errors.Is(err, apperrors.ErrEmptyDocument) {
		s.writer.WriteError(w, r, herodot.ErrBadRequest.WithReason(err.Error()))
		return
	}

	s.writer.WriteError(w, r, herodot.ErrInternalServerError.WithReason(fmt.Sprintf("An error occurred: %s", err.Error())))
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error": "Method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	response := &models.HealthResponse{Status: "healthy"}
	s.writer.Write(w, r, response)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s request_id=%s duration=%s", r.Method, r.RequestURI, r.RemoteAddr, requestID, time.Since(start))
	})
}
