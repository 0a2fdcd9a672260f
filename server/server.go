package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ceramicnetwork/go-mint/common/config"
	"github.com/ceramicnetwork/go-mint/models"
)

const (
	maxUploadBytes   = 50 << 20
	maxMetadataBytes = 1 << 20
)

const (
	errMsg_MethodNotAllowed = "Method not allowed"
	errMsg_FileRequired     = "File is required"
	errMsg_InvalidJson      = "Invalid JSON body"
	errMsg_UploadFailed     = "Pin upload failed"
	errMsg_MetadataFailed   = "Failed to upload metadata"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// PinServer relays pin requests from the browser to the configured pinning backend so that the pinning credential
// stays on the server.
type PinServer struct {
	pinner models.ContentPinner
	cfg    *config.Config
	logger models.Logger
}

func NewRouter(logger models.Logger, pinner models.ContentPinner, cfg *config.Config) http.Handler {
	s := &PinServer{pinner, cfg, logger}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger),
	)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusMethodNotAllowed, errorResponse{Error: errMsg_MethodNotAllowed})
	})

	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/form", s.formFields)
		r.Post("/upload", s.upload)
		r.Post("/uploadmetadata", s.uploadMetadata)
	})
	return r
}

func (s *PinServer) health(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *PinServer) formFields(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, models.FormFields)
}

func (s *PinServer) upload(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.RequirePinning(); err != nil {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJson(w, http.StatusRequestEntityTooLarge, errorResponse{Error: http.StatusText(http.StatusRequestEntityTooLarge)})
			return
		}
		writeJson(w, http.StatusBadRequest, errorResponse{Error: errMsg_FileRequired})
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeJson(w, http.StatusBadRequest, errorResponse{Error: errMsg_FileRequired})
		return
	}
	if len(payload) == 0 {
		writeJson(w, http.StatusBadRequest, errorResponse{Error: errMsg_FileRequired})
		return
	}
	pin, err := s.pinner.PinBinary(r.Context(), models.UploadRequest{Payload: payload, Filename: header.Filename})
	if err != nil {
		s.logger.Errorf("server: error pinning %s: %v", header.Filename, err)
		s.writePinError(w, errMsg_UploadFailed, err)
		return
	}
	writeJson(w, http.StatusOK, pin)
}

func (s *PinServer) uploadMetadata(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.RequirePinning(); err != nil {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	var document json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMetadataBytes)).Decode(&document); err != nil {
		writeJson(w, http.StatusBadRequest, errorResponse{Error: errMsg_InvalidJson})
		return
	}
	pin, err := s.pinner.PinJson(r.Context(), document)
	if err != nil {
		s.logger.Errorf("server: error pinning metadata: %v", err)
		s.writePinError(w, errMsg_MetadataFailed, err)
		return
	}
	writeJson(w, http.StatusOK, pin)
}

// writePinError only ever exposes the short diagnostic carried by a remote service error.
func (s *PinServer) writePinError(w http.ResponseWriter, msg string, err error) {
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		writeJson(w, http.StatusInternalServerError, errorResponse{Error: cfgErr.Error()})
		return
	}
	resp := errorResponse{Error: msg}
	var remoteErr *models.RemoteServiceError
	if errors.As(err, &remoteErr) {
		resp.Details = remoteErr.Message
	}
	writeJson(w, http.StatusInternalServerError, resp)
}

func writeJson(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
