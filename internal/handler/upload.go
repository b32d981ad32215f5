// ==============================================================================
// DOCUMENT UPLOAD HANDLER - internal/handler/upload.go
// ==============================================================================
// Handles document uploads for the wizard checklist with multipart form
// parsing, file size/type validation, and extraction kickoff in assisted mode.
// ==============================================================================

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"onboarding/internal/domain"
	"onboarding/internal/extraction"
	"onboarding/internal/wizard"
	apperrors "onboarding/pkg/errors"
	"onboarding/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// UploadConfig holds configuration for file upload validation
type UploadConfig struct {
	MaxFileSizeMB int64 `json:"max_file_size_mb"`
	MinFileSizeKB int64 `json:"min_file_size_kb"`

	AllowedMimeTypes  []string `json:"allowed_mime_types"`
	AllowedExtensions []string `json:"allowed_extensions"`

	MaxConcurrentUploads int `json:"max_concurrent_uploads"`
}

// DefaultUploadConfig returns default upload configuration
func DefaultUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxFileSizeMB: 10,
		MinFileSizeKB: 1,

		AllowedMimeTypes: []string{
			"application/pdf",
			"image/jpeg",
			"image/png",
		},

		AllowedExtensions: []string{
			".pdf", ".jpg", ".jpeg", ".png",
		},

		MaxConcurrentUploads: 10,
	}
}

// UploadHandler handles wizard document uploads.
type UploadHandler struct {
	store   *wizard.Store
	service *wizard.Service
	poller  *extraction.Poller
	hub     *ProgressHub
	logger  logger.Logger
	config  *UploadConfig

	uploadSemaphore chan struct{}
}

// NewUploadHandler creates a new UploadHandler with required dependencies
func NewUploadHandler(
	store *wizard.Store,
	service *wizard.Service,
	poller *extraction.Poller,
	hub *ProgressHub,
	log logger.Logger,
	config *UploadConfig,
) *UploadHandler {
	if config == nil {
		config = DefaultUploadConfig()
	}

	return &UploadHandler{
		store:           store,
		service:         service,
		poller:          poller,
		hub:             hub,
		logger:          log,
		config:          config,
		uploadSemaphore: make(chan struct{}, config.MaxConcurrentUploads),
	}
}

// respondJSON sends a JSON response
func (h *UploadHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", map[string]interface{}{
			"error":   err.Error(),
			"status":  status,
			"handler": "upload",
		})
		http.Error(w, `{"error":"response encoding failed"}`, http.StatusInternalServerError)
	}
}

// respondError sends a standardized error response
func (h *UploadHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *UploadHandler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid session id")
		return nil, false
	}

	sess, err := h.store.Get(id)
	if err != nil {
		status := http.StatusNotFound
		message := "Session not found"
		if err == apperrors.ErrSessionExpired {
			status = http.StatusGone
			message = "Session expired"
		}
		h.respondError(w, status, message)
		return nil, false
	}

	sess.Touch()
	return sess, true
}

// ==============================================================================
// MULTIPART PARSING AND VALIDATION
// ==============================================================================

type parsedUpload struct {
	FileName string
	FileSize int64
	MimeType string
	Content  []byte
}

// parseMultipartForm parses a multipart form request and extracts the file
func (h *UploadHandler) parseMultipartForm(r *http.Request) (*parsedUpload, error) {
	maxFormSize := (h.config.MaxFileSizeMB * 1024 * 1024) + (1 << 20) // +1MB for form fields

	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if err == http.ErrNotMultipart {
			return nil, fmt.Errorf("request is not multipart form")
		} else if err == http.ErrMissingBoundary {
			return nil, fmt.Errorf("multipart boundary is missing")
		} else if strings.Contains(err.Error(), "request body too large") {
			maxSizeMB := float64(maxFormSize) / (1024 * 1024)
			return nil, fmt.Errorf("request body exceeds maximum size of %.1fMB", maxSizeMB)
		}
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, fmt.Errorf("%w: 'file' field is required in multipart form", apperrors.ErrNoDocumentAttached)
		}
		return nil, fmt.Errorf("failed to get file from form: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	fileSize, err := io.Copy(&buf, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = inferMimeType(fileHeader.Filename)
	}

	return &parsedUpload{
		FileName: fileHeader.Filename,
		FileSize: fileSize,
		MimeType: mimeType,
		Content:  buf.Bytes(),
	}, nil
}

// validateFileSize validates file size against configuration
func (h *UploadHandler) validateFileSize(fileSize int64) error {
	maxBytes := h.config.MaxFileSizeMB * 1024 * 1024
	minBytes := h.config.MinFileSizeKB * 1024

	if fileSize < minBytes {
		return fmt.Errorf(
			"%w: %d bytes (minimum: %d bytes / %d KB)",
			apperrors.ErrFileTooSmall, fileSize, minBytes, h.config.MinFileSizeKB,
		)
	}

	if fileSize > maxBytes {
		return fmt.Errorf(
			"%w: %d bytes (maximum: %d bytes / %d MB)",
			apperrors.ErrFileTooLarge, fileSize, maxBytes, h.config.MaxFileSizeMB,
		)
	}

	return nil
}

// validateFileType validates MIME type and file extension
func (h *UploadHandler) validateFileType(fileName, mimeType string) error {
	mimeTypeValid := false
	for _, allowedMime := range h.config.AllowedMimeTypes {
		if strings.EqualFold(mimeType, allowedMime) {
			mimeTypeValid = true
			break
		}
	}

	if !mimeTypeValid {
		return fmt.Errorf(
			"%w: invalid MIME type %s (allowed: %s)",
			apperrors.ErrFileTypeNotAllowed, mimeType, strings.Join(h.config.AllowedMimeTypes, ", "),
		)
	}

	fileExt := strings.ToLower(filepath.Ext(fileName))
	extensionValid := false
	for _, allowedExt := range h.config.AllowedExtensions {
		if strings.EqualFold(fileExt, allowedExt) {
			extensionValid = true
			break
		}
	}

	if !extensionValid {
		return fmt.Errorf(
			"%w: invalid file extension %s (allowed: %s)",
			apperrors.ErrFileTypeNotAllowed, fileExt, strings.Join(h.config.AllowedExtensions, ", "),
		)
	}

	return nil
}

// validateFileName validates file name for security
func (h *UploadHandler) validateFileName(fileName string) error {
	if strings.Contains(fileName, "..") || strings.Contains(fileName, "/") || strings.Contains(fileName, "\\") {
		return fmt.Errorf("invalid file name: contains path traversal characters")
	}

	if strings.Contains(fileName, "\x00") {
		return fmt.Errorf("invalid file name: contains null byte")
	}

	if len(fileName) > 255 {
		return fmt.Errorf("file name too long: maximum 255 characters")
	}

	return nil
}

// validateFile runs all checks and collects the failures.
func (h *UploadHandler) validateFile(up *parsedUpload) []string {
	var validationErrors []string

	if err := h.validateFileSize(up.FileSize); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if err := h.validateFileType(up.FileName, up.MimeType); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if err := h.validateFileName(up.FileName); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if len(up.Content) == 0 {
		validationErrors = append(validationErrors, "file is empty")
	}

	return validationErrors
}

// ==============================================================================
// UPLOAD ENDPOINTS
// ==============================================================================

// UploadDocument attaches a file to a checklist slot. In assisted mode the
// document is also submitted for extraction, and the resulting job is polled
// in the background until it finishes or the session goes away.
// POST /wizard/sessions/{id}/documents/{key}
func (h *UploadHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	select {
	case h.uploadSemaphore <- struct{}{}:
		defer func() { <-h.uploadSemaphore }()
	default:
		h.logger.Warn("Upload concurrency limit reached", map[string]interface{}{
			"event": "upload_concurrency_limit",
			"limit": h.config.MaxConcurrentUploads,
			"ip":    r.RemoteAddr,
		})
		h.respondError(w, http.StatusServiceUnavailable, "Too many concurrent uploads, please try again later")
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["key"]

	up, err := h.parseMultipartForm(r)
	if err != nil {
		h.logger.Warn("Multipart form parsing failed", map[string]interface{}{
			"event":   "multipart_parse_failed",
			"session": sess.ID.String(),
			"error":   err.Error(),
		})
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	validationErrors := h.validateFile(up)
	if len(validationErrors) > 0 {
		h.logger.Warn("File validation failed", map[string]interface{}{
			"event":     "file_validation_failed",
			"session":   sess.ID.String(),
			"file_name": up.FileName,
			"errors":    validationErrors,
			"file_size": up.FileSize,
			"mime_type": up.MimeType,
		})
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "File validation failed",
			"details": validationErrors,
		})
		return
	}

	if err := h.service.AttachDocument(sess, key, up.FileName, up.Content); err != nil {
		h.respondError(w, http.StatusNotFound, "Unknown document slot")
		return
	}

	h.logger.Info("Document attached", map[string]interface{}{
		"event":     "document_attached",
		"session":   sess.ID.String(),
		"document":  key,
		"file_name": up.FileName,
		"file_size": up.FileSize,
		"mode":      string(sess.State().Mode),
	})

	response := map[string]interface{}{
		"session": buildSessionView(sess),
	}

	// Manual mode skips extraction entirely.
	if sess.State().Mode == domain.ModeAssisted {
		if job := h.startExtraction(r.Context(), sess, key, up); job != nil {
			response["extraction"] = map[string]interface{}{
				"jobId":  job.JobID,
				"status": string(job.Status),
			}
		} else {
			response["extraction"] = map[string]interface{}{
				"status": string(domain.JobFailed),
			}
		}
	}

	h.respondJSON(w, http.StatusCreated, response)
}

// startExtraction submits the file and begins background polling. The poll
// loop is cancelled when the slot is resubmitted or the session closes.
func (h *UploadHandler) startExtraction(ctx context.Context, sess *wizard.Session, key string, up *parsedUpload) *domain.ExtractionJob {
	topic := sess.ID.String() + "/" + key

	job, err := h.poller.Submit(ctx, key, extraction.SubmitRequest{
		FileName: up.FileName,
		Data:     up.Content,
		DocType:  key,
	})
	if err != nil {
		h.logger.Error("Extraction submission failed", map[string]interface{}{
			"session":  sess.ID.String(),
			"document": key,
			"error":    err.Error(),
		})
		h.hub.Publish(topic, ProgressEvent{
			Document: key,
			Status:   string(domain.JobFailed),
			Error:    "submission failed",
		})
		return nil
	}

	h.hub.Publish(topic, ProgressEvent{
		Document: key,
		Status:   string(job.Status),
	})

	pollCtx, cancel := context.WithCancel(context.Background())
	sess.RegisterCancel("extract:"+key, cancel)

	go h.poller.Run(pollCtx, job, extraction.Hooks{
		OnProgress: func(j domain.ExtractionJob) {
			h.hub.Publish(topic, ProgressEvent{
				Document: key,
				Status:   string(j.Status),
				Progress: j.Progress,
			})
		},
		OnComplete: func(j domain.ExtractionJob, patch map[string]string) {
			sess.PatchBusiness(patch)
			h.hub.Publish(topic, ProgressEvent{
				Document: key,
				Status:   string(j.Status),
				Progress: j.Progress,
				Fields:   j.ExtractedFields,
			})
		},
		OnFailure: func(j domain.ExtractionJob) {
			h.hub.Publish(topic, ProgressEvent{
				Document: key,
				Status:   string(j.Status),
				Progress: j.Progress,
				Error:    j.Error,
			})
		},
	})

	return job
}

// RemoveDocument clears a checklist slot and cancels any extraction still
// polling for it.
// DELETE /wizard/sessions/{id}/documents/{key}
func (h *UploadHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["key"]

	if err := h.service.RemoveDocument(sess, key); err != nil {
		h.respondError(w, http.StatusNotFound, "Unknown document slot")
		return
	}

	// A fresh no-op cancel displaces (and cancels) the live poll loop.
	sess.RegisterCancel("extract:"+key, func() {})
	h.hub.Forget(sess.ID.String() + "/" + key)

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"session": buildSessionView(sess),
	})
}

// inferMimeType infers mime type from file extension
func inferMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
