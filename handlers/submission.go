package handlers

import (
	"io"
	"net/http"

	"hackreg/apperror"
	"hackreg/middleware"
	"hackreg/services"

	"go.uber.org/zap"
)

type SubmissionHandler struct {
	submissions *services.SubmissionService
	maxBytes    int64
	logger      *zap.Logger
}

func NewSubmissionHandler(submissions *services.SubmissionService, maxBytes int64, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, maxBytes: maxBytes, logger: logger}
}

// TaskSubmit accepts a single multipart PDF under the "document" field.
// Type and size are rejected here, before any store interaction.
func (h *SubmissionHandler) TaskSubmit(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	// Size limit plus headroom for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, apperror.New(apperror.ErrValidation, apperror.KindBadDocument, "document exceeds the size limit or the form is malformed"))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, apperror.New(apperror.ErrValidation, apperror.KindBadDocument, "document file is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		writeError(w, apperror.New(apperror.ErrValidation, apperror.KindBadDocument, "document exceeds the size limit"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read uploaded document", zap.Error(err))
		writeError(w, apperror.Internal(apperror.KindInternal, "failed to read the uploaded document"))
		return
	}

	submission, err := h.submissions.Submit(r.Context(), identity.UID, data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submission)
}
