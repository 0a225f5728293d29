package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"surveypulse/internal/service"
)

const maxFormMemory = 32 << 20

// ResponseHandler handles respondent submissions
type ResponseHandler struct {
	responseSvc *service.ResponseService
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responseSvc *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{responseSvc: responseSvc}
}

// Submit handles POST /api/responses (multipart: surveyId, answers, timeSpent, images)
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	files, err := uploadedImages(r.MultipartForm)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.responseSvc.Submit(r.Context(), service.Submission{
		SurveyID:  r.FormValue("surveyId"),
		Answers:   r.FormValue("answers"),
		TimeSpent: r.FormValue("timeSpent"),
		Files:     files,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// uploadedImages returns the image parts in client order. Files may come
// under "images" or "images[]" but not both, since the order across two
// field names is lost.
func uploadedImages(form *multipart.Form) ([]*multipart.FileHeader, error) {
	if form == nil {
		return nil, nil
	}
	plain, bracketed := form.File["images"], form.File["images[]"]
	if len(plain) > 0 && len(bracketed) > 0 {
		msg := "images must be sent under a single field name"
		return nil, &service.ValidationError{
			Message: msg,
			Details: []service.FieldError{{Field: "images", Rule: "single_field", Message: msg}},
		}
	}
	if len(bracketed) > 0 {
		return bracketed, nil
	}
	return plain, nil
}
