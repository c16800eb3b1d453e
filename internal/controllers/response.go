package controllers

import (
	apperrors "barcodedrop/internal/errors"
	"barcodedrop/internal/providers"
	"net/http"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	gson, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeError maps err to its code's HTTP status and public message.
func writeError(w http.ResponseWriter, logger providers.Logger, err error) {
	code := apperrors.CodeInternal
	if typed := apperrors.As(err); typed != nil {
		code = typed.Code()
	}
	meta := apperrors.MetadataFor(code)
	message := meta.PublicMessage
	if code == apperrors.CodeValidation {
		message = apperrors.As(err).Message()
	}
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logger.Errorf(providers.TypeHttp, "Request failed: %v", err)
	}
	writeJSON(w, meta.HTTPStatus, errorResponse{Code: code, Message: message})
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "malformed request body")
	}
	return nil
}
