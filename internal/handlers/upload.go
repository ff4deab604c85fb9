package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/newsroom-api/server/internal/services"
)

const (
	formFieldImage = "image"
	// Room for multipart headers around a maximum size image.
	multipartOverhead = 64 << 10
)

// formImage returns the multipart "image" file of the request. Oversized
// bodies are cut off before they are buffered.
func formImage(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(services.MaxImageSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, services.ErrImageTooLarge
		}
		return nil, errInvalidBody
	}

	file, _, err := r.FormFile(formFieldImage)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, services.ErrMissingFields
	}
	if err != nil {
		return nil, errInvalidBody
	}
	return file, nil
}

// ImageResponse carries the public URL of an uploaded image.
type ImageResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}
