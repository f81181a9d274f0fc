package server

import (
	"errors"
	"io"
	"net/http"

	"civicsnap/internal/storage"
	"civicsnap/pkg/types"
)

const multipartOverhead = 1 << 20

func (s *Service) handlePostUpload(w http.ResponseWriter, r *http.Request) {
	data, mimeType, name, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.uploads.Upload(r.Context(), data, mimeType, name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Service) handlePostVerify(w http.ResponseWriter, r *http.Request) {
	data, mimeType, _, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var form types.VerifyForm
	if err := decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		s.writeError(w, types.NewValidationError("description", "invalid form fields"))
		return
	}

	outcome, err := s.verifier.Verify(r.Context(), form.Description, form.Location, data, mimeType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, outcome)
}

// readImage parses the multipart body and returns the "image" part. The body
// is capped a little above the upload limit so oversized files fail early.
func (s *Service) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, string, error) {
	maxBytes := s.uploads.MaxBytes()
	tooLarge := types.NewValidationError("image", "Image size too large. Maximum size is %dMB.", maxBytes>>20)

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", "", tooLarge
		}
		return nil, "", "", types.NewValidationError("image", "Missing or invalid image file")
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", "", types.NewValidationError("image", "Missing or invalid image file")
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, "", "", tooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", "", types.NewValidationError("image", "Missing or invalid image file")
	}

	return data, storage.EffectiveMimeType(data, header.Header.Get("Content-Type")), header.Filename, nil
}
