package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// maxUploadSize bounds multipart request bodies (10 MB)
const maxUploadSize = 10 << 20

// parseMultipart parses the multipart form with a size cap
func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

// formValue returns a required form field
func formValue(r *http.Request, name string) (string, error) {
	v := r.FormValue(name)
	if v == "" {
		return "", fmt.Errorf("missing form field %q", name)
	}
	return v, nil
}

// formStringPtr returns an optional form field, nil when absent
func formStringPtr(r *http.Request, name string) *string {
	if _, ok := r.MultipartForm.Value[name]; !ok {
		return nil
	}
	v := r.FormValue(name)
	return &v
}

// formFloat parses a required float form field
func formFloat(r *http.Request, name string) (float64, error) {
	raw, err := formValue(r, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid form field %q: %s", name, raw)
	}
	return v, nil
}

// formFloatPtr parses an optional float form field
func formFloatPtr(r *http.Request, name string) (*float64, error) {
	raw := formStringPtr(r, name)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid form field %q: %s", name, *raw)
	}
	return &v, nil
}

// formInt parses a required integer form field
func formInt(r *http.Request, name string) (int, error) {
	raw, err := formValue(r, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid form field %q: %s", name, raw)
	}
	return v, nil
}

// formIntPtr parses an optional integer form field
func formIntPtr(r *http.Request, name string) (*int, error) {
	raw := formStringPtr(r, name)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid form field %q: %s", name, *raw)
	}
	return &v, nil
}

// formBoolPtr parses an optional boolean form field
func formBoolPtr(r *http.Request, name string) (*bool, error) {
	raw := formStringPtr(r, name)
	if raw == nil {
		return nil, nil
	}
	v, err := strconv.ParseBool(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid form field %q: %s", name, *raw)
	}
	return &v, nil
}

// saveUpload stores an uploaded file and returns the stored path. A missing
// file returns ("", nil) so callers can treat the upload as optional.
func (s *Server) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("invalid upload %q: %w", field, err)
	}
	defer file.Close()
	return s.files.Save(file, header.Filename)
}

// requireUpload is saveUpload for mandatory files
func (s *Server) requireUpload(r *http.Request, field string) (string, error) {
	path, err := s.saveUpload(r, field)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("missing upload %q", field)
	}
	return path, nil
}
