package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
)

type recordingStorage struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (s *recordingStorage) Save(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.key, s.contentType, s.body = key, contentType, data
	return "https://cdn.example.com/" + key, nil
}

func multipartUpload(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestMediaHandlerUpload(t *testing.T) {
	storage := &recordingStorage{}
	handler := MediaHandler{Storage: storage, NewID: func() string { return "cover" }}

	rec := httptest.NewRecorder()
	handler.Upload(rec, multipartUpload(t, "file", "Logo.PNG", []byte("png-bytes")))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if storage.key != "media/cover.png" || storage.contentType != "image/png" || string(storage.body) != "png-bytes" {
		t.Fatalf("unexpected stored object key=%q type=%q body=%q", storage.key, storage.contentType, storage.body)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["url"] != "https://cdn.example.com/media/cover.png" || body["key"] != "media/cover.png" {
		t.Fatalf("unexpected response %v", body)
	}
}

func TestMediaHandlerErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler MediaHandler
		field   string
		want    int
	}{
		{name: "not configured", handler: MediaHandler{}, field: "file", want: http.StatusServiceUnavailable},
		{name: "missing file", handler: MediaHandler{Storage: &recordingStorage{}}, field: "upload", want: http.StatusBadRequest},
		{name: "storage failure", handler: MediaHandler{Storage: &recordingStorage{err: errors.New("access denied")}}, field: "file", want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.Upload(rec, multipartUpload(t, tt.field, "a.jpg", []byte("data")))

			if rec.Code != tt.want {
				t.Fatalf("expected status %d got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestMediaHandlerRejectsOversizedFile(t *testing.T) {
	handler := MediaHandler{Storage: &recordingStorage{}}

	rec := httptest.NewRecorder()
	handler.Upload(rec, multipartUpload(t, "file", "big.png", make([]byte, MaxMediaSize+1)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413 got %d", rec.Code)
	}
}
