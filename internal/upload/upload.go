// Package upload prepares local files for the document library.
package upload

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Metadata is the blob submitted alongside a document's content. It
// travels JSON-encoded inside the document's opaque metadata field.
type Metadata struct {
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by"`
}

// File is a local file read and ready to submit.
type File struct {
	Title    string
	Content  string
	Metadata string
}

// Read loads the entire file as text. Non-text formats are read as
// text regardless of encoding, matching what the backend expects from
// this client. uploadedBy attributes the upload in the metadata blob.
func Read(path, uploadedBy string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := filepath.Base(path)

	meta := Metadata{
		Filename:    name,
		Size:        int64(len(data)),
		ContentType: detectContentType(path, data),
		UploadedAt:  time.Now().UTC(),
		UploadedBy:  uploadedBy,
	}

	blob, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	return &File{
		Title:    name,
		Content:  string(data),
		Metadata: string(blob),
	}, nil
}

// detectContentType prefers the extension and falls back to sniffing
// the leading bytes.
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
