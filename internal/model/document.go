package model

import (
	"time"
)

// OwnerType identifies which library a document belongs to.
type OwnerType string

const (
	OwnerTypeUser   OwnerType = "user"
	OwnerTypeShared OwnerType = "shared"
)

// Document represents a library document. CanEdit and CanDelete are
// per-caller permission flags computed by the backend; the client
// renders them but makes no authorization decisions of its own.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	OwnerType OwnerType `json:"owner_type"`
	OwnerID   string    `json:"owner_id"`
	IsVisible bool      `json:"is_visible"`
	CreatedBy string    `json:"created_by"`
	CanEdit   bool      `json:"can_edit"`
	CanDelete bool      `json:"can_delete"`
	// Metadata is an opaque JSON-encoded blob (filename, size, content
	// type, upload attribution).
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateDocumentRequest is the request to create a document in either
// the personal or the shared library.
type CreateDocumentRequest struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	Metadata string `json:"metadata,omitempty"`
}

// UpdateDocumentRequest is the request to update a document.
type UpdateDocumentRequest struct {
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
	IsVisible *bool  `json:"is_visible,omitempty"`
}
