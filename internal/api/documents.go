package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/conversational-console/internal/model"
)

// ListDocuments calls GET /documents. The backend returns every
// document the caller may see, with per-item permission flags.
func (c *Client) ListDocuments(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := c.do(ctx, "documents.list", http.MethodGet, "/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CreateDocument calls POST /documents, creating in the caller's
// personal library.
func (c *Client) CreateDocument(ctx context.Context, req *model.CreateDocumentRequest) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, "documents.create", http.MethodPost, "/documents", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateSharedDocument calls POST /documents/shared. Admin only.
func (c *Client) CreateSharedDocument(ctx context.Context, req *model.CreateDocumentRequest) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, "documents.create_shared", http.MethodPost, "/documents/shared", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument calls PUT /documents/{id}.
func (c *Client) UpdateDocument(ctx context.Context, documentID string, req *model.UpdateDocumentRequest) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, "documents.update", http.MethodPut, "/documents/"+url.PathEscape(documentID), req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument calls DELETE /documents/{id}.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.do(ctx, "documents.delete", http.MethodDelete, "/documents/"+url.PathEscape(documentID), nil, nil)
}
