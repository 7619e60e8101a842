package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Documents lists the waiver documents known to the backend. A configured
// DocumentCache is consulted first and refreshed after a backend fetch.
func (c *Client) Documents(ctx context.Context) ([]WaiverDocument, error) {
	if c.docs != nil {
		if cached, ok := c.docs.Get(ctx); ok {
			var docs []WaiverDocument
			if err := json.Unmarshal(cached, &docs); err == nil {
				return docs, nil
			}
			c.logger.Warn("discarding unreadable cached document listing")
		}
	}

	body, err := c.do(ctx, "documents", http.MethodGet, "/api/documents/", nil, "")
	if err != nil {
		return nil, err
	}
	var docs []WaiverDocument
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding document listing: %v", ErrMalformed, err)
	}
	if docs == nil {
		docs = []WaiverDocument{}
	}
	if c.docs != nil {
		c.docs.Set(ctx, body)
	}
	return docs, nil
}

// PreviewURL is where the backend serves the document's file.
func (c *Client) PreviewURL(doc WaiverDocument) string {
	return c.mediaURL + "/" + (&url.URL{Path: doc.File}).EscapedPath()
}

// Upload sends one file as the multipart field "file" and returns the
// metadata the backend extracted from it.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*UploadMetadata, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("%w: creating form file: %v", ErrInvalidRequest, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidRequest, name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing form: %v", ErrInvalidRequest, err)
	}

	body, err := c.do(ctx, "upload", http.MethodPost, "/api/upload/", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: upload response is not an object", ErrMalformed)
	}
	meta := &UploadMetadata{
		Filename:    cast.ToString(fields["filename"]),
		Size:        cast.ToInt64(fields["size"]),
		ContentType: cast.ToString(fields["content_type"]),
		Fields:      fields,
	}
	if inv, ok := c.docs.(interface{ Invalidate(context.Context) }); ok {
		inv.Invalidate(ctx)
	}
	c.logger.Info("uploaded file", zap.String("file", name), zap.String("stored_as", meta.Filename))
	return meta, nil
}
