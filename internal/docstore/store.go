// Package docstore is a small hierarchical document store. Documents live in
// collections addressed by slash separated paths such as
// "portfolio/admin/skills"; a document path is its collection path plus the
// document id.
package docstore

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPath = errors.New("invalid document path")
)

// Document is one stored record. Timestamps inside Data are time.Time values.
type Document struct {
	ID   string
	Data map[string]any
}

type Store interface {
	Get(ctx context.Context, docPath string) (Document, error)
	List(ctx context.Context, collectionPath string) ([]Document, error)
	Add(ctx context.Context, collectionPath string, data map[string]any) (string, error)
	Set(ctx context.Context, docPath string, data map[string]any) error
	// Update merges fields into an existing document. Dotted keys such as
	// "views.weekly_views" address nested fields.
	Update(ctx context.Context, docPath string, data map[string]any) error
	Delete(ctx context.Context, docPath string) error
	Increment(ctx context.Context, docPath, field string, delta int64) error
	Close() error
}

// Join builds a path from segments, ignoring empty ones.
func Join(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, "/")
}

// Split separates a document path into its collection path and id.
func Split(docPath string) (string, string, error) {
	clean := strings.Trim(docPath, "/")
	idx := strings.LastIndex(clean, "/")
	if idx <= 0 || idx == len(clean)-1 {
		return "", "", errors.Wrapf(ErrInvalidPath, "%q", docPath)
	}
	return clean[:idx], clean[idx+1:], nil
}

func cleanCollection(collectionPath string) (string, error) {
	clean := strings.Trim(collectionPath, "/")
	if clean == "" {
		return "", errors.Wrapf(ErrInvalidPath, "%q", collectionPath)
	}
	return clean, nil
}
