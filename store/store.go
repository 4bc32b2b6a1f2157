// Package store provides the hierarchical key-value document store the
// back office persists all workflow entities in.
package store

import (
	"context"
	"encoding/json"
	"strings"
)

// Collection path prefixes. Every document lives under exactly one of these.
const (
	CollectionLabels   = "labels"
	CollectionArtists  = "artists"
	CollectionReleases = "releases"
	CollectionUsers    = "users"
	CollectionNotices  = "notices"
	CollectionRevenue  = "revenue"
)

// Path joins a collection and an ID into a document path.
func Path(collection, id string) string {
	return collection + "/" + id
}

// CollectionOf returns the collection segment of a document path.
func CollectionOf(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// Document is one stored record: its path plus the raw JSON payload.
type Document struct {
	Path string
	Data json.RawMessage
}

// Decode unmarshals the document payload into out.
func (d Document) Decode(out interface{}) error {
	return json.Unmarshal(d.Data, out)
}

// DocumentStore is the persistence contract the workflow core depends on.
// Implementations return model.NotFoundError (via NewNotFoundError) from Get,
// Update and Remove when the path does not resolve.
//
// Listing is by collection prefix; filtering happens client-side at the
// repository layer so a backend with server-side queries can be swapped in
// without touching call sites.
type DocumentStore interface {
	Get(ctx context.Context, path string, out interface{}) error
	Set(ctx context.Context, path string, value interface{}) error
	// Update merges the given fields into the stored document.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	Remove(ctx context.Context, path string) error
	List(ctx context.Context, collection string) ([]Document, error)
}
