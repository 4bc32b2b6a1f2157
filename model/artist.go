package model

import "time"

// Artist is a tenant-scoped identity referenced by ID from releases and tracks.
type Artist struct {
	ID      string `json:"id"`
	LabelID string `json:"labelId"`
	Name    string `json:"name"`

	// Store profile IDs, consumed by the export mapper and dashboard links
	SpotifyID    string `json:"spotifyId,omitempty"`
	AppleMusicID string `json:"appleMusicId,omitempty"`
	InstagramURL string `json:"instagramUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Label is a tenant root. It owns artists and releases and may have sub-labels.
type Label struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ParentLabelID string `json:"parentLabelId,omitempty"` // at most one parent
	Email         string `json:"email"`

	RevenueShare float64 `json:"revenueShare"`
	// MaxArtists caps artist creation under this label. 0 means unlimited.
	MaxArtists int `json:"maxArtists"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
