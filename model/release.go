package model

import (
	"sort"
	"time"
)

// ReleaseStatus is the workflow state of a release.
type ReleaseStatus string

const (
	StatusDraft     ReleaseStatus = "Draft"
	StatusPending   ReleaseStatus = "Pending"
	StatusPublished ReleaseStatus = "Published"
	StatusRejected  ReleaseStatus = "Rejected"
	StatusNeedsInfo ReleaseStatus = "Needs Info"
	StatusTakedown  ReleaseStatus = "Takedown"
)

// CanTransitionTo reports whether the workflow allows moving from s to target.
// The full transition table lives in core/lifecycle; this is the entity-level
// check the engine validates against.
func (s ReleaseStatus) CanTransitionTo(target ReleaseStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusPending
	case StatusPending:
		return target == StatusPublished || target == StatusRejected || target == StatusNeedsInfo
	case StatusNeedsInfo:
		return target == StatusPending || target == StatusPublished || target == StatusRejected
	case StatusPublished:
		return target == StatusTakedown
	default:
		// Rejected and Takedown are terminal
		return false
	}
}

// IsTerminal reports whether no further staff action is modeled for s.
func (s ReleaseStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusTakedown
}

// Release is a distributable musical work owned by one label.
type Release struct {
	ID                string        `json:"id"`
	LabelID           string        `json:"labelId"`
	PrimaryArtistIDs  []string      `json:"primaryArtistIds"`  // ordered, first is lead
	FeaturedArtistIDs []string      `json:"featuredArtistIds"`
	Status            ReleaseStatus `json:"status"`

	UPC             string `json:"upc"` // assigned at publish time
	CatalogueNumber string `json:"catalogueNumber"`

	Title            string `json:"title"`
	Genre            string `json:"genre"`
	SubGenre         string `json:"subGenre"`
	Mood             string `json:"mood"`
	Language         string `json:"language"`
	PLine            string `json:"pLine"`
	CLine            string `json:"cLine"`
	Publisher        string `json:"publisher"`
	Explicit         bool   `json:"explicit"`
	ReleaseType      string `json:"releaseType"`
	ReleaseDate      string `json:"releaseDate"`
	YouTubeContentID bool   `json:"youtubeContentId"`

	// Film sync metadata, optional
	FilmName            string `json:"filmName,omitempty"`
	FilmDirector        string `json:"filmDirector,omitempty"`
	FilmProducer        string `json:"filmProducer,omitempty"`
	FilmBanner          string `json:"filmBanner,omitempty"`
	FilmCast            string `json:"filmCast,omitempty"`
	OriginalReleaseDate string `json:"originalReleaseDate,omitempty"`

	ArtworkURL string `json:"artworkUrl,omitempty"`

	Tracks []Track           `json:"tracks"`
	Notes  []InteractionNote `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Track is one audio work within a release. It has no independent lifecycle.
type Track struct {
	TrackNumber       int      `json:"trackNumber"`
	DiscNumber        int      `json:"discNumber"`
	Title             string   `json:"title"`
	VersionTitle      string   `json:"versionTitle,omitempty"`
	Duration          int      `json:"duration"` // seconds
	ISRC              string   `json:"isrc"`
	DolbyISRC         string   `json:"dolbyIsrc,omitempty"`
	Composer          string   `json:"composer"`
	Lyricist          string   `json:"lyricist"`
	Explicit          bool     `json:"explicit"`
	ContentType       string   `json:"contentType"`
	CrbtCutName       string   `json:"crbtCutName,omitempty"`
	CrbtTime          string   `json:"crbtTime,omitempty"`
	PrimaryArtistIDs  []string `json:"primaryArtistIds"`
	FeaturedArtistIDs []string `json:"featuredArtistIds"`
	AudioURL          string   `json:"audioUrl,omitempty"`
	AudioFileName     string   `json:"audioFileName,omitempty"`
}

// InteractionNote is one immutable entry in a release's audit trail.
type InteractionNote struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"authorName"`
	AuthorRole string    `json:"authorRole"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// SortedNotes returns the audit trail newest first. Readers rely on this
// rather than on storage order, which is an implementation detail.
func (r *Release) SortedNotes() []InteractionNote {
	notes := make([]InteractionNote, len(r.Notes))
	copy(notes, r.Notes)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Timestamp.After(notes[j].Timestamp)
	})
	return notes
}

// ValidateTracks checks track-level rules, currently that track numbers are
// unique within the release.
func (r *Release) ValidateTracks() error {
	seen := make(map[int]bool, len(r.Tracks))
	for _, t := range r.Tracks {
		if seen[t.TrackNumber] {
			return NewValidationError("trackNumber", "duplicate track number in release")
		}
		seen[t.TrackNumber] = true
	}
	return nil
}
