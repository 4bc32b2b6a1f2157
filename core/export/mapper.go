// Package export builds the distribution-partner metadata package: the
// fixed-column row matrix and its CSV encoding.
package export

import (
	"fmt"
	"strings"

	"digitalsight/model"
)

// ExportHeaders is the fixed column list downstream partner ingestion
// expects. Order and wording are part of the contract; several columns are
// reserved and always empty until a data source exists for them.
var ExportHeaders = []string{
	"CRBT CUT NAME",
	"SONG NAME",
	"FILM/ALBUM NAME",
	"LANGUAGE",
	"Album Type",
	"Content Type",
	"Genre",
	"Sub-Genre",
	"Mood",
	"Description",
	"UPC ID",
	"ISRC",
	"LABEL",
	"IPRS Ownership (Yes/No) (Label)",
	"IPI (Label)",
	"Publisher",
	"Album Level Main Artist/singer",
	"Track Level main artist/singer",
	"Track Level Featuring artist/singer",
	"Track Level Remixer Name",
	"COMPOSER",
	"IPRS member (Yes/No) (COMPOSER)",
	"IPI (COMPOSER)",
	"LYRICIST",
	"IPI (LYRICIST)",
	"IPRS member (Yes/No) (LYRICIST)",
	"Dolby ISRC",
	"Track No.",
	"Track Duration",
	"Time for CRBT Cut",
	"Original release date of Movie",
	"Original release date of Music",
	"Go Live Date",
	"Time of Music Release",
	"DATE OF EXPIRY",
	"C-Line",
	"P-Line",
	"Film Banner",
	"Film Director",
	"Film Producer",
	"Film Star Cast / Actors",
	"Parental Advisory (Explicit etc)",
	"IS INSTRUMENTAL",
	"Spotify Artist Profile / ID for the track Main Artist",
	"Spotify Artist Profile / ID for the track Featured Artist",
	"Apple Artist ID for Track Main Artist",
	"Apple Artist ID for Featured Artist",
	"Apple Artist ID for Remixer",
	"Apple Artist ID for Composer",
	"Apple Artist ID for Lyricist",
	"Apple Artist ID for Film Producer",
	"Apple Artist ID for Film Director",
	"Apple Artist ID for Starcast",
	"Facebook page link for Track Main Artist",
	"Instagram Artist handle for Track Main Artist",
	"Instagram Artist handle for Featured Artist",
}

// Canonical profile URL prefixes used when a stored value is a bare ID.
const (
	spotifyArtistURL = "https://open.spotify.com/artist/"
	appleArtistURL   = "https://music.apple.com/artist/"
	instagramURL     = "https://instagram.com/"
)

// MapReleaseToRows translates a release and its referenced artists and
// labels into one export row per track. Pure and deterministic: a nil
// release, or one without tracks, contributes zero rows.
func MapReleaseToRows(release *model.Release, artistsByID map[string]*model.Artist, labelsByID map[string]*model.Label) [][]interface{} {
	if release == nil {
		return [][]interface{}{}
	}

	labelName := ""
	if label, ok := labelsByID[release.LabelID]; ok && label != nil {
		labelName = label.Name
	}
	albumArtists := joinArtistNames(release.PrimaryArtistIDs, artistsByID)

	rows := make([][]interface{}, 0, len(release.Tracks))
	for _, track := range release.Tracks {
		rows = append(rows, mapTrackRow(release, track, labelName, albumArtists, artistsByID))
	}
	return rows
}

func mapTrackRow(release *model.Release, track model.Track, labelName, albumArtists string, artistsByID map[string]*model.Artist) []interface{} {
	movieReleaseDate := ""
	if release.FilmName != "" {
		movieReleaseDate = release.OriginalReleaseDate
	}

	return []interface{}{
		track.CrbtCutName,
		trackDisplayTitle(track),
		albumName(release),
		release.Language,
		release.ReleaseType,
		track.ContentType,
		release.Genre,
		release.SubGenre,
		release.Mood,
		"", // Description: no source yet
		release.UPC,
		track.ISRC,
		labelName,
		"", // IPRS ownership (label): reserved
		"", // IPI (label): reserved
		release.Publisher,
		albumArtists,
		joinArtistNames(track.PrimaryArtistIDs, artistsByID),
		joinArtistNames(track.FeaturedArtistIDs, artistsByID),
		"", // remixer name: reserved
		track.Composer,
		"", // IPRS member (composer): reserved
		"", // IPI (composer): reserved
		track.Lyricist,
		"", // IPI (lyricist): reserved
		"", // IPRS member (lyricist): reserved
		track.DolbyISRC,
		track.TrackNumber,
		formatDuration(track.Duration),
		track.CrbtTime,
		movieReleaseDate,
		release.OriginalReleaseDate,
		release.ReleaseDate,
		"", // time of music release: reserved
		"", // date of expiry: reserved
		release.CLine,
		release.PLine,
		release.FilmBanner,
		release.FilmDirector,
		release.FilmProducer,
		release.FilmCast,
		parentalAdvisory(track.Explicit),
		isInstrumental(track.ContentType),
		joinProfiles(track.PrimaryArtistIDs, artistsByID, spotifyProfile),
		joinProfiles(track.FeaturedArtistIDs, artistsByID, spotifyProfile),
		joinProfiles(track.PrimaryArtistIDs, artistsByID, appleProfile),
		joinProfiles(track.FeaturedArtistIDs, artistsByID, appleProfile),
		"", // apple id, remixer: reserved
		"", // apple id, composer: reserved
		"", // apple id, lyricist: reserved
		"", // apple id, film producer: reserved
		"", // apple id, film director: reserved
		"", // apple id, starcast: reserved
		"", // facebook link: reserved
		joinProfiles(track.PrimaryArtistIDs, artistsByID, instagramProfile),
		joinProfiles(track.FeaturedArtistIDs, artistsByID, instagramProfile),
	}
}

func albumName(release *model.Release) string {
	if release.FilmName != "" {
		return release.FilmName
	}
	return release.Title
}

func trackDisplayTitle(track model.Track) string {
	if track.VersionTitle != "" {
		return fmt.Sprintf("%s (%s)", track.Title, track.VersionTitle)
	}
	return track.Title
}

// formatDuration renders integer seconds as M:SS, minutes unpadded.
func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func parentalAdvisory(explicit bool) string {
	if explicit {
		return "Explicit"
	}
	return "Clean"
}

func isInstrumental(contentType string) string {
	if strings.EqualFold(contentType, "instrumental") {
		return "Yes"
	}
	return "No"
}

// joinArtistNames resolves artist IDs to names. Unresolved IDs are filtered
// out silently; a missing artist is not an export-time error.
func joinArtistNames(ids []string, artistsByID map[string]*model.Artist) string {
	var names []string
	for _, id := range ids {
		if artist, ok := artistsByID[id]; ok && artist != nil && artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	return strings.Join(names, ", ")
}

// joinProfiles resolves artist IDs to external profile links, dropping
// artists without one.
func joinProfiles(ids []string, artistsByID map[string]*model.Artist, profile func(*model.Artist) string) string {
	var links []string
	for _, id := range ids {
		artist, ok := artistsByID[id]
		if !ok || artist == nil {
			continue
		}
		if link := profile(artist); link != "" {
			links = append(links, link)
		}
	}
	return strings.Join(links, ", ")
}

// normalizeProfile passes full URLs through and prefixes bare IDs with the
// platform's canonical URL.
func normalizeProfile(value, prefix string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http") {
		return value
	}
	return prefix + value
}

func spotifyProfile(a *model.Artist) string {
	return normalizeProfile(a.SpotifyID, spotifyArtistURL)
}

func appleProfile(a *model.Artist) string {
	return normalizeProfile(a.AppleMusicID, appleArtistURL)
}

func instagramProfile(a *model.Artist) string {
	return normalizeProfile(a.InstagramURL, instagramURL)
}
