package models

import "strings"

// Creator identifies which subsystem originated a media record
type Creator int

const (
	CreatorAPI Creator = iota
	CreatorBoard
)

func (c Creator) String() string {
	switch c {
	case CreatorAPI:
		return "api"
	case CreatorBoard:
		return "board"
	default:
		return "unknown"
	}
}

// MediaType is the coarse classification of a media item
type MediaType int

const (
	MediaTypeMovie MediaType = iota
	MediaTypeSeries
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeMovie:
		return "movie"
	case MediaTypeSeries:
		return "series"
	default:
		return "unknown"
	}
}

// SourceProtocol is how the downstream workers fetch the media
type SourceProtocol int

const (
	SourceHTTP SourceProtocol = iota
	SourceMagnet
	SourceFile
)

func (p SourceProtocol) String() string {
	switch p {
	case SourceHTTP:
		return "http"
	case SourceMagnet:
		return "magnet"
	case SourceFile:
		return "file"
	default:
		return "unknown"
	}
}

// MetadataProvider is an external catalog supplying the canonical id of a title
type MetadataProvider int

const (
	MetadataMAL MetadataProvider = iota
	MetadataIMDB
	MetadataAniList
)

func (p MetadataProvider) String() string {
	switch p {
	case MetadataMAL:
		return "mal"
	case MetadataIMDB:
		return "imdb"
	case MetadataAniList:
		return "anilist"
	default:
		return "unknown"
	}
}

// Status represents the current pipeline stage of a media record.
// The numeric values are part of the broker wire format.
type Status int

const (
	StatusQueued Status = iota
	StatusDownloading
	StatusConverting
	StatusUploading
	StatusDeployed
	StatusErrored
)

// AllStatuses lists every status in pipeline order
var AllStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusConverting,
	StatusUploading,
	StatusDeployed,
	StatusErrored,
}

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusDownloading:
		return "downloading"
	case StatusConverting:
		return "converting"
	case StatusUploading:
		return "uploading"
	case StatusDeployed:
		return "deployed"
	case StatusErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the declared statuses
func (s Status) Valid() bool {
	return s >= StatusQueued && s <= StatusErrored
}

// ParseStatus resolves a status by its name, case-insensitively
func ParseStatus(name string) (Status, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range AllStatuses {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
