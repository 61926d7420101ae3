package models

import "time"

// MediaRecord is the canonical record of one acquisition across its lifecycle
type MediaRecord struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name       string  `gorm:"column:media_name;not null" json:"name"`
	Creator    Creator `gorm:"not null" json:"creator"`
	CreatorRef *string `gorm:"column:creator_id" json:"creatorId,omitempty"` // card id when Creator is CreatorBoard

	MediaType      MediaType      `gorm:"column:type;not null" json:"type"`
	SourceProtocol SourceProtocol `gorm:"column:source;not null" json:"source"`
	SourceLocator  string         `gorm:"column:source_uri;not null" json:"sourceURI"`

	// (MetadataProvider, MetadataID) is unique across all records
	MetadataProvider MetadataProvider `gorm:"column:metadata;not null;uniqueIndex:idx_media_identity" json:"metadata"`
	MetadataID       string           `gorm:"column:metadata_id;not null;uniqueIndex:idx_media_identity" json:"metadataId"`

	Status Status `gorm:"not null;index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the table name shared with the postgres repository
func (MediaRecord) TableName() string {
	return "media"
}

// CardID returns the originating card id of a board-created record
func (m *MediaRecord) CardID() (string, bool) {
	if m.Creator != CreatorBoard || m.CreatorRef == nil || *m.CreatorRef == "" {
		return "", false
	}
	return *m.CreatorRef, true
}
