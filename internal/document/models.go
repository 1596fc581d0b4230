package document

import "time"

// Origin tells which provider produced a Record.
type Origin string

const (
	OriginDirectory Origin = "directory"
	OriginMedia     Origin = "media"
)

// Record is a single PDF as shown in the gallery. Records are built per
// request from the directory listing and the media library and are never
// persisted.
type Record struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail"`
	Timestamp    int64  `json:"timestamp"`
	PageCount    int    `json:"pageCount,omitempty"`
	Origin       Origin `json:"origin"`

	// Description is only set for media-library records and is matched by
	// the tag filter.
	Description string `json:"description,omitempty"`

	SourcePath string    `json:"-"`
	ModTime    time.Time `json:"-"`
}

// Attachment is a media-library entry as stored by the host CMS.
type Attachment struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	File        string    `json:"file" bson:"file"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Date        string    `json:"date" bson:"date"`
	MimeType    string    `json:"mimeType" bson:"mimeType"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
