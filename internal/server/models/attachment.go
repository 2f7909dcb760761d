package models

import "time"

// Attachment describes a document uploaded alongside an application. The
// bytes live in object storage under StorageKey.
type Attachment struct {
	ID            int64
	ApplicationID int64
	StorageKey    string
	Filename      string
	ContentType   string
	DateCreated   time.Time
}
