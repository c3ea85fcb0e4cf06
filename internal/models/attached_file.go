package models

import "time"

// AttachedFile is a raw document uploaded into a chat session. The session
// owns the bytes for its lifetime; the record is immutable once appended.
type AttachedFile struct {
	FileID     string    `json:"file_id"`
	Name       string    `json:"name"`
	MediaType  string    `json:"type"`
	Content    []byte    `json:"content"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Info returns the metadata view of the file, never the content.
func (f AttachedFile) Info() FileInfo {
	return FileInfo{
		FileID:     f.FileID,
		Name:       f.Name,
		MediaType:  f.MediaType,
		Size:       len(f.Content),
		UploadedAt: f.UploadedAt,
	}
}
