package upload

// StoredFile is an attachment moved into permanent storage.
type StoredFile struct {
	OriginalName string
	Path         string // absolute disk path, used for mail attachments
	URL          string // public HTTP URL
	MimeType     string
	Size         int64
}
