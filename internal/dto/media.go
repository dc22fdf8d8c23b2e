package dto

import "io"

// VideoUpload carries one uploaded file. Content is nil when the request had no file.
type VideoUpload struct {
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}

// UploadVideoResponse acknowledges a stored video.
type UploadVideoResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}
