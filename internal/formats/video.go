// BYZRA ⸻ internal/formats/video.go
// video tag handler

package formats

// implements FormatHandler for videos
type VideoHandler struct{}

// quicktime containers keep the media and track dates apart
func (h *VideoHandler) DateTags() []string {
	return []string{
		"DateTimeOriginal",
		"MediaCreateDate",
		"TrackCreateDate",
		"CreateDate",
		"ModifyDate",
		"FileModifyDate",
	}
}

func (h *VideoHandler) SupportsGPS() bool {
	return true
}
