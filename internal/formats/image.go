// BYZRA ⸻ internal/formats/image.go
// photo tag handler

package formats

// implements FormatHandler for photos
type ImageHandler struct{}

func (h *ImageHandler) DateTags() []string {
	return []string{
		"DateTimeOriginal",
		"CreateDate",
		"ModifyDate",
		"FileModifyDate",
	}
}

func (h *ImageHandler) SupportsGPS() bool {
	return true
}
