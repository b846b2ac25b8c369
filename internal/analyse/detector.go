// BYZRA ⸻ internal/analyse/detector.go
// file type detection by content

package analyse

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"photofix/internal/formats"
)

type FileType struct {
	Kind      formats.Kind // photo or video
	Extension string       // "jpg", "mp4", etc
	MimeType  string       // "image/jpeg", etc
}

// detects by magic number first, then falls back to the extension
func DetectFile(path string) (FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	ft, err := detectByMagicNumbers(path)
	if err != nil {
		return FileType{}, err
	}
	if ft.Kind != "" {
		return ft, nil
	}

	ft = detectByExtension(ext)
	if ft.Kind != "" {
		return ft, nil
	}

	return FileType{}, fmt.Errorf("unknown file type for %s", path)
}

// true when the file starts with a JPEG SOI marker, whatever its name says
func IsJPEGContent(path string) (bool, error) {
	header, err := readHeader(path, 3)
	if err != nil {
		return false, err
	}
	return bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}), nil
}

func readHeader(path string, n int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buffer := make([]byte, n)
	read, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buffer[:read], nil
}

// examines file headers to determine type
func detectByMagicNumbers(path string) (FileType, error) {
	buffer, err := readHeader(path, 12)
	if err != nil {
		return FileType{}, err
	}

	// JPEG: FF D8 FF
	if bytes.HasPrefix(buffer, []byte{0xFF, 0xD8, 0xFF}) {
		return FileType{Kind: formats.KindPhoto, Extension: "jpg", MimeType: "image/jpeg"}, nil
	}

	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if bytes.HasPrefix(buffer, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return FileType{Kind: formats.KindPhoto, Extension: "png", MimeType: "image/png"}, nil
	}

	// Matroska: EBML header 1A 45 DF A3
	if bytes.HasPrefix(buffer, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return FileType{Kind: formats.KindVideo, Extension: "mkv", MimeType: "video/x-matroska"}, nil
	}

	// AVI: RIFF....AVI
	if len(buffer) >= 12 && bytes.HasPrefix(buffer, []byte("RIFF")) && bytes.Equal(buffer[8:12], []byte("AVI ")) {
		return FileType{Kind: formats.KindVideo, Extension: "avi", MimeType: "video/x-msvideo"}, nil
	}

	// ISO base media: "ftyp" at offset 4, brand decides
	if len(buffer) >= 12 && bytes.Equal(buffer[4:8], []byte("ftyp")) {
		switch string(buffer[8:12]) {
		case "heic", "heix", "heim", "heis", "mif1", "msf1":
			return FileType{Kind: formats.KindPhoto, Extension: "heic", MimeType: "image/heic"}, nil
		case "qt  ":
			return FileType{Kind: formats.KindVideo, Extension: "mov", MimeType: "video/quicktime"}, nil
		default:
			return FileType{Kind: formats.KindVideo, Extension: "mp4", MimeType: "video/mp4"}, nil
		}
	}

	return FileType{}, nil
}

// maps file extensions to types (fallback method)
func detectByExtension(ext string) FileType {
	switch ext {
	case "jpg", "jpeg":
		return FileType{Kind: formats.KindPhoto, Extension: ext, MimeType: "image/jpeg"}
	case "png":
		return FileType{Kind: formats.KindPhoto, Extension: ext, MimeType: "image/png"}
	case "heic":
		return FileType{Kind: formats.KindPhoto, Extension: ext, MimeType: "image/heic"}
	case "mp4":
		return FileType{Kind: formats.KindVideo, Extension: ext, MimeType: "video/mp4"}
	case "mov":
		return FileType{Kind: formats.KindVideo, Extension: ext, MimeType: "video/quicktime"}
	case "avi":
		return FileType{Kind: formats.KindVideo, Extension: ext, MimeType: "video/x-msvideo"}
	case "mkv":
		return FileType{Kind: formats.KindVideo, Extension: ext, MimeType: "video/x-matroska"}
	}

	return FileType{} // unknown
}
