package formats

import "testing"

func TestTable_Classify(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		path string
		kind Kind
		ok   bool
	}{
		{"/a/IMG_001.jpg", KindPhoto, true},
		{"/a/IMG_001.JPEG", KindPhoto, true},
		{"/a/shot.heic", KindPhoto, true},
		{"/a/shot.png", KindPhoto, true},
		{"/a/clip.MP4", KindVideo, true},
		{"/a/clip.mkv", KindVideo, true},
		{"/a/clip.mov", KindVideo, true},
		{"/a/IMG_001.jpg.json", "", false},
		{"/a/notes", "", false},
	}

	for _, tt := range tests {
		kind, ok := table.Classify(tt.path)
		if kind != tt.kind || ok != tt.ok {
			t.Errorf("Classify(%q) = %q, %v; want %q, %v", tt.path, kind, ok, tt.kind, tt.ok)
		}
	}
}

func TestNewTable_NormalizesExtensions(t *testing.T) {
	table, err := NewTable([]string{"JPG", " .Png ", ""}, []string{"mp4"})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	if kind, ok := table.Classify("x.png"); !ok || kind != KindPhoto {
		t.Errorf("png not classified as photo: %q %v", kind, ok)
	}
	if kind, ok := table.Classify("x.mp4"); !ok || kind != KindVideo {
		t.Errorf("mp4 not classified as video: %q %v", kind, ok)
	}
	if got := len(table.Extensions()); got != 3 {
		t.Errorf("got %d extensions, want 3", got)
	}
}

func TestNewTable_RejectsOverlap(t *testing.T) {
	if _, err := NewTable([]string{".mov"}, []string{".mov"}); err == nil {
		t.Fatal("expected error for extension in both sets")
	}
}

func TestGetHandler(t *testing.T) {
	photo, err := GetHandler(KindPhoto)
	if err != nil {
		t.Fatalf("GetHandler(photo): %v", err)
	}
	video, err := GetHandler(KindVideo)
	if err != nil {
		t.Fatalf("GetHandler(video): %v", err)
	}

	if len(video.DateTags()) <= len(photo.DateTags()) {
		t.Errorf("video should write more date tags than photo")
	}
	if _, err := GetHandler("audio"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
