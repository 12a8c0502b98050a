package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssets(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "one", MIME: "image/png", Data: []byte("png-bytes")},
		{Filename: "two.jpg", MIME: "image/jpeg", Data: []byte("jpg-bytes")},
		{Filename: "empty", MIME: "image/png", Data: nil},
	})

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	if zr.File[0].Name != "one.png" {
		t.Errorf("entry name = %q, want extension from mime", zr.File[0].Name)
	}
	if zr.File[1].Name != "two.jpg" {
		t.Errorf("entry name = %q, want filename kept", zr.File[1].Name)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("entry data = %q", data)
	}
}

func TestArchiveAssetsEmptyInput(t *testing.T) {
	archive := ArchiveAssets(nil)
	if _, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive))); err != nil {
		t.Fatalf("empty archive unreadable: %v", err)
	}
}
