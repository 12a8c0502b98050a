package zip

import (
	"archive/zip"
	"bytes"
	"strings"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs the assets into a zip archive held in memory. Entries
// without payload are skipped. Filenames gain an extension derived from the
// MIME type when they have none.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		w, err := zw.Create(entryName(asset))
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

func entryName(asset Asset) string {
	name := asset.Filename
	if strings.Contains(name, ".") {
		return name
	}
	switch asset.MIME {
	case "image/png":
		return name + ".png"
	case "image/jpeg":
		return name + ".jpg"
	case "image/gif":
		return name + ".gif"
	case "video/mp4":
		return name + ".mp4"
	default:
		return name
	}
}
