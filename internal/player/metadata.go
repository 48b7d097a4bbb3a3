package player

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
)

// Metadata holds track information for display and artifact naming.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ReadMetadata reads tags from the audio file: ID3v2 for MP3, the generic
// tag reader for everything else, falling back to the bare filename.
func ReadMetadata(path string) Metadata {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if m, ok := readID3(path); ok {
			return m
		}
	}
	if m, ok := readGenericTags(path); ok {
		return m
	}

	base := filepath.Base(path)
	return Metadata{Title: strings.TrimSuffix(base, filepath.Ext(base))}
}

func readID3(path string) (Metadata, bool) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}, false
	}
	defer t.Close()

	m := Metadata{
		Title:  strings.TrimSpace(t.Title()),
		Artist: strings.TrimSpace(t.Artist()),
		Album:  strings.TrimSpace(t.Album()),
	}
	return m, m.Title != ""
}

func readGenericTags(path string) (Metadata, bool) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, false
	}
	defer f.Close()

	t, err := tag.ReadFrom(f)
	if err != nil {
		return Metadata{}, false
	}
	m := Metadata{
		Title:  strings.TrimSpace(t.Title()),
		Artist: strings.TrimSpace(t.Artist()),
		Album:  strings.TrimSpace(t.Album()),
	}
	return m, m.Title != ""
}
