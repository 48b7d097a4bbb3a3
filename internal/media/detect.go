package media

import "strings"

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".m4a":  true,
	".m4b":  true,
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsSupportedExt returns true if the extension is a supported playable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsImageExt returns true if the extension is a supported overlay image format.
func IsImageExt(ext string) bool {
	return imageExts[strings.ToLower(ext)]
}

// SupportedExtsList returns a human-readable list of supported audio formats.
func SupportedExtsList() string {
	return ".mp3, .wav, .flac, .ogg, .aac, .m4a, .m4b"
}
