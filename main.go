package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/vizcap/internal/analyzer"
	"github.com/olivier-w/vizcap/internal/media"
	"github.com/olivier-w/vizcap/internal/player"
	"github.com/olivier-w/vizcap/internal/render"
	"github.com/olivier-w/vizcap/internal/ui"
)

func main() {
	res := flag.String("res", "1280x720", "export resolution as WxH")
	fps := flag.Int("fps", 30, "export frame rate")
	mp4 := flag.Bool("mp4", false, "also produce an mp4/h264 copy of the export")
	imagePath := flag.String("image", "", "overlay image (png or jpeg)")
	theme := flag.String("theme", render.DefaultTheme, "color theme: "+strings.Join(render.Themes(), ", "))
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vizcap [flags] <audio file>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: %s is a directory\n", path)
		os.Exit(1)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !media.IsSupportedExt(ext) {
		fmt.Fprintf(os.Stderr, "Error: unsupported format %s (supported: %s)\n", ext, media.SupportedExtsList())
		os.Exit(1)
	}

	width, height, err := parseResolution(*res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *fps < 1 || *fps > 120 {
		fmt.Fprintf(os.Stderr, "Error: fps must be between 1 and 120\n")
		os.Exit(1)
	}

	cfg := render.DefaultConfig()
	cfg.Theme = *theme
	if *imagePath != "" {
		img, err := loadOverlay(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Overlay = img
	}

	meta := player.ReadMetadata(path)

	an := analyzer.New()
	p, err := player.Open(path, an)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	model := ui.New(p, an, meta, path, cfg, ui.ExportOptions{
		Width:  width,
		Height: height,
		FPS:    *fps,
		MP4:    *mp4,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseResolution(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("bad resolution %q, expected WxH", s)
	}
	if w < 16 || h < 16 || w > 7680 || h > 4320 {
		return 0, 0, fmt.Errorf("resolution %dx%d out of range", w, h)
	}
	return w, h, nil
}

func loadOverlay(path string) (image.Image, error) {
	if !media.IsImageExt(filepath.Ext(path)) {
		return nil, fmt.Errorf("unsupported overlay image %s (supported: .png, .jpg, .jpeg)", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
