package theme

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/minimalistui/internal/assets"
)

// HostSelected leaves the theme choice to the host's own theme selector.
const HostSelected = "HA selected theme"

// Option values accepted for the theme setting.
const (
	MinimalistMobile       = "minimalist-mobile"
	MinimalistDesktop      = "minimalist-desktop"
	MinimalistMobileTapbar = "minimalist-mobile-tapbar"
)

const fileExt = ".yaml"

// Options returns the theme values accepted by the options form, in display order.
func Options() []string {
	return []string{MinimalistMobile, MinimalistDesktop, MinimalistMobileTapbar, HostSelected}
}

// Valid reports whether name is one of Options.
func Valid(name string) bool {
	return slices.Contains(Options(), name)
}

// Theme is a theme file.
type Theme struct {
	Name    string    // file name without extension
	Path    string    // bundle path, or absolute path when installed
	Size    int64
	ModTime time.Time // zero for bundled themes
}

// Bundled lists the theme files in bundle, sorted by name.
func Bundled(bundle fs.FS) ([]Theme, error) {
	entries, err := fs.ReadDir(bundle, assets.ThemeFilesDir)
	if err != nil {
		return nil, err
	}

	var themes []Theme
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != fileExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		themes = append(themes, Theme{
			Name: strings.TrimSuffix(entry.Name(), fileExt),
			Path: path.Join(assets.ThemeFilesDir, entry.Name()),
			Size: info.Size(),
		})
	}
	sortByName(themes)
	return themes, nil
}

// Installed lists the theme files in dir, sorted by name. A missing dir
// yields no themes.
func Installed(dir string) ([]Theme, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var themes []Theme
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		themes = append(themes, Theme{
			Name:    strings.TrimSuffix(entry.Name(), fileExt),
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sortByName(themes)
	return themes, nil
}

func sortByName(themes []Theme) {
	slices.SortFunc(themes, func(a, b Theme) int {
		return strings.Compare(a.Name, b.Name)
	})
}
