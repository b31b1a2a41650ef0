// Package assets provides the bundled dashboard, theme, translation and card
// template files that are installed into the host configuration directory.
package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed bundle
var embedded embed.FS

// Paths inside a bundle.
const (
	DashboardDir    = "dashboard"
	DashboardFile   = "dashboard/ui.yaml"
	CustomActions   = "dashboard/custom_actions.yaml"
	TranslationsDir = "dashboard/translations"
	DefaultLanguage = "dashboard/translations/default.yaml"
	TemplatesDir    = "dashboard/mui_templates"
	ThemeFilesDir   = "dashboard/themefiles"
	translationsExt = ".yaml"
)

// Embedded returns the bundle compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "bundle")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}

// Open returns the bundle rooted at dir, or the embedded bundle when dir is empty.
// The directory must contain the dashboard tree.
func Open(dir string) (fs.FS, error) {
	if dir == "" {
		return Embedded(), nil
	}
	info, err := os.Stat(filepath.Join(dir, DashboardDir))
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("bundle %s: %s is not a directory", dir, DashboardDir)
	}
	return os.DirFS(dir), nil
}

// TranslationPath returns the bundle path of the translation file for a language code.
func TranslationPath(code string) string {
	return path.Join(TranslationsDir, code+translationsExt)
}

// ListTranslations returns the language codes bundled in bundle,
// excluding the default fallback file.
func ListTranslations(bundle fs.FS) []string {
	entries, err := fs.ReadDir(bundle, TranslationsDir)
	if err != nil {
		return nil
	}

	var codes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if path.Ext(name) != translationsExt {
			continue
		}
		code := strings.TrimSuffix(name, translationsExt)
		if code == "default" {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

// ReadFile reads a single file from the bundle.
func ReadFile(bundle fs.FS, name string) ([]byte, error) {
	return fs.ReadFile(bundle, name)
}
