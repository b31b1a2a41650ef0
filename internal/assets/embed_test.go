package assets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEmbedded_HasRequiredFiles(t *testing.T) {
	bundle := Embedded()

	for _, name := range []string{DashboardFile, CustomActions, DefaultLanguage} {
		t.Run(name, func(t *testing.T) {
			data, err := ReadFile(bundle, name)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}

	for _, dir := range []string{TemplatesDir, ThemeFilesDir} {
		entries, err := fs.ReadDir(bundle, dir)
		require.NoError(t, err, dir)
		assert.NotEmpty(t, entries, dir)
	}
}

func TestEmbedded_EveryLanguageHasTranslation(t *testing.T) {
	bundle := Embedded()

	for name, code := range Languages {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFile(bundle, TranslationPath(code))
			assert.NoError(t, err)
		})
	}
}

func TestEmbedded_YAMLIsWellFormed(t *testing.T) {
	bundle := Embedded()

	err := fs.WalkDir(bundle, DashboardDir, func(p string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return nil
		}
		data, err := fs.ReadFile(bundle, p)
		require.NoError(t, err)

		var node yaml.Node
		assert.NoError(t, yaml.Unmarshal(data, &node), "%s should be valid YAML", p)
		return nil
	})
	require.NoError(t, err)
}

func TestListTranslations(t *testing.T) {
	codes := ListTranslations(Embedded())

	assert.Contains(t, codes, "en")
	assert.NotContains(t, codes, "default")
}

func TestOpen(t *testing.T) {
	t.Run("empty dir uses embedded", func(t *testing.T) {
		bundle, err := Open("")
		require.NoError(t, err)
		_, err = ReadFile(bundle, DashboardFile)
		assert.NoError(t, err)
	})

	t.Run("directory override", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "dashboard"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard", "ui.yaml"), []byte("title: custom\n"), 0644))

		bundle, err := Open(dir)
		require.NoError(t, err)
		data, err := ReadFile(bundle, DashboardFile)
		require.NoError(t, err)
		assert.Equal(t, "title: custom\n", string(data))
	})

	t.Run("missing dashboard dir", func(t *testing.T) {
		_, err := Open(t.TempDir())
		assert.Error(t, err)
	})
}

func TestLanguageCode(t *testing.T) {
	code, ok := LanguageCode("English (GB)")
	assert.True(t, ok)
	assert.Equal(t, "en", code)

	_, ok = LanguageCode("Klingon")
	assert.False(t, ok)

	assert.Equal(t, []string{"English (GB)"}, LanguageNames())
}
