package assets

import "sort"

// Languages maps the language names offered to users to translation file codes.
var Languages = map[string]string{
	"English (GB)": "en",
}

// LanguageCode returns the translation code for a language name.
func LanguageCode(name string) (string, bool) {
	code, ok := Languages[name]
	return code, ok
}

// LanguageNames returns the supported language names, sorted.
func LanguageNames() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
