// Package theme lists the Minimalist UI themes: the option values offered in
// the options form, the theme files shipped in the bundle and the theme
// files installed in the configuration directory.
package theme
