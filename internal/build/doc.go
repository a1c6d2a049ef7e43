// Package build runs a complete site build: it loads layouts, discovers
// documents, plans outputs, renders and copies into a staging directory, emits
// feeds and finally promotes the staging directory over the output root.
//
// A fatal error in any stage aborts the build before promotion, so the
// previous output stays untouched. Per-document problems are collected into
// the Report and the build continues unless strict mode is enabled.
package build
