package config

import "strings"

// TitleFallback selects where a page title comes from when the document's
// metadata does not set one.
type TitleFallback string

const (
	TitleFallbackNone     TitleFallback = "none"     // title stays empty
	TitleFallbackHeading  TitleFallback = "heading"  // text of the first heading in the rendered content
	TitleFallbackFilename TitleFallback = "filename" // document name, title cased
)

// NormalizeTitleFallback canonicalizes user input returning empty string if unknown.
func NormalizeTitleFallback(raw string) TitleFallback {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(TitleFallbackNone):
		return TitleFallbackNone
	case string(TitleFallbackHeading):
		return TitleFallbackHeading
	case string(TitleFallbackFilename):
		return TitleFallbackFilename
	default:
		return ""
	}
}
