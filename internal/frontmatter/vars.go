package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/vars"
)

// StripVars splits raw into its metadata block and body.
//
// Missing front matter is a legitimate document state: the block is empty and
// the body is the whole input. An opening delimiter without a closing one is
// treated the same way, and the returned error is a recoverable ParseError the
// caller should log rather than abort on.
func StripVars(raw, delim string) (block string, body string, err error) {
	fm, b, had, _, splitErr := Split([]byte(raw), delim)
	if splitErr != nil {
		return "", raw, ferrors.WrapError(splitErr, ferrors.CategoryParse, "front matter not closed, treating document as body").
			Warning().
			Build()
	}
	if !had {
		return "", raw, nil
	}
	return string(fm), string(b), nil
}

// ParseVars parses a metadata block into an ordered mapping.
//
// Each line is split at the first colon. The key is everything before it,
// verbatim; the value is the remainder of the line, leading whitespace
// included, with only the line terminator removed. Blank lines are skipped.
// A line without a colon is stored with an empty value and reported in the
// returned ParseError; the mapping is complete either way.
func ParseVars(block string) (*vars.Map, error) {
	result := vars.New()
	if block == "" {
		return result, nil
	}

	var malformed []error
	for i, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		key, val, found := strings.Cut(line, ":")
		if !found {
			malformed = append(malformed, fmt.Errorf("line %d: missing ':' in %q", i+1, line))
		}
		result.Set(key, val)
	}

	if len(malformed) > 0 {
		return result, ferrors.WrapError(errors.Join(malformed...), ferrors.CategoryParse, "malformed front matter line").
			Warning().
			WithContext("lines", len(malformed)).
			Build()
	}
	return result, nil
}

// Document is a source document split into its parts.
type Document struct {
	// Block is the raw metadata block without delimiter lines.
	Block string
	// Body is the markup that follows the block.
	Body string
	// Vars holds the parsed metadata.
	Vars *vars.Map
}

// Parse runs StripVars followed by ParseVars. The returned error, if any, is a
// recoverable ParseError; doc is always usable.
func Parse(raw, delim string) (*Document, error) {
	block, body, stripErr := StripVars(raw, delim)
	metadata, parseErr := ParseVars(block)
	return &Document{Block: block, Body: body, Vars: metadata}, errors.Join(stripErr, parseErr)
}
