// Package frontmatter separates the metadata block at the top of a source
// document from its markup body and parses the block into key/value pairs.
//
// The block is delimited by two identical marker lines (default "---"):
//
//	---
//	title: Demo
//	version: 0.1.1
//	---
//	# Body starts here
package frontmatter

import (
	"bytes"
	"errors"
)

// DefaultDelimiter is the marker line used when none is configured.
const DefaultDelimiter = "---"

// Style captures the newline shape of a document.
type Style struct {
	Newline string
}

// ErrMissingClosingDelimiter indicates the document started with a frontmatter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Split separates the delimited frontmatter block from the body.
//
// If the document does not start with the delimiter line, had is false and body
// is the full input. The returned frontmatter excludes both delimiter lines and
// keeps the terminator of its last line.
func Split(content []byte, delim string) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	if delim == "" {
		delim = DefaultDelimiter
	}
	style = detectStyle(content)

	nl := style.Newline
	open := []byte(delim + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	frontmatterStart := len(open)
	rest := content[frontmatterStart:]
	closeLine := []byte(delim + nl)
	if bytes.HasPrefix(rest, closeLine) {
		return []byte{}, rest[len(closeLine):], true, style, nil
	}
	if bytes.Equal(rest, []byte(delim)) {
		return []byte{}, []byte{}, true, style, nil
	}

	closeSeq := []byte(nl + delim + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		frontmatterEnd := frontmatterStart + idx + len(nl)
		bodyStart := frontmatterStart + idx + len(closeSeq)
		return content[frontmatterStart:frontmatterEnd], content[bodyStart:], true, style, nil
	}

	// Closing delimiter as the very last line without a terminator.
	closeAtEOF := []byte(nl + delim)
	if bytes.HasSuffix(rest, closeAtEOF) {
		frontmatterEnd := len(content) - len(delim)
		return content[frontmatterStart:frontmatterEnd], []byte{}, true, style, nil
	}

	return nil, nil, false, style, ErrMissingClosingDelimiter
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	return Style{Newline: newline}
}
