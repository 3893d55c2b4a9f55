// Package templates fills page templates whose placeholders are written as
// {name}. Values come from the merged variable map of a page.
package templates

import (
	"io"
	"regexp"
	"strings"

	"github.com/valyala/fasttemplate"

	"git.home.luguber.info/inful/sitebake/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebake/internal/vars"
)

const (
	// DefaultLeftDelim opens a placeholder.
	DefaultLeftDelim = "{"
	// DefaultRightDelim closes a placeholder.
	DefaultRightDelim = "}"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Options controls placeholder substitution.
type Options struct {
	// Strict turns unresolved placeholders into a template error. When false
	// they are left in the output untouched.
	Strict bool
	// Name identifies the template in error context (usually its path).
	Name string
	// LeftDelim and RightDelim default to "{" and "}".
	LeftDelim  string
	RightDelim string
}

func (o Options) delims() (string, string) {
	left, right := o.LeftDelim, o.RightDelim
	if left == "" {
		left = DefaultLeftDelim
	}
	if right == "" {
		right = DefaultRightDelim
	}
	return left, right
}

// IsPlaceholder reports whether tag (the text between the braces) names a
// substitutable variable. Anything else, such as CSS rule bodies or inline
// JavaScript objects, is copied through verbatim.
func IsPlaceholder(tag string) bool {
	return identifierRe.MatchString(tag)
}

// Substitute replaces every {name} in tmpl with the value bound to name in
// values. Only names matching the identifier grammar are considered; other
// brace groups are emitted as written.
func Substitute(tmpl string, values *vars.Map, opts Options) (string, error) {
	left, right := opts.delims()
	if !strings.Contains(tmpl, left) {
		return tmpl, nil
	}

	var missing []string
	out, err := fasttemplate.ExecuteFuncStringWithErr(tmpl, left, right,
		func(w io.Writer, tag string) (int, error) {
			prefix, tag := splitStray(tag, left)
			n, err := io.WriteString(w, prefix)
			if err != nil {
				return n, err
			}
			var m int
			switch v, ok := values.Get(tag); {
			case !IsPlaceholder(tag):
				m, err = io.WriteString(w, left+tag+right)
			case ok:
				m, err = io.WriteString(w, v)
			default:
				missing = append(missing, tag)
				m, err = io.WriteString(w, left+tag+right)
			}
			return n + m, err
		})
	if err != nil {
		return "", errors.TemplateError("malformed template").
			WithCause(err).
			WithContext("template", opts.Name).
			Build()
	}

	if opts.Strict && len(missing) > 0 {
		msg := "unresolved placeholder " + left + missing[0] + right
		if opts.Name != "" {
			msg += " in " + opts.Name
		}
		return "", errors.TemplateError(msg).
			WithContext("template", opts.Name).
			WithContext("key", missing[0]).
			WithContext("unresolved", strings.Join(missing, ",")).
			Build()
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names used by tmpl in order of
// first appearance.
func Placeholders(tmpl string, opts Options) ([]string, error) {
	left, right := opts.delims()
	var names []string
	seen := make(map[string]struct{})
	_, err := fasttemplate.ExecuteFuncStringWithErr(tmpl, left, right,
		func(w io.Writer, tag string) (int, error) {
			_, tag = splitStray(tag, left)
			if !IsPlaceholder(tag) {
				return 0, nil
			}
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				names = append(names, tag)
			}
			return 0, nil
		})
	if err != nil {
		return nil, errors.TemplateError("malformed template").WithCause(err).Build()
	}
	return names, nil
}

// splitStray handles a tag that swallowed an unmatched left delimiter, as in
// "a { b {title}": the tag is then " b {title" and only the text after the
// last left delimiter can be a placeholder. The text before it, including the
// stray delimiter, is returned as a verbatim prefix.
func splitStray(tag, left string) (prefix, inner string) {
	i := strings.LastIndex(tag, left)
	if i < 0 {
		return "", tag
	}
	return left + tag[:i], tag[i+len(left):]
}
