package page

import (
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebake/internal/config"
)

// fallbackTitle derives a title for a page whose metadata has none.
func fallbackTitle(mode config.TitleFallback, docPath, content string) string {
	switch mode {
	case config.TitleFallbackHeading:
		return firstHeading(content)
	case config.TitleFallbackFilename:
		return titleFromName(docPath)
	default:
		return ""
	}
}

// firstHeading returns the text of the first h1 to h6 element in fragment.
func firstHeading(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if h := findHeading(n); h != nil {
			return strings.TrimSpace(textContent(h))
		}
	}
	return ""
}

func findHeading(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := findHeading(c); h != nil {
			return h
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

var nameReplacer = strings.NewReplacer("-", " ", "_", " ")

// titleFromName turns "getting-started" into "Getting Started".
func titleFromName(docPath string) string {
	name := filepath.Base(docPath)
	words := strings.Fields(nameReplacer.Replace(name))
	return cases.Title(language.English).String(strings.Join(words, " "))
}
