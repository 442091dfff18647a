package sanitizer

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/pagesnap/pagesnap/internal/model"
)

// allowedTags is the fixed set of elements kept during sanitization.
// Elements outside this set are flattened into their text content rather
// than deleted, so no visible text is lost.
var allowedTags = map[string]bool{
	"a": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "br": true, "caption": true, "code": true, "div": true,
	"em": true, "figcaption": true, "figure": true, "footer": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "header": true,
	"hr": true, "img": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "table": true,
	"tbody": true, "td": true, "th": true, "thead": true, "tr": true,
	"ul": true,
}

// allowedAttrs is the fixed set of attributes kept on allowed elements.
var allowedAttrs = map[string]bool{
	"href": true, "src": true, "alt": true, "title": true,
	"scope": true, "colspan": true, "rowspan": true,
}

// blockedTags are removed outright, including their text content.
var blockedTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "noscript": true,
	"form": true, "input": true, "button": true,
}

// piiPattern pairs a detection regex with its replacement mask.
// Patterns are applied in order and counted independently.
type piiPattern struct {
	typ  model.RedactionType
	re   *regexp.Regexp
	mask string
}

var piiPatterns = []piiPattern{
	{
		typ:  model.RedactionEmail,
		re:   regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		mask: "***@***.***",
	},
	{
		typ:  model.RedactionCreditCard,
		re:   regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`),
		mask: "**** **** **** ****",
	},
}

// Result is the sanitizer output: cleaned HTML plus per-pattern redaction
// counts. Redactions only lists patterns that matched at least once.
type Result struct {
	HTML       string
	Redactions []model.Redaction
}

// Sanitize cleans an untrusted HTML fragment and masks PII in its text.
// An empty input yields an empty result. The input is parsed into a
// detached tree; the caller's data is never modified.
func Sanitize(rawHTML string) (Result, error) {
	if rawHTML == "" {
		return Result{HTML: "", Redactions: []model.Redaction{}}, nil
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse html: %w", err)
	}

	body := findBody(doc)
	if body == nil {
		return Result{HTML: "", Redactions: []model.Redaction{}}, nil
	}

	removeBlockedNodes(body)
	pruneDisallowedElements(body)
	counts := redactText(body)

	redactions := make([]model.Redaction, 0, len(piiPatterns))
	for _, p := range piiPatterns {
		if counts[p.typ] > 0 {
			redactions = append(redactions, model.Redaction{Type: p.typ, Count: counts[p.typ]})
		}
	}

	return Result{
		HTML:       strings.TrimSpace(innerHTML(body)),
		Redactions: redactions,
	}, nil
}

// findBody locates the body element in a parsed document.
func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// removeBlockedNodes deletes blocked elements and their subtrees.
func removeBlockedNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && blockedTags[c.Data] {
			n.RemoveChild(c)
		} else {
			removeBlockedNodes(c)
		}
		c = next
	}
}

// pruneDisallowedElements flattens non-allowlisted elements into text and
// strips disallowed or unsafe attributes from the rest.
func pruneDisallowedElements(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			if !allowedTags[c.Data] {
				replacement := &html.Node{Type: html.TextNode, Data: textContent(c)}
				n.InsertBefore(replacement, c)
				n.RemoveChild(c)
			} else {
				stripAttributes(c)
				pruneDisallowedElements(c)
			}
		}
		c = next
	}
}

// stripAttributes keeps only allowlisted attributes, dropping href/src
// values whose scheme is unsafe.
func stripAttributes(n *html.Node) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		name := strings.ToLower(attr.Key)
		if !allowedAttrs[name] {
			continue
		}
		if (name == "href" || name == "src") && !isSafeURL(attr.Val) {
			continue
		}
		kept = append(kept, attr)
	}
	n.Attr = kept
}

// isSafeURL reports whether an href/src value may be kept. Empty values and
// javascript:/data: schemes are rejected, case-insensitively after trimming.
func isSafeURL(value string) bool {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return false
	}
	if strings.HasPrefix(normalized, "javascript:") || strings.HasPrefix(normalized, "data:") {
		return false
	}
	return true
}

// redactText masks PII patterns in every text node under n and returns the
// match count per pattern type.
func redactText(n *html.Node) map[model.RedactionType]int {
	counts := make(map[model.RedactionType]int, len(piiPatterns))

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			updated := node.Data
			for _, p := range piiPatterns {
				matches := p.re.FindAllStringIndex(updated, -1)
				if len(matches) == 0 {
					continue
				}
				counts[p.typ] += len(matches)
				updated = p.re.ReplaceAllString(updated, p.mask)
			}
			if updated != node.Data {
				node.Data = updated
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return counts
}

// textContent returns the concatenated text of a node's subtree.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// innerHTML renders the children of n back to an HTML string.
func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			// Render only fails on writer errors, which strings.Builder
			// never returns.
			continue
		}
	}
	return sb.String()
}
