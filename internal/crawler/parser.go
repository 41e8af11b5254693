package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// HTML element name constants for form field detection.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"
)

// Parser extracts information from HTML content.
// It identifies links, forms, scripts, and other interesting elements.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving relative URLs.
	baseURL *url.URL
}

// ParseResult contains all information extracted from an HTML page.
//
// Design decision: We return a comprehensive result struct rather than
// multiple methods because:
//  1. Single parsing pass is more efficient
//  2. Related data can be collected together
//  3. Caller can choose what to use
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Links contains all discovered URLs (href attributes), resolved.
	Links []string

	// InternalLinks are links on the same host as the page.
	InternalLinks []string

	// ExternalLinks are links to other hosts.
	ExternalLinks []string

	// Forms contains information about HTML forms.
	Forms []model.Form

	// Scripts contains script sources.
	Scripts []string

	// Styles contains stylesheet URLs.
	Styles []string

	// Images contains image sources.
	Images []string

	// Comments contains HTML comments (may contain sensitive info).
	Comments []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative links.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts all relevant information.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
		Forms:         make([]model.Form, 0),
		Scripts:       make([]string, 0),
		Styles:        make([]string, 0),
		Images:        make([]string, 0),
		Comments:      make([]string, 0),
	}

	// Walk the DOM tree
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			p.processElement(n, result)
		case html.CommentNode:
			result.Comments = append(result.Comments, n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "title":
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a":
		if href := getAttr(n, "href"); href != "" {
			resolved := p.resolveURL(href)
			if resolved != "" {
				result.Links = append(result.Links, resolved)
				p.classifyLink(resolved, result)
			}
		}

	case "form":
		form := model.Form{
			Action: p.resolveURL(getAttr(n, "action")),
			Method: strings.ToUpper(getAttr(n, "method")),
			Inputs: make([]model.FormInput, 0),
		}
		if form.Method == "" {
			form.Method = "GET"
		}
		if form.Action == "" {
			// A form without an action submits to the current page.
			form.Action = p.baseURL.String()
		}
		p.extractFormInputs(n, &form)
		result.Forms = append(result.Forms, form)

	case "script":
		if src := getAttr(n, "src"); src != "" {
			result.Scripts = append(result.Scripts, p.resolveURL(src))
		}

	case "img":
		if src := getAttr(n, "src"); src != "" {
			result.Images = append(result.Images, p.resolveURL(src))
		}

	case "link":
		if href := getAttr(n, "href"); href != "" {
			rel := getAttr(n, "rel")
			if rel == "stylesheet" {
				result.Styles = append(result.Styles, p.resolveURL(href))
			}
		}
	}
}

// extractFormInputs recursively extracts input fields from a form element.
func (p *Parser) extractFormInputs(n *html.Node, form *model.Form) {
	if n.Type == html.ElementNode && (n.Data == htmlElementInput || n.Data == htmlElementSelect || n.Data == htmlElementTextarea) {
		input := model.FormInput{
			Name:  getAttr(n, "name"),
			Type:  getAttr(n, "type"),
			Value: getAttr(n, "value"),
		}
		if input.Type == "" {
			switch n.Data {
			case htmlElementTextarea:
				input.Type = htmlElementTextarea
			case htmlElementSelect:
				input.Type = htmlElementSelect
			default:
				input.Type = "text"
			}
		}
		if input.Name != "" {
			form.Inputs = append(form.Inputs, input)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.extractFormInputs(c, form)
	}
}

// resolveURL resolves a relative URL against the base URL.
//
// Design decision: We resolve URLs rather than storing them as-is because:
//  1. Makes deduplication easier
//  2. Allows proper link classification
//  3. Reduces ambiguity in results
func (p *Parser) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	return resolved.String()
}

// classifyLink categorizes a link as internal or external.
func (p *Parser) classifyLink(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}

	if strings.EqualFold(u.Host, p.baseURL.Host) {
		result.InternalLinks = append(result.InternalLinks, link)
		return
	}

	result.ExternalLinks = append(result.ExternalLinks, link)
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
