package furaffinity

import (
	"bytes"
	"strings"

	errs "fascraper/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// Page is an immutable snapshot of one fetched HTML document
type Page struct {
	URL string
	Raw string
	Doc *goquery.Document
}

// NewPage parses body into a Page
func NewPage(pageURL string, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse %s", pageURL)
	}
	return &Page{URL: pageURL, Raw: string(body), Doc: doc}, nil
}

// ParsePage is NewPage for an in-memory string
func ParsePage(pageURL, body string) (*Page, error) {
	return NewPage(pageURL, []byte(body))
}

// Title returns the text of the document's title element
func (p *Page) Title() string {
	return strings.TrimSpace(p.Doc.Find("title").First().Text())
}

// Contains reports whether the raw markup contains s
func (p *Page) Contains(s string) bool {
	return strings.Contains(p.Raw, s)
}

// missing builds the structural error for an absent element
func (p *Page) missing(what string) error {
	return errs.New(errs.ErrorTypeParsing, "%s not found on %s", what, p.URL)
}
