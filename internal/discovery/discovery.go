// Package discovery reads the portal's filing navigation and turns each
// listed filing category into a descriptor skeleton for the harvester.
package discovery

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// navSelector matches the category links of a listing page's side menu.
const navSelector = "ul#leftNav li a[data-name][href]"

// Link is one navigation entry.
type Link struct {
	Name string
	Href string
}

// PageFetcher returns the HTML of a portal page.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string) ([]byte, error)
}

// ParseNav extracts navigation links in page order. A name listed twice keeps
// its first href. ErrNoNav is returned when the page has no side menu, which
// usually means the page needs script rendering.
func ParseNav(page []byte) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "discovery: parse html")
	}
	if doc.Find("ul#leftNav").Length() == 0 {
		return nil, ErrNoNav
	}

	var links []Link
	seen := make(map[string]bool)
	doc.Find(navSelector).Each(func(_ int, s *goquery.Selection) {
		name := strings.TrimSpace(s.AttrOr("data-name", ""))
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if name == "" || href == "" || seen[name] {
			return
		}
		seen[name] = true
		links = append(links, Link{Name: name, Href: href})
	})
	return links, nil
}

// ErrNoNav reports a page without the navigation menu.
var ErrNoNav = eris.New("discovery: page has no leftNav menu")

// Skeleton renders links as a descriptor document: one entry per link with
// its href as the endpoint and an empty params mapping, in link order.
func Skeleton(links []Link) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, l := range links {
		entry := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "endpoint"},
			{Kind: yaml.ScalarNode, Value: l.Href},
			{Kind: yaml.ScalarNode, Value: "params"},
			{Kind: yaml.MappingNode, Style: yaml.FlowStyle},
		}}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: l.Name}, entry)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, eris.Wrap(err, "discovery: encode skeleton")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "discovery: encode skeleton")
	}
	return buf.Bytes(), nil
}

// Discover fetches page through f and returns its descriptor skeleton.
func Discover(ctx context.Context, f PageFetcher, page string) ([]byte, error) {
	body, err := f.FetchPage(ctx, page)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: fetch %s", page)
	}
	links, err := ParseNav(body)
	if err != nil {
		return nil, err
	}
	zap.L().Info("discovered filing categories", zap.String("page", page), zap.Int("links", len(links)))
	return Skeleton(links)
}
