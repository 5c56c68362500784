package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

const (
	finvizBaseURL    = "https://finviz.com/quote.ashx"
	finvizTableClass = "snapshot-table2"
	finvizSharesCell = "Shs Outstand"
)

// FinvizProvider reads shares outstanding from the finviz.com quote page.
// No API key is needed.
type FinvizProvider struct {
	baseURL   string
	fetch     *fetcher
	rateLimit int
}

// NewFinvizProvider creates a finviz scraper limited to rateLimitPerMin
// page loads per minute
func NewFinvizProvider(rateLimitPerMin int, opts HTTPOptions) *FinvizProvider {
	return &FinvizProvider{
		baseURL:   finvizBaseURL,
		fetch:     newFetcher("finviz", rateLimitPerMin, opts),
		rateLimit: rateLimitPerMin,
	}
}

// WithBaseURL points the provider at another host (used by tests)
func (p *FinvizProvider) WithBaseURL(base string) *FinvizProvider {
	p.baseURL = base
	return p
}

// Name returns the provider name
func (p *FinvizProvider) Name() string {
	return "finviz"
}

// IsAvailable always returns true (no API key needed)
func (p *FinvizProvider) IsAvailable() bool {
	return true
}

// RateLimit returns the rate limit per minute
func (p *FinvizProvider) RateLimit() int {
	return p.rateLimit
}

// SharesOutstanding loads the quote page and reads the snapshot table
func (p *FinvizProvider) SharesOutstanding(ctx context.Context, symbol string) (float64, error) {
	symbol = normalize(symbol)
	body, err := p.fetch.get(ctx, symbol, p.baseURL+"?t="+url.QueryEscape(symbol))
	if err != nil {
		return 0, err
	}

	raw, err := findSnapshotValue(body, finvizSharesCell)
	if err != nil {
		return 0, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}

	shares, err := ParseShareCount(raw)
	if err != nil {
		return 0, &ProviderError{Provider: p.Name(), Symbol: symbol, Err: err}
	}
	return shares, nil
}

// findSnapshotValue returns the text of the cell that follows the cell
// labelled label inside the snapshot table
func findSnapshotValue(page []byte, label string) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	table := findElement(doc, func(n *html.Node) bool {
		return n.Data == "table" && hasClass(n, finvizTableClass)
	})
	if table == nil {
		return "", fmt.Errorf("snapshot table not found")
	}

	var cells []string
	walk(table, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" {
			cells = append(cells, strings.TrimSpace(textContent(n)))
		}
	})

	for i, c := range cells {
		if c == label && i+1 < len(cells) {
			return cells[i+1], nil
		}
	}
	return "", fmt.Errorf("%q not found in snapshot table", label)
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

var shareSuffixes = map[byte]int32{
	'K': 3,
	'M': 6,
	'B': 9,
	'T': 12,
}

// ParseShareCount converts finviz-style abbreviated counts such as
// "15.12B" or "850.5M" to a number of shares. Plain numbers are accepted.
func ParseShareCount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" || s == "-" {
		return 0, fmt.Errorf("shares outstanding not reported")
	}

	exp := int32(0)
	if e, ok := shareSuffixes[strings.ToUpper(s[len(s)-1:])[0]]; ok {
		exp = e
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("shares outstanding %q: %w", raw, err)
	}
	d = d.Shift(exp)
	if !d.IsPositive() {
		return 0, fmt.Errorf("shares outstanding %q is not positive", raw)
	}

	shares, _ := d.Float64()
	return shares, nil
}
