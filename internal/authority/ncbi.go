package authority

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// DefaultNCBIBaseURL is the NCBI web site hosting the Taxonomy Browser.
const DefaultNCBIBaseURL = "https://www.ncbi.nlm.nih.gov"

// NCBI resolves taxonomy ids to scientific names by reading the title of the
// Taxonomy Browser page, which has the form "Taxonomy browser (Homo sapiens)".
type NCBI struct {
	baseURL string
	client  *http.Client
}

// NewNCBI creates a taxonomy resolver. An empty baseURL uses the NCBI site.
func NewNCBI(baseURL string, client *http.Client) *NCBI {
	if baseURL == "" {
		baseURL = DefaultNCBIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &NCBI{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (n *NCBI) Name() string { return "ncbi-taxonomy" }

// Resolve fetches the Taxonomy Browser page of id.
func (n *NCBI) Resolve(ctx context.Context, id string) (string, error) {
	endpoint := n.baseURL + "/Taxonomy/Browser/wwwtax.cgi?" + url.Values{"id": {strings.TrimSpace(id)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("taxonomy request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: tax_id %s: %v", ErrUnresolved, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: tax_id %s: status %s", ErrUnresolved, id, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("%w: tax_id %s: parse page: %v", ErrUnresolved, id, err)
	}

	name, ok := titleName(pageTitle(doc))
	if !ok {
		return "", fmt.Errorf("%w: tax_id %s: no name in page title", ErrUnresolved, id)
	}
	return name, nil
}

// pageTitle returns the text of the first <title> element.
func pageTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(sb.String())
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := pageTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// titleName extracts the text between the first "(" and the last ")".
func titleName(title string) (string, bool) {
	open := strings.Index(title, "(")
	end := strings.LastIndex(title, ")")
	if open < 0 || end <= open+1 {
		return "", false
	}
	return strings.TrimSpace(title[open+1 : end]), true
}
