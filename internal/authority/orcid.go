package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultORCIDBaseURL is the public ORCID API.
const DefaultORCIDBaseURL = "https://pub.orcid.org"

// orcidPrefixes are stripped so identifiers written as URIs resolve too.
var orcidPrefixes = []string{"https://orcid.org/", "http://orcid.org/"}

// ORCID resolves ORCID iDs to "given-names family-name" through the public
// API v3.0.
type ORCID struct {
	baseURL string
	client  *http.Client
}

// NewORCID creates an ORCID resolver. An empty baseURL uses the public API.
func NewORCID(baseURL string, client *http.Client) *ORCID {
	if baseURL == "" {
		baseURL = DefaultORCIDBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ORCID{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (o *ORCID) Name() string { return "orcid" }

type orcidValue struct {
	Value string `json:"value"`
}

type orcidPerson struct {
	Person struct {
		Name *struct {
			GivenNames *orcidValue `json:"given-names"`
			FamilyName *orcidValue `json:"family-name"`
		} `json:"name"`
	} `json:"person"`
}

// Key strips the URI prefix, so an iD and its URI share a cache entry.
func (o *ORCID) Key(id string) string {
	bare := strings.TrimSpace(id)
	for _, p := range orcidPrefixes {
		bare = strings.TrimPrefix(bare, p)
	}
	return bare
}

// Resolve fetches the person record of id.
func (o *ORCID) Resolve(ctx context.Context, id string) (string, error) {
	bare := o.Key(id)

	endpoint := o.baseURL + "/v3.0/" + url.PathEscape(bare)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("orcid request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: orcid %s: %v", ErrUnresolved, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: orcid %s: status %s", ErrUnresolved, id, resp.Status)
	}

	var record orcidPerson
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&record); err != nil {
		return "", fmt.Errorf("%w: orcid %s: decode: %v", ErrUnresolved, id, err)
	}

	name := record.Person.Name
	if name == nil || name.GivenNames == nil {
		return "", fmt.Errorf("%w: orcid %s: record has no public name", ErrUnresolved, id)
	}
	full := name.GivenNames.Value
	if name.FamilyName != nil && name.FamilyName.Value != "" {
		full += " " + name.FamilyName.Value
	}
	return full, nil
}
