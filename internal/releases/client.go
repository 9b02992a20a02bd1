// Package releases checks the wrapped products' upstream GitHub releases,
// so version drift against the running instances is visible from one
// place.
package releases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"
)

// repos maps each product to its upstream repository. The media server is
// closed source and has no entry.
var repos = map[string]struct{ Owner, Repo string }{
	"sonarr":    {"Sonarr", "Sonarr"},
	"radarr":    {"Radarr", "Radarr"},
	"prowlarr":  {"Prowlarr", "Prowlarr"},
	"bazarr":    {"morpheus65535", "bazarr"},
	"overseerr": {"sct", "overseerr"},
}

// Release is one product's newest published release.
type Release struct {
	Product   string    `json:"product"`
	Tag       string    `json:"tag"`
	Name      string    `json:"name,omitempty"`
	Published time.Time `json:"published,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// Check pairs one product with its lookup outcome.
type Check struct {
	Product string   `json:"product"`
	Release *Release `json:"release,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type Client struct {
	client *github.Client
}

// NewClient builds a GitHub client. Unauthenticated access works for
// release lookups; a token raises the rate limit.
func NewClient(token string) *Client {
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(context.Background(), ts)
		return &Client{client: github.NewClient(tc)}
	}
	return &Client{client: github.NewClient(nil)}
}

// Products lists the products that have an upstream repository, sorted.
func Products() []string {
	out := make([]string, 0, len(repos))
	for p := range repos {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Latest returns the newest published release for one product.
func (c *Client) Latest(ctx context.Context, product string) (*Release, error) {
	repo, ok := repos[product]
	if !ok {
		return nil, fmt.Errorf("no upstream repository for %s", product)
	}
	rel, _, err := c.client.Repositories.GetLatestRelease(ctx, repo.Owner, repo.Repo)
	if err != nil {
		return nil, fmt.Errorf("latest release for %s/%s: %w", repo.Owner, repo.Repo, err)
	}
	out := &Release{
		Product: product,
		Tag:     rel.GetTagName(),
		Name:    rel.GetName(),
		URL:     rel.GetHTMLURL(),
	}
	if ts := rel.GetPublishedAt(); !ts.IsZero() {
		out.Published = ts.Time
	}
	return out, nil
}

// LatestAll checks every known product in parallel. A failed lookup is
// reported on its product instead of failing the sweep.
func (c *Client) LatestAll(ctx context.Context) []Check {
	products := Products()
	out := make([]Check, len(products))
	var wg sync.WaitGroup
	for i, product := range products {
		out[i] = Check{Product: product}
		wg.Add(1)
		go func(i int, product string) {
			defer wg.Done()
			rel, err := c.Latest(ctx, product)
			if err != nil {
				out[i].Error = err.Error()
				return
			}
			out[i].Release = rel
		}(i, product)
	}
	wg.Wait()
	return out
}
