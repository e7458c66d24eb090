package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/pevans/gamingnews/logger"
)

// ErrDisallowed is returned for URLs excluded by the site's robots.txt.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "gamingnews"

const maxRobotsBytes = 512 * 1024

// RobotsPolicy answers whether a URL may be fetched. Each host's robots.txt
// is loaded once it is answered; a non-2xx answer allows everything for the
// host, and a failed load allows the current request only.
type RobotsPolicy struct {
	client *http.Client
	agent  string
	log    logger.Logger

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

// NewRobotsPolicy creates a policy fetching robots.txt with client.
func NewRobotsPolicy(client *http.Client, agent string, log logger.Logger) *RobotsPolicy {
	if agent == "" {
		agent = RobotsAgent
	}
	return &RobotsPolicy{
		client: client,
		agent:  agent,
		log:    logger.OrNop(log),
		hosts:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched.
func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := p.rules(ctx, u)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, p.agent)
}

func (p *RobotsPolicy) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(u.Host)

	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.hosts[host]; ok {
		return data
	}

	// Only a definitive answer is cached; a failed load is retried on the
	// next request for the host.
	data, err := p.load(ctx, u.Scheme, host)
	if err != nil {
		p.log.Warn("Failed to load robots.txt, allowing all", logger.String("host", host), logger.Err(err))
		return nil
	}
	p.hosts[host] = data

	return data
}

func (p *RobotsPolicy) load(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	if scheme == "" {
		scheme = "https"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scheme+"://"+host+"/robots.txt", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.agent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return data, nil
}
