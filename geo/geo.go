// Package geo resolves the client's public IP and a coarse location for
// transcript records. Lookups are best-effort; callers downgrade failures
// to "unknown".
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	ipifyURL = "https://api.ipify.org?format=json"
	ipapiURL = "https://ipapi.co/%s/json/"
)

// Location is a coarse geolocation of an IP address
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country_name"`
}

func (l *Location) String() string {
	if l == nil {
		return "unknown_location"
	}
	return fmt.Sprintf("%s, %s, %s", l.City, l.Region, l.Country)
}

// Locator looks up IP geolocation with an in-process cache. Concurrent
// lookups for the same IP are coalesced into one upstream request.
type Locator struct {
	client *http.Client
	group  singleflight.Group

	// endpoint overrides, for tests
	ipEchoURL string
	ipAPIURL  string

	mu    sync.RWMutex
	cache map[string]*Location
}

// NewLocator creates a locator with a default HTTP timeout
func NewLocator() *Locator {
	return &Locator{
		client:    &http.Client{Timeout: 10 * time.Second},
		ipEchoURL: ipifyURL,
		ipAPIURL:  ipapiURL,
		cache:     make(map[string]*Location),
	}
}

// ClientIP asks an echo service for this host's public IP
func (l *Locator) ClientIP(ctx context.Context) (string, error) {
	body, err := l.get(ctx, l.ipEchoURL)
	if err != nil {
		return "", err
	}
	var out struct {
		IP string `json:"ip"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.IP == "" {
		return "", fmt.Errorf("geo: unexpected ip response")
	}
	return out.IP, nil
}

// Lookup resolves the location of an IP address
func (l *Locator) Lookup(ctx context.Context, ip string) (*Location, error) {
	l.mu.RLock()
	cached, ok := l.cache[ip]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := l.group.Do(ip, func() (any, error) {
		body, err := l.get(ctx, fmt.Sprintf(l.ipAPIURL, ip))
		if err != nil {
			return nil, err
		}
		loc := &Location{}
		if err := json.Unmarshal(body, loc); err != nil {
			return nil, fmt.Errorf("geo: decode location: %w", err)
		}
		l.mu.Lock()
		l.cache[ip] = loc
		l.mu.Unlock()
		return loc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Location), nil
}

func (l *Locator) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: %s: HTTP %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
