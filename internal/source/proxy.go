package source

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ProxyRotator hands out outbound proxies round-robin.
type ProxyRotator struct {
	proxies []*url.URL
	mu      sync.Mutex
	index   int
}

func NewProxyRotator(rawProxies []string) (*ProxyRotator, error) {
	r := &ProxyRotator{}
	for _, raw := range rawProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", raw)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

func (r *ProxyRotator) Len() int { return len(r.proxies) }

// Next returns the next proxy, or nil when none are configured.
func (r *ProxyRotator) Next() *url.URL {
	if len(r.proxies) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proxies[r.index]
	r.index = (r.index + 1) % len(r.proxies)
	return p
}

// Proxy is usable as http.Transport.Proxy. Without configured proxies it
// defers to the environment.
func (r *ProxyRotator) Proxy(req *http.Request) (*url.URL, error) {
	if p := r.Next(); p != nil {
		return p, nil
	}
	return http.ProxyFromEnvironment(req)
}
