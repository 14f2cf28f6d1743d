// Package identity rotates the network identity (proxy, user agent) used for
// each fetch so consecutive requests do not share a fingerprint.
package identity

import (
	"math/rand"
	"sync"
)

// defaultUserAgents is the stock browser pool used when none is configured.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh Intel Mac OS X 10_10_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2227.1 Safari/537.36",
	"Mozilla/5.0 (compatible MSIE 10.0 Windows NT 6.1 Trident/4.0 InfoPath.2 SV1 .NET CLR 2.0.50727 WOW64)",
	"Mozilla/5.0 (compatible MSIE 9.0 Windows NT 6.1 Win64 x64 Trident/5.0 .NET CLR 3.5.30729 .NET CLR 3.0.30729 .NET CLR 2.0.50727 Media Center PC 6.0)",
	"Mozilla/5.0 (compatible MSIE 8.0 Windows NT 5.2 Trident/4.0 Media Center PC 4.0 SLCC1 .NET CLR 3.0.04320)",
	"Mozilla/4.0 (compatible MSIE 8.0 Windows NT 6.2 Trident/4.0 SLCC2 .NET CLR 2.0.50727 .NET CLR 3.5.30729 .NET CLR 3.0.30729 Media Center PC 6.0)",
	"Mozilla/5.0 (Macintosh Intel Mac OS X 10_10 rv:33.0) Gecko/20100101 Firefox/33.0",
	"Mozilla/5.0 (Windows NT 6.3 rv:36.0) Gecko/20100101 Firefox/36.0",
	"Mozilla/5.0 (Linux U Android 4.0.3 ja-jp LG-L160L Build/IML74K) AppleWebkit/534.30 (KHTML, like Gecko) Version/4.0 Mobile Safari/534.30",
	"Mozilla/5.0 (Linux U Android 4.0.3 ja-jp HTC Sensation Build/IML74K) AppleWebKit/534.30 (KHTML, like Gecko) Version/4.0 Mobile Safari/534.30",
	"Mozilla/5.0 (Linux U Android 2.3.5 ja-jp HTC_IncredibleS_S710e Build/GRJ90) AppleWebKit/533.1 (KHTML, like Gecko)",
	"Mozilla/5.0 (compatible; MSIE 9.0; Windows Phone OS 7.5; Trident/5.0; IEMobile/9.0)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_3) AppleWebKit/537.75.14 (KHTML, like Gecko) Version/7.0.3 Safari/7046A194A",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_6_8) AppleWebKit/537.13+ (KHTML, like Gecko) Version/5.1.7 Safari/534.57.2",
}

// Rotator hands out proxies round-robin and user agents at random. The proxy
// cursor is shared mutable state; the scheduler advances it synchronously at
// dispatch time so proxy order matches dispatch order.
type Rotator struct {
	mu         sync.Mutex
	proxies    []string
	cursor     int
	userAgents []string
	// intn is swapped in tests for deterministic UA picks.
	intn func(n int) int
}

// NewRotator builds a Rotator over the configured proxy list (possibly empty)
// and user-agent pool. An empty pool falls back to the default browser list.
func NewRotator(proxies []string, userAgents []string) *Rotator {
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}
	return &Rotator{
		proxies:    append([]string(nil), proxies...),
		cursor:     -1,
		userAgents: append([]string(nil), userAgents...),
		intn:       rand.Intn,
	}
}

// NextProxy advances the cursor and returns the proxy at its new position,
// cycling 0,1,2,0,... over a three-element list. Returns "" forever when no
// proxies are configured.
func (r *Rotator) NextProxy() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.proxies) == 0 {
		return ""
	}
	r.cursor = (r.cursor + 1) % len(r.proxies)
	return r.proxies[r.cursor]
}

// NextUserAgent returns a uniformly random entry from the pool. Independent
// of proxy rotation; diversity only, not security-sensitive.
func (r *Rotator) NextUserAgent() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userAgents[r.intn(len(r.userAgents))]
}

// Proxies returns a copy of the configured proxy list.
func (r *Rotator) Proxies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.proxies...)
}

// UserAgents returns a copy of the configured pool.
func (r *Rotator) UserAgents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.userAgents...)
}
