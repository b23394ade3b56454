// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net"
	"net/http"
	"sync"
)

// ipLimiter caps the number of in-flight requests per client address
type ipLimiter struct {
	inFlight map[string]int
	max      int
	mu       sync.Mutex
}

func newIPLimiter(limit int) *ipLimiter {
	return &ipLimiter{
		inFlight: make(map[string]int),
		max:      limit,
	}
}

// ipKeyFromRemoteAddr extracts a rate-limit key from a request remote
// address. For IPv4 addresses the key is the bare IP string. For IPv6
// addresses the key is the /64 prefix so that a client rotating within a
// single /64 subnet is still limited as one source. Addresses that do not
// parse return an empty string and are exempt.
func ipKeyFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return ""
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	// IPv4 or IPv4-mapped IPv6: use the full address as the key
	if ip4 := ip.To4(); ip4 != nil {
		return ip4.String()
	}
	mask := net.CIDRMask(64, 128)
	return ip.Mask(mask).String() + "/64"
}

// acquire reserves a request slot for the key. It returns false once the
// key has reached the limit.
func (l *ipLimiter) acquire(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight[key] >= l.max {
		return false
	}
	l.inFlight[key]++
	return true
}

func (l *ipLimiter) release(key string) {
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight[key]--
	if l.inFlight[key] <= 0 {
		delete(l.inFlight, key)
	}
}

func (l *ipLimiter) count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[key]
}

// withIPLimit rejects requests with 429 while the client already has the
// maximum number of requests in flight
func (a *API) withIPLimit(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ipKeyFromRemoteAddr(r.RemoteAddr)
		if !a.limiter.acquire(key) {
			a.logger.Warn(
				"too many concurrent requests",
				"client", key,
				"request_id", requestID(r.Context()),
			)
			writeError(
				w,
				r,
				http.StatusTooManyRequests,
				"too many concurrent requests from this address",
			)
			return
		}
		defer a.limiter.release(key)
		next.ServeHTTP(w, r)
	})
}
