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
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPKeyFromRemoteAddr(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected string
	}{
		{name: "empty", addr: "", expected: ""},
		{name: "no port", addr: "192.168.1.10", expected: ""},
		{name: "IPv4", addr: "192.168.1.10:3000", expected: "192.168.1.10"},
		{name: "IPv4 loopback", addr: "127.0.0.1:12345", expected: "127.0.0.1"},
		{
			name:     "IPv6 grouped by /64",
			addr:     "[2001:db8:85a3::8a2e:370:7334]:3000",
			expected: "2001:db8:85a3::/64",
		},
		{
			name:     "IPv6 same /64 prefix",
			addr:     "[2001:db8:85a3::1]:3001",
			expected: "2001:db8:85a3::/64",
		},
		{
			name:     "IPv4-mapped IPv6",
			addr:     "[::ffff:10.0.0.1]:80",
			expected: "10.0.0.1",
		},
		{name: "hostname", addr: "example.com:80", expected: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ipKeyFromRemoteAddr(tc.addr))
		})
	}
}

func TestIPLimiterAcquireRelease(t *testing.T) {
	l := newIPLimiter(2)
	require.True(t, l.acquire("10.0.0.1"))
	require.True(t, l.acquire("10.0.0.1"))
	assert.False(t, l.acquire("10.0.0.1"))
	// Other addresses have their own budget
	assert.True(t, l.acquire("10.0.0.2"))
	// Exempt key is never limited
	for range 5 {
		assert.True(t, l.acquire(""))
	}
	l.release("10.0.0.1")
	assert.Equal(t, 1, l.count("10.0.0.1"))
	assert.True(t, l.acquire("10.0.0.1"))
	l.release("10.0.0.1")
	l.release("10.0.0.1")
	assert.Equal(t, 0, l.count("10.0.0.1"))
	assert.NotContains(t, l.inFlight, "10.0.0.1")
}

func TestWithIPLimit(t *testing.T) {
	a := New(APIConfig{MaxRequestsPerIP: 1}, nil, nil)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	handler := a.withIPLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-unblock
		w.WriteHeader(http.StatusNoContent)
	}))

	var wg sync.WaitGroup
	first := httptest.NewRecorder()
	wg.Add(1)
	go func() {
		defer wg.Done()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.1.1:5000"
		handler.ServeHTTP(first, req)
	}()
	<-entered

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:5001"
	rejected := httptest.NewRecorder()
	handler.ServeHTTP(rejected, req)
	assert.Equal(t, http.StatusTooManyRequests, rejected.Code)

	close(unblock)
	wg.Wait()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, 0, a.limiter.count("10.1.1.1"))
}

func TestWithIPLimitDisabled(t *testing.T) {
	a := New(APIConfig{}, nil, nil)
	assert.Nil(t, a.limiter)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	assert.NotNil(t, a.withIPLimit(next))
}
