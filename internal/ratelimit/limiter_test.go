package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllow_BurstThenRefill(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Rules: map[string]Rule{ActionBookingCreate: {PerMinute: 2, Burst: 3}},
		Clock: clock,
	})
	defer limiter.Close()

	ip := "203.0.113.9"
	for i := 0; i < 3; i++ {
		if result := limiter.Allow(ActionBookingCreate, ip); !result.Allowed {
			t.Fatalf("request %d within burst should be allowed: %s", i+1, result.Reason)
		}
	}

	result := limiter.Allow(ActionBookingCreate, ip)
	if result.Allowed {
		t.Fatal("request past burst should be blocked")
	}
	if result.Reason != "rate_exceeded" {
		t.Errorf("Expected reason 'rate_exceeded', got '%s'", result.Reason)
	}
	if result.RetryAfter <= 0 || result.RetryAfter > 30*time.Second {
		t.Errorf("RetryAfter = %v, want (0, 30s]", result.RetryAfter)
	}

	// A denied request must not consume the next token.
	clock.Advance(30 * time.Second)
	if result := limiter.Allow(ActionBookingCreate, ip); !result.Allowed {
		t.Fatalf("request after refill should be allowed: %s", result.Reason)
	}
}

func TestAllow_ClientsAndActionsAreIndependent(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Rules: map[string]Rule{
			ActionBookingCreate: {PerMinute: 1, Burst: 1},
			ActionBookingCancel: {PerMinute: 1, Burst: 1},
		},
		Clock: clock,
	})
	defer limiter.Close()

	if !limiter.Allow(ActionBookingCreate, "1.1.1.1").Allowed {
		t.Fatal("first create should be allowed")
	}
	if limiter.Allow(ActionBookingCreate, "1.1.1.1").Allowed {
		t.Fatal("second create from same client should be blocked")
	}
	if !limiter.Allow(ActionBookingCreate, "2.2.2.2").Allowed {
		t.Fatal("other client should have its own bucket")
	}
	if !limiter.Allow(ActionBookingCancel, "1.1.1.1").Allowed {
		t.Fatal("other action should have its own bucket")
	}
}

func TestAllow_UnknownActionIsUnlimited(t *testing.T) {
	limiter := New(&Config{Rules: map[string]Rule{}})
	defer limiter.Close()

	for i := 0; i < 100; i++ {
		if !limiter.Allow("anything", "1.1.1.1").Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestCleanup_DropsIdleBuckets(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		Rules:   map[string]Rule{ActionLogin: {PerMinute: 5, Burst: 5}},
		IdleTTL: 10 * time.Minute,
		Clock:   clock,
	})
	defer limiter.Close()

	limiter.Allow(ActionLogin, "1.1.1.1")
	clock.Advance(5 * time.Minute)
	limiter.Allow(ActionLogin, "2.2.2.2")
	clock.Advance(6 * time.Minute)

	limiter.cleanup()
	if got := limiter.size(); got != 1 {
		t.Fatalf("expected 1 bucket after cleanup, got %d", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	for _, action := range []string{ActionBookingCreate, ActionBookingCancel, ActionLogin} {
		rule, ok := cfg.Rules[action]
		if !ok || rule.PerMinute <= 0 || rule.Burst <= 0 {
			t.Errorf("missing or empty default rule for %s: %+v", action, rule)
		}
	}
	if cfg.IdleTTL != time.Hour {
		t.Errorf("IdleTTL = %v, want 1h", cfg.IdleTTL)
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)

	// Trigger cleanup goroutine
	limiter.Allow(ActionLogin, "1.2.3.4")

	// Close should not hang
	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	limiter := New(&Config{
		Rules: map[string]Rule{ActionBookingCreate: {PerMinute: 1000, Burst: 1000}},
		Clock: newMockClock(),
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 40; j++ {
				if limiter.Allow(ActionBookingCreate, "192.168.1.1").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if allowed != 1000 {
		t.Fatalf("expected exactly the burst of 1000 to pass, got %d", allowed)
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50", // Rightmost non-private
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1", // Last one when all private
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100", // Uses RemoteAddr, ignores spoofed XFF
		},
		{
			name:       "TrustProxy=false, ignores X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetClientIP_SpoofingPrevention(t *testing.T) {
	// Attacker sends fake X-Forwarded-For header
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4") // Attacker-supplied
	r.RemoteAddr = "192.168.1.100:54321"       // Real connection

	// With TrustProxy=false, the fake header is ignored
	got := GetClientIP(r, false)
	if got != "192.168.1.100" {
		t.Errorf("Should ignore X-Forwarded-For when TrustProxy=false, got %q", got)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"JOHN.DOE@EXAMPLE.COM", "jo***@example.com"}, // Normalized to lowercase
		{"ab@example.com", "***@example.com"},
		{"a@example.com", "***@example.com"},
		{"+15551234567", "***4567"},
		{"5551234567", "***4567"},
		{"123", "***"},
		{"", "***"},
		{"  User@Example.Com  ", "us***@example.com"}, // Trimmed and lowercased
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeIdentifier(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"192.168.255.255", true},
		{"127.0.0.1", true},
		// IPv6 private/reserved
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true}, // Link-local
		// IPv4-mapped IPv6 addresses (must match their IPv4 equivalents)
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:172.16.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:8.8.8.8", false},   // Public IP in IPv4-mapped format
		{"::ffff:1.1.1.1", false},   // Public IP in IPv4-mapped format
		// Public IPs
		{"203.0.113.50", false},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2001:4860:4860::8888", false}, // Google DNS IPv6
		// Invalid
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			got := isPrivateIP(tt.ip)
			if got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}
