package llm

import (
	"sync"
	"time"
)

// Metrics accumulates per-agent model usage. Safe for concurrent use.
type Metrics struct {
	mu           sync.Mutex
	totalTokens  int
	totalLatency time.Duration
	apiCalls     int
	errors       int
	cacheHits    int
}

// EstimateTokens approximates token count as one token per four bytes.
func EstimateTokens(s string) int {
	return len(s) / 4
}

func (m *Metrics) recordCall(prompt, response string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiCalls++
	m.totalLatency += latency
	m.totalTokens += EstimateTokens(prompt) + EstimateTokens(response)
}

func (m *Metrics) recordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *Metrics) recordCacheHit() {
	m.mu.Lock()
	m.cacheHits++
	m.mu.Unlock()
}

// Snapshot returns the counters keyed by metric name. Latency is in seconds.
func (m *Metrics) Snapshot() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]float64{
		"total_tokens":  float64(m.totalTokens),
		"total_latency": m.totalLatency.Seconds(),
		"api_calls":     float64(m.apiCalls),
		"errors":        float64(m.errors),
		"cache_hits":    float64(m.cacheHits),
	}
}
