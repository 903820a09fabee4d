package provider

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	stubProvider
	mu    sync.Mutex
	calls int
}

func (c *countingProvider) Resolve(_ context.Context, g Group, _ Identity) (*Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return &Result{Provider: c.name, Fields: map[string]string{g.KeyField(): "v"}}, nil
}

func TestQuota_Take(t *testing.T) {
	q := NewQuota(map[string]int{"apollo": 2, "hunter": 0})

	assert.True(t, q.Take("apollo"))
	assert.True(t, q.Take("apollo"))
	assert.False(t, q.Take("apollo"))
	assert.Equal(t, 2, q.Used("apollo"))

	rem, limited := q.Remaining("apollo")
	assert.True(t, limited)
	assert.Equal(t, 0, rem)

	for range 10 {
		assert.True(t, q.Take("hunter"))
	}
	_, limited = q.Remaining("hunter")
	assert.False(t, limited)
	assert.True(t, q.Take("clearbit"))
}

func TestQuota_Concurrent(t *testing.T) {
	q := NewQuota(map[string]int{"apollo": 50})
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q.Take("apollo") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, granted)
}

func TestWithQuota(t *testing.T) {
	inner := &countingProvider{stubProvider: stubProvider{name: "apollo"}}
	p := WithQuota(inner, NewQuota(map[string]int{"apollo": 1}))
	assert.Equal(t, "apollo", p.Name())

	res, err := p.Resolve(context.Background(), GroupEmail, Identity{})
	require.NoError(t, err)
	assert.True(t, res.Usable(GroupEmail))

	_, err = p.Resolve(context.Background(), GroupEmail, Identity{})
	assert.Equal(t, KindRateLimited, Classify(err))
	assert.Equal(t, 1, inner.calls)

	assert.Same(t, Provider(inner), WithQuota(inner, nil))
}
