package receipt

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_Format(t *testing.T) {
	at := time.Date(2024, 5, 1, 4, 30, 0, 0, time.UTC) // 10:00 IST
	got := Next(DepositPrefix, at)
	assert.True(t, strings.HasPrefix(got, "SD-20240501100000-"), got)

	parts := strings.Split(got, "-")
	require.Len(t, parts, 4)
	assert.Len(t, parts[2], 6)
	assert.Len(t, parts[3], 8)
	assert.LessOrEqual(t, len(got), 40)
}

func TestNext_UniqueUnderConcurrency(t *testing.T) {
	at := time.Now()
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := Next(RepaymentPrefix, at)
			mu.Lock()
			seen[r] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 200)
}

func TestIssuer_DistinctAcrossInstances(t *testing.T) {
	at := time.Date(2024, 5, 1, 4, 30, 0, 0, time.UTC)
	a, b := NewIssuer(), NewIssuer()

	// both start their sequence at 1 within the same second
	ra, rb := a.Next(DepositPrefix, at), b.Next(DepositPrefix, at)
	assert.True(t, strings.HasPrefix(ra, "SD-20240501100000-000001-"), ra)
	assert.True(t, strings.HasPrefix(rb, "SD-20240501100000-000001-"), rb)
	assert.NotEqual(t, ra, rb)
}
