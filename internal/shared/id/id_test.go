package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Equal(t, -1, id1.Compare(id2), "monotonic entropy keeps IDs ordered")
}

func TestTypedIDs(t *testing.T) {
	win := NewWindowID()
	tab := NewTabID()

	assert.True(t, strings.HasPrefix(win.String(), "win_"), win)
	assert.True(t, strings.HasPrefix(tab.String(), "tab_"), tab)
	assert.True(t, HasPrefix(win.String(), WindowPrefix))
	assert.True(t, HasPrefix(tab.String(), TabPrefix))
	assert.False(t, HasPrefix(tab.String(), WindowPrefix))
	assert.False(t, HasPrefix("win_not-a-ulid", WindowPrefix))
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	win := NewWindowID()

	ts, err := Timestamp(win.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("tab_garbage")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := gen.GenerateWithPrefix(TabPrefix)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
