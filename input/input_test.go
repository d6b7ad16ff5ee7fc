package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrains(t *testing.T) {
	var q Queue
	assert.Nil(t, q.PollEvents())

	q.Push(KeyPressed{Key: KeyR}, Scrolled{Delta: 1})
	assert.Equal(t, 2, q.Len())

	events := q.PollEvents()
	require.Len(t, events, 2)
	assert.Equal(t, KeyPressed{Key: KeyR}, events[0])
	assert.Equal(t, Scrolled{Delta: 1}, events[1])
	assert.Zero(t, q.Len())
	assert.Nil(t, q.PollEvents())
}

func TestQueueConcurrentPush(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(ReloadRequested{})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, q.PollEvents(), 800)
}

func TestMultiKeepsSourceOrder(t *testing.T) {
	var a, b Queue
	a.Push(KeyPressed{Key: KeyEscape})
	b.Push(CursorMoved{X: 1, Y: 2}, CloseRequested{})

	events := Multi(&a, nil, &b).PollEvents()
	assert.Equal(t, []Event{
		KeyPressed{Key: KeyEscape},
		CursorMoved{X: 1, Y: 2},
		CloseRequested{},
	}, events)
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey(" F5 ")
	require.NoError(t, err)
	assert.Equal(t, KeyF5, k)

	k, err = ParseKey("R")
	require.NoError(t, err)
	assert.Equal(t, KeyR, k)
	assert.Equal(t, "r", k.String())

	_, err = ParseKey("unknown")
	assert.Error(t, err)
	_, err = ParseKey("hyper")
	assert.Error(t, err)
}
