package serial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDrainOrder(t *testing.T) {

	lp := NewLoop()
	var got []int

	lp.Post(func() {
		got = append(got, 1)
		lp.Post(func() { got = append(got, 3) })
	})
	lp.Post(func() { got = append(got, 2) })

	assert.Equal(t, 2, lp.Pending())
	assert.Equal(t, 3, lp.Drain())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, lp.Drain())
}

func TestLoopStepWaitsForPost(t *testing.T) {

	lp := NewLoop()
	done := make(chan struct{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		lp.Post(func() { close(done) })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	count, err := lp.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	<-done
}

func TestLoopRunStops(t *testing.T) {

	lp := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	lp.Post(cancel)
	err := lp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
