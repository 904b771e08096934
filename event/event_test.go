package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type kind int

const (
	opened kind = iota
	closed
)

func TestBus(t *testing.T) {

	var bus Bus[kind, string]
	var got []string

	offA := bus.On(opened, func(msg string) { got = append(got, "a:"+msg) })
	bus.On(opened, func(msg string) { got = append(got, "b:"+msg) })
	bus.On(closed, func(msg string) { got = append(got, "c:"+msg) })

	bus.Emit(opened, "1")
	assert.Equal(t, []string{"a:1", "b:1"}, got)

	offA()
	offA()
	got = nil
	bus.Emit(opened, "2")
	bus.Emit(closed, "3")
	assert.Equal(t, []string{"b:2", "c:3"}, got)
	assert.Equal(t, 1, bus.Count(opened))
}

func TestBusUnsubscribeDuringEmit(t *testing.T) {

	var bus Bus[kind, int]
	calls := 0

	var off func()
	off = bus.On(opened, func(int) {
		calls++
		off()
	})
	bus.On(opened, func(int) { calls++ })

	bus.Emit(opened, 0)
	bus.Emit(opened, 0)
	assert.Equal(t, 3, calls)
}
