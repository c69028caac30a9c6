package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntity_EmitRunsListenersFIFO(t *testing.T) {
	e := NewEntity("box")

	var order []string
	e.On("transitionend", func() { order = append(order, "first") })
	e.On("transitionend", func() { order = append(order, "second") })

	n := e.Emit("transitionend")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEntity_EmitWithoutListeners(t *testing.T) {
	e := NewEntity("box")
	assert.Equal(t, 0, e.Emit("transitionend"))
}

func TestEntity_ListenerAddedDuringDispatchSeesLaterEmitsOnly(t *testing.T) {
	e := NewEntity("box")

	count := 0
	e.On("tick", func() {
		e.On("tick", func() { count += 10 })
		count++
	})

	e.Emit("tick")
	assert.Equal(t, 1, count)

	e.Emit("tick")
	assert.Equal(t, 12, count)
}

func TestEntity_EventsAreIndependent(t *testing.T) {
	e := NewEntity("box")

	var fired string
	e.On("transitionend", func() { fired = "transitionend" })
	e.On("animationend", func() { fired = "animationend" })

	e.Emit("animationend")
	assert.Equal(t, "animationend", fired)
}
