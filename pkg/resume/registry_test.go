package resume

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/fast-dialogue/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ActivateFiresOnce(t *testing.T) {
	mission := &host.MockState{Name: "mission", StateKind: host.KindMission}
	menu := &host.MockState{Name: "menu", StateKind: host.KindMenu}

	var r Registry
	var fired []string
	r.Schedule(mission, func(s host.State) {
		assert.Same(t, mission, s)
		fired = append(fired, "first")
	})
	r.Schedule(mission, func(host.State) { fired = append(fired, "second") })

	assert.Equal(t, 0, r.Activate(menu), "unrelated state fires nothing")
	assert.Empty(t, fired)
	assert.Equal(t, 2, r.Pending(mission))

	assert.Equal(t, 2, r.Activate(mission))
	assert.Equal(t, []string{"first", "second"}, fired)
	assert.Equal(t, 0, r.Pending(mission))
	assert.Equal(t, 0, r.Len())

	assert.Equal(t, 0, r.Activate(mission), "entries never fire twice")
	assert.Len(t, fired, 2)
}

func TestRegistry_IdentityNotKind(t *testing.T) {
	a := &host.MockState{Name: "mission", StateKind: host.KindMission}
	b := &host.MockState{Name: "mission", StateKind: host.KindMission}

	var r Registry
	calls := 0
	r.Schedule(a, func(host.State) { calls++ })

	r.Activate(b)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, r.Len())

	r.Activate(a)
	assert.Equal(t, 1, calls)
}

func TestRegistry_ScheduleDuringActivate(t *testing.T) {
	state := &host.MockState{Name: "map", StateKind: host.KindMap}

	var r Registry
	calls := 0
	r.Schedule(state, func(s host.State) {
		calls++
		r.Schedule(s, func(host.State) { calls += 10 })
	})

	assert.Equal(t, 1, r.Activate(state))
	assert.Equal(t, 1, calls, "entries added during a pass wait for the next activation")
	require.Equal(t, 1, r.Pending(state))

	assert.Equal(t, 1, r.Activate(state))
	assert.Equal(t, 11, calls)
}

func TestRegistry_Cancel(t *testing.T) {
	state := &host.MockState{Name: "menu", StateKind: host.KindMenu}

	var r Registry
	calls := 0
	id := r.Schedule(state, func(host.State) { calls++ })
	keep := r.Schedule(state, func(host.State) { calls += 10 })

	assert.True(t, r.Cancel(id))
	assert.False(t, r.Cancel(id))

	r.Activate(state)
	assert.Equal(t, 10, calls)
	assert.False(t, r.Cancel(keep), "fired entries are gone")
}

func TestRegistry_CancelFromCallback(t *testing.T) {
	state := &host.MockState{Name: "menu", StateKind: host.KindMenu}

	var r Registry
	var second uuid.UUID
	calls := 0

	r.Schedule(state, func(host.State) {
		calls++
		r.Cancel(second)
	})
	second = r.Schedule(state, func(host.State) { calls += 10 })

	assert.Equal(t, 1, r.Activate(state))
	assert.Equal(t, 1, calls)
}
