package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDispatchIsolationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[A-Z][a-zA-Z]{0,8}Command`), 2, 6, rapid.ID[string]).Draw(t, "names")

		rec := &recorder{}
		r := NewRegistry()
		for _, n := range names {
			require.NoError(t, r.RegisterClass(rec.class(n), ""))
		}
		d := NewDispatcher(r, newTestAPI())

		target := rapid.SampledFrom(names).Draw(t, "target")
		_, err := d.Execute(Invocation{Command: target})
		require.NoError(t, err)

		require.Len(t, rec.calls, 1)
		assert.Equal(t, target, rec.calls[0].name)
	})
}

func TestLastRegistrationWinsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(t, "registrations")
		rec := &recorder{}
		r := NewRegistry()

		var last []int
		for i := 0; i < n; i++ {
			last = rapid.SliceOfN(rapid.Int(), 0, 3).Draw(t, "args")
			require.NoError(t, r.RegisterFunction(Registration{
				Class: rec.class("Cmd"),
				Args:  toAny(last),
			}))
		}

		d, ok := r.Get("Cmd")
		require.True(t, ok)
		assert.Equal(t, toAny(last), d.Args)
		assert.Equal(t, 1, r.Len())
	})
}

func toAny(ints []int) []any {
	out := make([]any, len(ints))
	for i, v := range ints {
		out[i] = v
	}
	return out
}
