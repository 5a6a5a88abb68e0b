package fixation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowOperations(t *testing.T) {
	a, b, c := Sample{T: 0, X: 1}, Sample{T: 10, X: 2}, Sample{T: 20, X: 3}

	w := NewWindow(a, b)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, a, w.First())
	assert.Equal(t, b, w.Last())

	appended := w.Append(c)
	assert.Equal(t, []Sample{a, b, c}, appended.Samples())
	assert.Equal(t, 2, w.Len(), "append must not modify the receiver")

	slid := w.Slide(c)
	assert.Equal(t, []Sample{b, c}, slid.Samples())

	dropped := appended.DropOldest()
	assert.Equal(t, []Sample{b, c}, dropped.Samples())

	reset := appended.Reset(a)
	assert.Equal(t, []Sample{a}, reset.Samples())

	assert.True(t, Window{}.DropOldest().Empty())
	assert.Equal(t, []Sample{c}, Window{}.Slide(c).Samples())
}

func TestWindow_NoAliasing(t *testing.T) {
	base := NewWindow(Sample{T: 0}, Sample{T: 1}, Sample{T: 2})
	shrunk := base.DropOldest()
	grown1 := shrunk.Append(Sample{T: 3})
	grown2 := shrunk.Append(Sample{T: 4})

	assert.Equal(t, 3.0, grown1.Last().T)
	assert.Equal(t, 4.0, grown2.Last().T)
	assert.Equal(t, 2.0, base.Last().T)

	out := base.Samples()
	out[0].X = 99
	assert.Equal(t, 0.0, base.First().X)
}
