package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightbox_Wraps(t *testing.T) {
	t.Parallel()

	seq := flatCatalog(5).images
	lb, err := OpenLightbox(seq, 4)
	require.NoError(t, err)
	assert.Equal(t, "5 / 5", lb.Counter())

	assert.Equal(t, 0, lb.Step(1).GlobalIndex)
	assert.Equal(t, 0, lb.Index())
	assert.Equal(t, 4, lb.Step(-1).GlobalIndex)
	assert.Equal(t, 1, lb.Step(7).GlobalIndex)
	assert.Equal(t, 2, lb.Step(-14).GlobalIndex)
	assert.Equal(t, 2, lb.Current().GlobalIndex)
	assert.Equal(t, 5, lb.Len())
}

func TestLightbox_SingleItem(t *testing.T) {
	t.Parallel()

	lb, err := OpenLightbox(flatCatalog(1).images, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, lb.Step(1).GlobalIndex)
	assert.Equal(t, 0, lb.Step(-1).GlobalIndex)
	assert.Equal(t, "1 / 1", lb.Counter())
}

func TestOpenLightbox_Errors(t *testing.T) {
	t.Parallel()

	_, err := OpenLightbox(nil, 0)
	require.ErrorIs(t, err, ErrEmptySequence)

	_, err = OpenLightbox(flatCatalog(3).images, 3)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = OpenLightbox(flatCatalog(3).images, -1)
	require.ErrorIs(t, err, ErrOutOfRange)
}
