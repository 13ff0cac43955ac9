package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uagis.dev/transit/model"
)

func decodeShapes(t *testing.T, content string) ([]*model.Shape, int, error) {
	shapes := []*model.Shape{}
	skipped, err := DecodeShapes(discardLogger(), []byte(content), func(s *model.Shape) error {
		shapes = append(shapes, s)
		return nil
	})
	return shapes, skipped, err
}

func TestDecodeShapes(t *testing.T) {
	// Points arrive out of order and interleaved across shapes.
	shapes, skipped, err := decodeShapes(t, `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
b,4.0,40.0,2
a,1.0,10.0,10
b,3.0,30.0,1
a,2.0,20.0,5`)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, shapes, 2)

	assert.Equal(t, &model.Shape{
		ID:          "a",
		Coordinates: [][2]float64{{2.0, 20.0}, {1.0, 10.0}},
	}, shapes[0])
	assert.Equal(t, &model.Shape{
		ID:          "b",
		Coordinates: [][2]float64{{3.0, 30.0}, {4.0, 40.0}},
	}, shapes[1])
}

func TestDecodeShapesSkipsBadPoints(t *testing.T) {
	shapes, skipped, err := decodeShapes(t, `
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence
,1.0,10.0,1
a,bad,10.0,1
a,1.0,10.0,notanumber
a,1.0,10.0,1`)
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, shapes, 1)
	assert.Len(t, shapes[0].Coordinates, 1)
}

func TestDecodeShapesMissingColumn(t *testing.T) {
	_, _, err := decodeShapes(t, "shape_id,shape_pt_lat,shape_pt_lon\na,1.0,10.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape_pt_sequence")
}
