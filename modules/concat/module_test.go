package concat

import (
	"context"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_PreservesInputOrder(t *testing.T) {
	// --- Arrange ---
	stage, err := newStage(&Options{Name: "vendors.min.js", Separator: "\n"})
	require.NoError(t, err)
	in := []*pipeline.Asset{
		{Path: "jquery.min.js", Data: []byte("/*jquery*/")},
		{Path: "popper.min.js", Data: []byte("/*popper*/")},
		{Path: "bootstrap.min.js", Data: []byte("/*bootstrap*/")},
	}

	// --- Act ---
	out, err := stage.Transform(context.Background(), in)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "vendors.min.js", out[0].Path)
	assert.Equal(t, "/*jquery*/\n/*popper*/\n/*bootstrap*/", string(out[0].Data))
}

func TestTransform_EmptyInputProducesNothing(t *testing.T) {
	stage, err := newStage(&Options{Name: "all.js"})
	require.NoError(t, err)

	out, err := stage.Transform(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewStage_RejectsEscapingName(t *testing.T) {
	for _, name := range []string{"", "../x.js", "/abs.js"} {
		_, err := newStage(&Options{Name: name})
		assert.Error(t, err, name)
	}
}
