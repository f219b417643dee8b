package bayesdist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDataContainer(t *testing.T) {
	path := writeFile(t, "# counts per category\n10 20 30\n\n 1\t2 3 \n0 0 0\n")
	dataContainer, err := NewDataContainer(path)
	require.NoError(t, err)
	assert.Equal(t, 3, dataContainer.Size)
	assert.Equal(t, 3, dataContainer.NumCategories)
	assert.Equal(t, []int{1, 2, 3}, dataContainer.GetCounts(1))
	assert.Equal(t, []int{11, 22, 33}, dataContainer.Total())
	assert.Panics(t, func() { dataContainer.GetCounts(3) })
}

func TestNewDataContainerErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not an integer", "1 2 x\n"},
		{"negative", "1 -2 3\n"},
		{"ragged", "1 2 3\n1 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataContainer(writeFile(t, tt.content))
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := NewDataContainer(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestNewDataContainerFromLabels(t *testing.T) {
	path := writeFile(t, "0 1 1 2\n2 2\n\n0\n")
	dataContainer, err := NewDataContainerFromLabels(path, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, dataContainer.Size)
	assert.Equal(t, 4, dataContainer.NumCategories)
	assert.Equal(t, [][]int{{1, 2, 1, 0}, {0, 0, 2, 0}, {1, 0, 0, 0}}, dataContainer.Counts)

	_, err = NewDataContainerFromLabels(writeFile(t, "0 4\n"), 4)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewDataContainerFromLabels(path, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewDataContainerFromCounts(t *testing.T) {
	counts := [][]int{{1, 2}, {3, 4}}
	dataContainer, err := NewDataContainerFromCounts(counts)
	require.NoError(t, err)
	counts[0][0] = 100
	assert.Equal(t, []int{1, 2}, dataContainer.GetCounts(0))

	_, err = NewDataContainerFromCounts([][]int{{1, 2}, {}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewDataContainerFromCounts([][]int{{1, 1}, {-5, 0}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, err, "batch 1")
}
