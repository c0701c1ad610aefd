package hdf5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) string {
	t.Helper()
	path := tempFile(t, "tree.h5")
	f, err := Create(path)
	require.NoError(t, err)
	root := f.Root()
	_, err = root.CreateDataset("a", []uint64{1}, []float64{1})
	require.NoError(t, err)
	g, err := root.CreateGroup("g")
	require.NoError(t, err)
	_, err = g.CreateDataset("b", []uint64{2}, []float64{1, 2})
	require.NoError(t, err)
	_, err = g.CreateGroup("empty")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return path
}

func TestWalk(t *testing.T) {
	f, err := Open(buildTree(t))
	require.NoError(t, err)
	defer f.Close()

	var groups, datasets []string
	err = f.Walk(func(path string, obj any, err error) error {
		require.NoError(t, err)
		switch o := obj.(type) {
		case *Group:
			groups = append(groups, path)
		case *Dataset:
			datasets = append(datasets, path)
			assert.Equal(t, path, o.Path())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/g", "/g/empty"}, groups)
	assert.Equal(t, []string{"/a", "/g/b"}, datasets)
}

func TestWalkStop(t *testing.T) {
	f, err := Open(buildTree(t))
	require.NoError(t, err)
	defer f.Close()

	var visited []string
	err = f.Walk(func(path string, obj any, err error) error {
		visited = append(visited, path)
		if path == "/a" {
			return ErrStopWalk
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/a"}, visited)

	g, err := f.OpenGroup("g")
	require.NoError(t, err)
	visited = nil
	require.NoError(t, Walk(g, func(path string, obj any, err error) error {
		visited = append(visited, path)
		return nil
	}))
	assert.Equal(t, []string{"/g", "/g/b", "/g/empty"}, visited)
}
