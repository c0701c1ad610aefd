package hdf5

import (
	"errors"
	"fmt"
)

// WalkFunc is called for each object during traversal.
// path is the full path to the object.
// obj is either *Group or *Dataset.
// err is any error encountered opening the object.
// Return nil to continue walking, ErrStopWalk to stop quietly, or any other
// error to stop and have Walk return it.
type WalkFunc func(path string, obj any, err error) error

// ErrStopWalk can be returned from a WalkFunc to stop walking without an error.
var ErrStopWalk = errors.New("walk stopped")

// Walk traverses all objects (groups and datasets) in the hierarchy starting from g.
// The callback is called for each group and dataset, including the starting group.
// A group linked more than once is descended into only the first time.
//
// Example:
//
//	Walk(root, func(path string, obj any, err error) error {
//	    if err != nil {
//	        return err // or skip: return nil
//	    }
//	    switch o := obj.(type) {
//	    case *Group:
//	        fmt.Println("Group:", path)
//	    case *Dataset:
//	        fmt.Println("Dataset:", path, "shape:", o.Shape())
//	    }
//	    return nil
//	})
func Walk(g *Group, fn WalkFunc) error {
	err := walkGroup(g, fn, make(map[string]bool))
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

// Walk traverses the whole file from the root group.
func (f *File) Walk(fn WalkFunc) error {
	if f.closed {
		return ErrClosed
	}
	return Walk(f.root, fn)
}

func walkGroup(g *Group, fn WalkFunc, seen map[string]bool) error {
	key := fmt.Sprintf("%s@%d", g.file.abs, g.addr)
	if seen[key] {
		return nil
	}
	seen[key] = true

	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}
	members, err := g.Members()
	if err != nil {
		return fn(g.Path(), nil, err)
	}

	for _, name := range members {
		childPath := joinPath(g.Path(), name)
		obj, err := g.open(name)
		if err != nil {
			if err := fn(childPath, nil, err); err != nil {
				return err
			}
			continue
		}
		switch o := obj.(type) {
		case *Group:
			if err := walkGroup(o, fn, seen); err != nil {
				return err
			}
		case *Dataset:
			if err := fn(childPath, o, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
