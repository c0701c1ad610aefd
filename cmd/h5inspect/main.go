// Command h5inspect prints the groups and datasets of an HDF5 file,
// including the mappings of virtual datasets.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robert-malhotra/h5util/hdf5"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: h5inspect <file.h5> ...")
		os.Exit(1)
	}
	status := 0
	for _, filename := range os.Args[1:] {
		if err := inspect(os.Stdout, filename); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", filename, err)
			status = 1
		}
	}
	os.Exit(status)
}

func inspect(w io.Writer, filename string) error {
	f, err := hdf5.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(w, "=== %s ===\n", filename)
	fmt.Fprintf(w, "Superblock version: %d\n", f.Version())

	return f.Walk(func(path string, obj any, err error) error {
		indent := strings.Repeat("  ", len(hdf5.SplitPath(path)))
		if err != nil {
			fmt.Fprintf(w, "%s%q: ERROR %v\n", indent, path, err)
			return nil
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			n, err := o.NumObjects()
			if err != nil {
				fmt.Fprintf(w, "%sGroup %q: ERROR %v\n", indent, path, err)
				return nil
			}
			fmt.Fprintf(w, "%sGroup %q: %d members\n", indent, path, n)
		case *hdf5.Dataset:
			describe(w, indent, o)
		}
		return nil
	})
}

func describe(w io.Writer, indent string, ds *hdf5.Dataset) {
	fmt.Fprintf(w, "%sDataset %q:\n", indent, ds.Path())
	fmt.Fprintf(w, "%s  Shape: %v\n", indent, ds.Shape())
	fmt.Fprintf(w, "%s  Type: %s\n", indent, ds.Dtype())
	fmt.Fprintf(w, "%s  Layout: %s\n", indent, ds.LayoutClass())
	if v, ok := ds.FillValue(); ok {
		fmt.Fprintf(w, "%s  Fill: %g\n", indent, v)
	}
	if !ds.IsVirtual() {
		return
	}
	mappings, err := ds.VirtualMappings()
	if err != nil {
		fmt.Fprintf(w, "%s  Mappings: ERROR %v\n", indent, err)
		return
	}
	for _, m := range mappings {
		fmt.Fprintf(w, "%s  %s <- %s:%s [%s]\n", indent, m.VirtualSelection, m.SourceFile, m.SourceDataset, m.SourceSelection)
	}
}
