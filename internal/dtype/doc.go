// Package dtype converts raw numeric HDF5 elements to and from float64.
//
// Every array h5util handles is float64 in memory. Integer and float
// datasets of any width and byte order are decoded into float64, and
// float64 values are encoded back into whatever datatype a dataset or a
// virtual dataset declares.
package dtype
