// Package heap reads local heaps and reads and writes global heap
// collections.
//
// A local heap ("HEAP") holds the member names of groups stored in the
// symbol table form. A global heap collection ("GCOL") holds numbered
// objects; virtual datasets keep their source mapping list in one.
package heap
