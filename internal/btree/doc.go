// Package btree reads version 1 B-trees ("TREE").
//
// Files written with the pre-1.8 format index group members with a group
// B-tree whose leaves point at symbol table nodes ("SNOD"), and index the
// chunks of chunked datasets with a chunk B-tree. [ReadGroup] lists the
// members of such a group and [ReadChunks] lists the chunks of a dataset.
package btree
