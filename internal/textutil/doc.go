// Package textutil turns DataPack keys and run labels into names that are safe
// to use as file names.
package textutil
