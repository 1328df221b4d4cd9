package overdrop

import (
	"fmt"
	"io"
	"os"
)

// MergeFunc folds the contents of one fragment into the running accumulator.
// It receives the accumulator, the fragment name and a reader over the
// fragment's contents, and returns the updated accumulator.
type MergeFunc[T any] func(acc T, name string, r io.Reader) (T, error)

// Merge opens every fragment in resolution order (ascending by name) and
// folds its contents into the accumulator through fn, starting from initial.
//
// Merge performs no filtering or override logic of its own; it is a plain
// consumer of a scan result. The first failure to open a fragment, or the
// first error returned by fn, aborts the fold and is returned together with
// the accumulator as it stood before the failing fragment.
func Merge[T any](fragments Fragments, initial T, fn MergeFunc[T]) (T, error) {
	acc := initial
	for _, fragment := range fragments {
		file, err := os.Open(fragment.Path)
		if err != nil {
			return acc, fmt.Errorf("failed to open fragment %s: %w", fragment.Path, err)
		}
		next, err := fn(acc, fragment.Name, file)
		file.Close()
		if err != nil {
			return acc, fmt.Errorf("failed to merge fragment %s: %w", fragment.Path, err)
		}
		acc = next
	}
	return acc, nil
}
