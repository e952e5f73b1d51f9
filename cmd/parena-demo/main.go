// Command parena-demo builds a small multi-map in a file, prints its
// contents back out, and allocates a closing block of scratch space —
// the same sequence of operations the original disk-map implementation
// this package is modeled on runs from its own main().
package main

import (
	"fmt"
	"os"

	"github.com/pavanmanishd/parena"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file>\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	fmt.Println("create a disk map with an initial size of 420 bytes")
	a, err := parena.Create(path, 420)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer a.Close()

	m, err := parena.CreateMultiMap(a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("inserting values")
	inserts := []struct{ key, value string }{
		{"key0", "key0val0"},
		{"key0", "key0val1"},
		{"key0", "key0val2"},
		{"key1", "key1val0"},
		{"key1", "key1val1"},
		{"key2", "key2val0"},
	}
	for _, kv := range inserts {
		if err := m.Insert(a, []byte(kv.key), []byte(kv.value)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	fmt.Println("reading values")
	for pos := range m.Outer().Enumerate(a) {
		fmt.Printf("key %s\n", m.Outer().KeyAt(a, pos))
		child := m.ChildAt(a, pos)
		for vpos := range child.Enumerate(a) {
			fmt.Printf("\t val %s\n", child.KeyAt(a, vpos))
		}
	}

	// A final scratch allocation past the multi-map's own bookkeeping,
	// to demonstrate that Allocate works for arbitrary payloads, not
	// just ones an Index manages.
	scratch, err := a.Allocate(20)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	copy(a.Deref(scratch, 20), []byte("END OF USED MEM"))

	stats := m.Outer().Stats(a)
	fmt.Printf("outer index: %d/%d buckets filled, max probe distance %d\n",
		stats.Filled, stats.BucketCount, stats.MaxDist)

	fmt.Println("done")
}
