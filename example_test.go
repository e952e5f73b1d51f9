package parena

import (
	"fmt"
	"os"
)

// Example demonstrates the package's basic usage: creating an arena,
// building a multi-map on top of it, and reading values back.
func Example() {
	path := "/tmp/parena-example.db"
	defer os.Remove(path)

	a, err := Create(path, 4096)
	if err != nil {
		panic(err)
	}
	defer a.Close()

	m, err := CreateMultiMap(a)
	if err != nil {
		panic(err)
	}

	_ = m.Insert(a, []byte("fruit"), []byte("apple"))
	_ = m.Insert(a, []byte("fruit"), []byte("pear"))

	child, _ := m.Child(a, []byte("fruit"))
	count := 0
	for range child.Enumerate(a) {
		count++
	}
	fmt.Printf("fruit has %d members\n", count)

	// Output:
	// fruit has 2 members
}
