package errdefer_test

import (
	"os"
	"path/filepath"

	"go.abhg.dev/fetchcode/internal/errdefer"
)

func writeFile(name string, body []byte) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer errdefer.Close(&err, f)
	// NOTE: err must be a named return.

	_, err = f.Write(body)
	return err
}

// Errors from closing a file that was written to matter:
// the write may not have been flushed until then.
func ExampleClose() {
	dir, err := os.MkdirTemp("", "errdefer")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	if err := writeFile(filepath.Join(dir, "out.html"), []byte("<p>hi</p>")); err != nil {
		panic(err)
	}
}
