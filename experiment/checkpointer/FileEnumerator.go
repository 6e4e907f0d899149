package checkpointer

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	prefix    = "ckpt-"
	extension = ".gob"
)

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

// filename returns the name of the next consecutive enumerated file
func (f *fileEnumerator) filename() string {
	f.i++
	return fmt.Sprintf("%v%v%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a function which will return filenames
// with a counter integer suffix. Each time the returned function is
// called, the filename counter suffix will be one higher than on the
// previous call, starting at start+1. The filename parameter is the
// full filename with its path, while the extension parameter determines
// the file extension.
func FilenameEnumerator(start int, filename, extension string) func() string {
	enum := fileEnumerator{i: start, name: filename, extension: extension}

	return enum.filename
}

// parseIndex returns the counter suffix of a checkpoint base filename
func parseIndex(base string) (int, bool) {
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, extension) {
		return 0, false
	}
	index, err := strconv.Atoi(strings.TrimSuffix(
		strings.TrimPrefix(base, prefix), extension))
	if err != nil || index < 1 {
		return 0, false
	}
	return index, true
}
