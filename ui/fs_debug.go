//go:build debug

package ui

import (
	"io/fs"
	"os"
)

// DistFS returns a live filesystem rooted at ui/dist so rebuilt assets show
// up without recompiling Go.
func DistFS() fs.FS {
	return os.DirFS("ui/dist")
}
