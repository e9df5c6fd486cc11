// Package watch reports file modification times for change polling. All
// comparison state lives with the caller.
package watch

import (
	"os"
	"time"
)

// ModTimer is the query the session loop polls to detect source changes.
type ModTimer interface {
	ModTime(path string) (time.Time, error)
}

// Stat queries the filesystem via os.Stat.
type Stat struct{}

func (Stat) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
