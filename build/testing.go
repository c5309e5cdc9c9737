package build

import (
	"os"
	"path/filepath"
	"time"
)

var (
	// LedgerdTestingDir is the directory that contains all of the files and
	// folders created during testing.
	LedgerdTestingDir = filepath.Join(os.TempDir(), "LedgerdTesting")
)

// TempDir joins the provided directories and prefixes them with the
// ledgerd testing directory.
func TempDir(dirs ...string) string {
	path := filepath.Join(LedgerdTestingDir, filepath.Join(dirs...))
	os.RemoveAll(path) // remove old test data
	return path
}

// Retry calls fn up to 'tries' times, waiting 'durationBetweenAttempts'
// between each attempt, returning nil the first time fn succeeds. If fn
// never succeeds, the final error is returned. Used by the storage backend
// selector to retry the remote document store before falling back.
func Retry(tries int, durationBetweenAttempts time.Duration, fn func() error) (err error) {
	for i := 1; i < tries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(durationBetweenAttempts)
	}
	return fn()
}
