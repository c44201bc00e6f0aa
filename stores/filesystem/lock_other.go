//go:build !unix && !windows

package filesystem

import "os"

// Platforms without advisory locking only get the O_EXCL create guarantee.
func tryLock(*os.File) (bool, error) { return true, nil }

func unlock(*os.File) error { return nil }
