//go:build !unix

package docstore

import "os"

// lockFile is a stub on platforms without advisory locking; cross-process
// exclusion degrades to the in-process mutex, which is only safe for
// single-process deployments.
func lockFile(f *os.File) error { return nil }

// unlockFile is a stub counterpart to lockFile.
func unlockFile(f *os.File) error { return nil }
