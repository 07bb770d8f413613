//go:build !linux

package docstore

import "os"

func syncFile(file *os.File) error {
	if file == nil {
		return nil
	}
	return file.Sync()
}
