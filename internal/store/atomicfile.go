package store

import "os"

// WriteFileAtomic writes data to path via a temporary file, fsync and rename,
// so a crash never leaves a consumer-visible partial write. Shared by the
// glyph cache, the scheduler state file and the archiver.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmpFile := path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}
