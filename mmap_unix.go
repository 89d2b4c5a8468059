//go:build !windows

package snapconfig

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapHandle is a read-only mapping on POSIX systems, adapted from the
// teacher's MMap wrapper in IOUtils.go/Types.go: here the mapping is opened
// once, read-only, and never resized, since a compiled image is immutable
// once written.
type mmapHandle struct {
	buf []byte
}

func mmapFile(f *os.File, size int) (mmapHandle, error) {
	if size == 0 {
		return mmapHandle{}, nil
	}

	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return mmapHandle{}, err
	}

	return mmapHandle{buf: buf}, nil
}

func (h mmapHandle) bytes() []byte { return h.buf }

func (h mmapHandle) unmap() error {
	if h.buf == nil {
		return nil
	}
	return unix.Munmap(h.buf)
}
