//go:build windows

package snapconfig

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapHandle is a read-only mapping on Windows. Mirrors mmap_unix.go's
// contract: one mapping for the life of a Mapping, never resized.
type mmapHandle struct {
	buf         []byte
	addr        uintptr
	fileMapping windows.Handle
}

func mmapFile(f *os.File, size int) (mmapHandle, error) {
	if size == 0 {
		return mmapHandle{}, nil
	}

	low, high := uint32(size), uint32(size>>32)
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, high, low, nil)
	if err != nil {
		return mmapHandle{}, err
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return mmapHandle{}, err
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return mmapHandle{buf: buf, addr: addr, fileMapping: h}, nil
}

func (h mmapHandle) bytes() []byte { return h.buf }

func (h mmapHandle) unmap() error {
	if h.buf == nil {
		return nil
	}

	if err := windows.UnmapViewOfFile(h.addr); err != nil {
		return err
	}
	return windows.CloseHandle(h.fileMapping)
}
