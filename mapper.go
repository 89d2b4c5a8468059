package snapconfig

import "os"

//============================================= Mapper

// Mapping is a read-only memory-mapped view of a compiled image, validated
// against the current Format. It is the only thing a Reader needs to hold
// to navigate the payload with zero deserialization.
type Mapping struct {
	file    *os.File
	data    mmapHandle
	Header  Header
	Payload []byte
}

// OpenMapping opens path, maps it read-only in full, and validates its
// header. On any validation failure the mapping is released before
// returning, per spec.md §4.4.
func OpenMapping(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapError(KindSourceMissing, err, "image %s does not exist", path)
		}
		return nil, wrapError(KindIoError, err, "opening image %s", path)
	}

	info, statErr := f.Stat()
	if statErr != nil {
		f.Close()
		return nil, wrapError(KindIoError, statErr, "stat image %s", path)
	}

	if info.Size() < HeaderSize {
		f.Close()
		return nil, newError(KindCorruptImage, "image %s is %d bytes, smaller than header size %d", path, info.Size(), HeaderSize)
	}

	handle, mapErr := mmapFile(f, int(info.Size()))
	if mapErr != nil {
		f.Close()
		return nil, wrapError(KindIoError, mapErr, "mapping image %s", path)
	}

	buf := handle.bytes()

	if !HasMagic(buf) {
		handle.unmap()
		f.Close()
		return nil, newError(KindCorruptImage, "image %s has invalid magic", path)
	}

	header, decErr := DecodeHeader(buf)
	if decErr != nil {
		handle.unmap()
		f.Close()
		return nil, decErr
	}

	if header.Version != FormatVersion {
		handle.unmap()
		f.Close()
		return nil, newError(KindCorruptImage, "image %s has format version %d, expected %d", path, header.Version, FormatVersion)
	}

	payloadEnd := int64(HeaderSize) + int64(header.PayloadLen)
	if payloadEnd > int64(len(buf)) {
		handle.unmap()
		f.Close()
		return nil, newError(KindCorruptImage, "image %s payload length %d overruns file of %d bytes", path, header.PayloadLen, len(buf))
	}

	payload := buf[HeaderSize:payloadEnd]
	if int64(header.RootOffset) >= int64(len(payload)) && header.PayloadLen > 0 {
		handle.unmap()
		f.Close()
		return nil, newError(KindCorruptImage, "image %s root offset %d lies outside payload of %d bytes", path, header.RootOffset, len(payload))
	}

	return &Mapping{file: f, data: handle, Header: header, Payload: payload}, nil
}

// Close releases the mapping and the underlying file handle.
func (m *Mapping) Close() error {
	if m == nil {
		return nil
	}

	unmapErr := m.data.unmap()
	closeErr := m.file.Close()

	if unmapErr != nil {
		return wrapError(KindIoError, unmapErr, "unmapping image")
	}
	if closeErr != nil {
		return wrapError(KindIoError, closeErr, "closing image file")
	}
	return nil
}
