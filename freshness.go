package snapconfig

import "os"

//============================================= Freshness Oracle

// IsFresh reports whether the image at imagePath may be used as-is for the
// source at sourcePath, per spec.md §4.3: both must exist as regular files,
// the recorded source size and mtime must match exactly, and the image's
// magic/version must match the current build. Any mismatch or I/O error is
// treated as not-fresh so the Loader recompiles; deliberately no hashing,
// to keep the check bounded by a single stat + header read.
func IsFresh(sourcePath, imagePath string) (bool, error) {
	srcInfo, srcErr := os.Stat(sourcePath)
	if srcErr != nil || !srcInfo.Mode().IsRegular() {
		return false, nil
	}

	imgInfo, imgErr := os.Stat(imagePath)
	if imgErr != nil || !imgInfo.Mode().IsRegular() {
		return false, nil
	}

	header, err := readHeaderOnly(imagePath)
	if err != nil {
		return false, nil
	}

	if header.Version != FormatVersion {
		return false, nil
	}
	if header.SourceSize != uint64(srcInfo.Size()) {
		return false, nil
	}
	if header.SourceMTime != uint64(srcInfo.ModTime().UnixNano()) {
		return false, nil
	}

	return true, nil
}

// readHeaderOnly reads just the fixed header bytes without mapping the
// whole file, since freshness checks must stay O(header) per spec.md §4.3's
// rationale.
func readHeaderOnly(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	buf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return Header{}, err
	}

	if !HasMagic(buf) {
		return Header{}, newError(KindCorruptImage, "bad magic")
	}

	return DecodeHeader(buf)
}
