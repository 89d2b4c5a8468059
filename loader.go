package snapconfig

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
)

//============================================= Loader

// LoadOption configures Load, Compile, ClearCache, and GetCacheInfo. Mirrors
// the teacher's MariOpts struct-of-options shape in Types.go, but expressed
// as functional options so individual calls can override just the setting
// they care about.
type LoadOption func(*loadOptions)

type loadOptions struct {
	cachePath      string
	forceRecompile bool
	format         Format
	hasFormat      bool
	logger         *slog.Logger
}

// WithCachePath overrides the default `<path>.snapconfig` image location.
func WithCachePath(p string) LoadOption {
	return func(o *loadOptions) { o.cachePath = p }
}

// WithForceRecompile skips the freshness check and always recompiles.
func WithForceRecompile(force bool) LoadOption {
	return func(o *loadOptions) { o.forceRecompile = force }
}

// WithFormat overrides extension-based format detection.
func WithFormat(f Format) LoadOption {
	return func(o *loadOptions) { o.format, o.hasFormat = f, true }
}

// WithLogger overrides the default logger used for recompile/corruption
// notices and the parser-layer duplicate-key warning hook.
func WithLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) { o.logger = l }
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *loadOptions) resolveImagePath(sourcePath string) string {
	if o.cachePath != "" {
		return o.cachePath
	}
	return sourcePath + ".snapconfig"
}

func (o *loadOptions) resolveFormat(sourcePath string) (Format, error) {
	if o.hasFormat {
		return o.format, nil
	}
	return DetectFormat(sourcePath)
}

// Load returns a Reader for the parsed content of path, constructing or
// reusing a compiled image beside it, per spec.md §4.7's algorithm.
func Load(path string, opts ...LoadOption) (Reader, error) {
	o := newLoadOptions(opts)
	imagePath := o.resolveImagePath(path)

	if !o.forceRecompile {
		if fresh, _ := IsFresh(path, imagePath); fresh {
			m, err := OpenMapping(imagePath)
			if err == nil {
				return NewReader(m), nil
			}
			if !isCorrupt(err) {
				return Reader{}, err
			}
			o.logger.Warn("cached image failed validation, recompiling", "image", imagePath, "error", err)
		}
	}

	return compileAndMap(path, imagePath, o)
}

func isCorrupt(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindCorruptImage
}

func compileAndMap(sourcePath, imagePath string, o *loadOptions) (Reader, error) {
	tree, meta, err := parseSourceFile(sourcePath, o)
	if err != nil {
		return Reader{}, err
	}

	if err := WriteImage(tree, meta, imagePath); err != nil {
		return Reader{}, err
	}

	m, err := OpenMapping(imagePath)
	if err != nil {
		return Reader{}, err
	}
	return NewReader(m), nil
}

func parseSourceFile(sourcePath string, o *loadOptions) (Node, SourceMeta, error) {
	format, err := o.resolveFormat(sourcePath)
	if err != nil {
		return Node{}, SourceMeta{}, err
	}

	info, statErr := os.Stat(sourcePath)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return Node{}, SourceMeta{}, wrapError(KindSourceMissing, statErr, "source %s does not exist", sourcePath)
		}
		return Node{}, SourceMeta{}, wrapError(KindIoError, statErr, "stat source %s", sourcePath)
	}

	data, readErr := os.ReadFile(sourcePath)
	if readErr != nil {
		return Node{}, SourceMeta{}, wrapError(KindIoError, readErr, "reading source %s", sourcePath)
	}

	tree, parseErr := ParseSource(format, data)
	if parseErr != nil {
		return Node{}, SourceMeta{}, parseErr
	}

	meta := SourceMeta{Size: info.Size(), MTime: info.ModTime().UnixNano()}
	return tree, meta, nil
}

// Compile forces a fresh compile of source to the explicit destination
// path and returns that path. It does not map the result.
func Compile(source, destination string, opts ...LoadOption) (string, error) {
	o := newLoadOptions(opts)

	tree, meta, err := parseSourceFile(source, o)
	if err != nil {
		return "", err
	}

	if err := WriteImage(tree, meta, destination); err != nil {
		return "", err
	}

	return destination, nil
}

// LoadCompiled skips freshness checking and parsing entirely, mapping the
// given image directly.
func LoadCompiled(imagePath string) (Reader, error) {
	m, err := OpenMapping(imagePath)
	if err != nil {
		return Reader{}, err
	}
	return NewReader(m), nil
}

// LoadEnv loads path as a dotenv document through the same compile/cache
// path as Load, forcing FormatDotenv regardless of extension.
func LoadEnv(path string, opts ...LoadOption) (Reader, error) {
	opts = append(append([]LoadOption{}, opts...), WithFormat(FormatDotenv))
	return Load(path, opts...)
}

// ParseEnv parses text as a dotenv document in memory, without compiling
// or touching the filesystem.
func ParseEnv(text []byte) (Node, error) {
	return parseDotenv(text)
}

// LoadDotenv parses path as a dotenv document and writes each variable into
// the current process's environment, returning the number written.
// Existing variables are left untouched unless overrideExisting is set.
func LoadDotenv(path string, overrideExisting bool) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, wrapError(KindSourceMissing, err, "dotenv source %s does not exist", path)
		}
		return 0, wrapError(KindIoError, err, "reading dotenv source %s", path)
	}

	tree, err := parseDotenv(data)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, f := range tree.Fields {
		if !overrideExisting {
			if _, exists := os.LookupEnv(f.Key); exists {
				continue
			}
		}

		value := scalarEnvString(f.Value)
		if err := os.Setenv(f.Key, value); err == nil {
			count++
		}
	}

	return count, nil
}

// scalarEnvString renders a coerced dotenv scalar back to the string form
// os.Setenv expects.
func scalarEnvString(n Node) string {
	switch n.Kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(n.Bool)
	case KindInt:
		return strconv.FormatInt(n.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	default:
		return n.Str
	}
}

// CacheInfo reports the cache state for a source/image pair without
// mutating anything.
type CacheInfo struct {
	SourceExists bool
	ImageExists  bool
	ImageFresh   bool
	ImageSize    int64
}

// GetCacheInfo implements the programmatic surface's cache_info operation.
func GetCacheInfo(path string, opts ...LoadOption) (CacheInfo, error) {
	o := newLoadOptions(opts)
	imagePath := o.resolveImagePath(path)

	var info CacheInfo

	if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
		info.SourceExists = true
	}

	if st, err := os.Stat(imagePath); err == nil && st.Mode().IsRegular() {
		info.ImageExists = true
		info.ImageSize = st.Size()
	}

	if info.SourceExists && info.ImageExists {
		fresh, _ := IsFresh(path, imagePath)
		info.ImageFresh = fresh
	}

	return info, nil
}

// ClearCache unlinks the image for path if present, reporting whether a
// file was actually removed.
func ClearCache(path string, opts ...LoadOption) (bool, error) {
	o := newLoadOptions(opts)
	imagePath := o.resolveImagePath(path)

	if err := os.Remove(imagePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrapError(KindIoError, err, "removing image %s", imagePath)
	}

	return true, nil
}
