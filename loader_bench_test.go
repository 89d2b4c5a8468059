package snapconfig

import (
	"os"
	"path/filepath"
	"testing"
)

// benchSource builds a moderately nested JSON document, large enough to
// show the difference between a cold compile and a fresh-cache load.
func benchSource(dir string) string {
	path := filepath.Join(dir, "bench.json")
	var buf []byte
	buf = append(buf, '{')
	for i := 0; i < 500; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, []byte(`"key`+itoa(i)+`":{"n":`+itoa(i)+`,"s":"value`+itoa(i)+`"}`)...)
	}
	buf = append(buf, '}')
	os.WriteFile(path, buf, 0o600)
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func BenchmarkLoadColdCompile(b *testing.B) {
	dir := b.TempDir()
	path := benchSource(dir)

	for i := 0; i < b.N; i++ {
		os.Remove(path + ".snapconfig")
		r, err := Load(path)
		if err != nil {
			b.Fatal(err)
		}
		r.Close()
	}
}

func BenchmarkLoadFreshCache(b *testing.B) {
	dir := b.TempDir()
	path := benchSource(dir)

	r, err := Load(path)
	if err != nil {
		b.Fatal(err)
	}
	r.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := Load(path)
		if err != nil {
			b.Fatal(err)
		}
		r.Close()
	}
}

func BenchmarkReaderKeyLookup(b *testing.B) {
	dir := b.TempDir()
	path := benchSource(dir)

	r, err := Load(path)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Get("key250.n"); err != nil {
			b.Fatal(err)
		}
	}
}
