package journalcodec

import (
	"bytes"
	"testing"
)

// journal-ish payload: repetitive enough that every codec should win.
func compressibleValue() []byte {
	return bytes.Repeat([]byte("sqn=000017 object={user profile} deltas=[idx] "), 200)
}

func TestRoundtripAllTypes(t *testing.T) {
	data := compressibleValue()

	for _, typ := range []Type{NoCompression, SnappyCompression, ZlibCompression, LZ4Compression, LZ4HCCompression, ZstdCompression} {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := Compress(typ, data)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if typ != NoCompression && len(compressed) >= len(data) {
				t.Errorf("repetitive value did not shrink: %d -> %d bytes", len(data), len(compressed))
			}

			decompressed, err := Decompress(typ, compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decompressed, data) {
				t.Error("roundtrip mismatch")
			}
		})
	}
}

func TestNoCompressionPassesThrough(t *testing.T) {
	data := []byte("raw value bytes")
	compressed, err := Compress(NoCompression, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bytes.Equal(compressed, data) {
		t.Error("NoCompression must return the value unchanged")
	}
}

func TestLZ4IncompressibleSignalsNoBenefit(t *testing.T) {
	// A short, high-entropy value the block compressor cannot shrink.
	data := []byte{0x01, 0xF7, 0x39, 0xC2, 0x8B, 0x5E}

	compressed, err := Compress(LZ4Compression, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(compressed) != 0 {
		t.Fatalf("incompressible value should yield an empty result, got %d bytes", len(compressed))
	}
}

func TestLZ4DecompressWithKnownSize(t *testing.T) {
	data := compressibleValue()
	compressed, err := Compress(LZ4Compression, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	decompressed, err := DecompressWithSize(LZ4Compression, compressed, len(data))
	if err != nil {
		t.Fatalf("DecompressWithSize: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("roundtrip mismatch with known size")
	}
}

func TestEmptyValueRoundtrip(t *testing.T) {
	for _, typ := range []Type{NoCompression, SnappyCompression, ZlibCompression, LZ4Compression, ZstdCompression} {
		compressed, err := Compress(typ, nil)
		if err != nil {
			t.Fatalf("%s: Compress(nil): %v", typ, err)
		}
		decompressed, err := Decompress(typ, compressed)
		if err != nil {
			t.Fatalf("%s: Decompress: %v", typ, err)
		}
		if len(decompressed) != 0 {
			t.Errorf("%s: empty value grew to %d bytes", typ, len(decompressed))
		}
	}
}

func TestUnsupportedType(t *testing.T) {
	bogus := Type(0x42)
	if bogus.IsSupported() {
		t.Error("Type(0x42) should not be supported")
	}
	if _, err := Compress(bogus, []byte("x")); err == nil {
		t.Error("Compress with an unsupported type should fail")
	}
	if _, err := Decompress(bogus, []byte("x")); err == nil {
		t.Error("Decompress with an unsupported type should fail")
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{NoCompression, "NoCompression"},
		{SnappyCompression, "Snappy"},
		{ZlibCompression, "Zlib"},
		{LZ4Compression, "LZ4"},
		{LZ4HCCompression, "LZ4HC"},
		{ZstdCompression, "ZSTD"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("Type(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func BenchmarkCompressSnappy(b *testing.B) {
	data := compressibleValue()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		_, _ = Compress(SnappyCompression, data)
	}
}
