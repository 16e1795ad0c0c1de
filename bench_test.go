package middleout

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	benchSinkBytes []byte
	benchSinkInt   int
	benchSinkErr   error
)

// benchInputs are the series shapes the codec is tuned for.
func benchInputs() map[string][]int64 {
	rng := rand.New(rand.NewSource(2024))

	timestamps := make([]int64, 100000)
	ts := int64(1_700_000_000_000)
	for i := range timestamps {
		ts += 1000 + int64(rng.Intn(3)) - 1
		timestamps[i] = ts
	}

	gauge := make([]int64, 100000)
	for i := range gauge {
		if i%50 < 40 && i > 0 {
			gauge[i] = gauge[i-1]
		} else {
			gauge[i] = int64(rng.Intn(1 << 20))
		}
	}

	prices := make([]int64, 100000)
	p := 100.0
	for i := range prices {
		p += rng.NormFloat64() * 0.05
		prices[i] = int64(math.Float64bits(math.Round(p*100) / 100))
	}

	return map[string][]int64{
		"timestamps": timestamps,
		"gauge":      gauge,
		"prices":     prices,
		"mixed":      genMixed(100000),
	}
}

func rawBytes(src []int64) []byte {
	out := make([]byte, 0, len(src)*8)
	for _, v := range src {
		out = binary.LittleEndian.AppendUint64(out, uint64(v))
	}
	return out
}

func BenchmarkCompress(b *testing.B) {
	for name, src := range benchInputs() {
		for _, e := range []Engine{EngineScalar, EngineVector} {
			c, err := NewCodec(WithEngine(e))
			if err != nil {
				b.Fatal(err)
			}
			b.Run(name+"/"+e.String(), func(b *testing.B) {
				dst := make([]byte, MaxCompressedSize(len(src)))
				b.ReportAllocs()
				b.SetBytes(int64(len(src) * 8))
				for b.Loop() {
					benchSinkInt, benchSinkErr = CompressWith(c, dst, src)
				}
				b.ReportMetric(float64(len(src)*8)/float64(benchSinkInt), "ratio")
			})
		}
	}
}

func BenchmarkDecompress(b *testing.B) {
	for name, src := range benchInputs() {
		buf := CompressSimple(src)
		for _, e := range []Engine{EngineScalar, EngineVector} {
			c, err := NewCodec(WithEngine(e))
			if err != nil {
				b.Fatal(err)
			}
			b.Run(name+"/"+e.String(), func(b *testing.B) {
				dst := make([]int64, len(src))
				b.ReportAllocs()
				b.SetBytes(int64(len(src) * 8))
				for b.Loop() {
					benchSinkErr = DecompressWith(c, dst, buf)
				}
			})
		}
	}
}

// BenchmarkBaselines runs general-purpose block compressors over the raw
// little-endian bytes of the same inputs.
func BenchmarkBaselines(b *testing.B) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderCRC(false),
	)
	if err != nil {
		b.Fatal(err)
	}
	defer encoder.Close()

	compressors := []struct {
		name string
		fn   func(dst, src []byte) ([]byte, error)
	}{
		{"zstd", func(dst, src []byte) ([]byte, error) {
			return encoder.EncodeAll(src, dst[:0]), nil
		}},
		{"s2", func(dst, src []byte) ([]byte, error) {
			return s2.Encode(dst[:cap(dst)], src), nil
		}},
		{"lz4", func(dst, src []byte) ([]byte, error) {
			n, err := lz4.CompressBlock(src, dst[:cap(dst)], nil)
			return dst[:n], err
		}},
	}

	for name, src := range benchInputs() {
		raw := rawBytes(src)
		for _, comp := range compressors {
			b.Run(name+"/"+comp.name, func(b *testing.B) {
				dst := make([]byte, 0, max(s2.MaxEncodedLen(len(raw)), lz4.CompressBlockBound(len(raw))))
				b.ReportAllocs()
				b.SetBytes(int64(len(raw)))
				for b.Loop() {
					benchSinkBytes, benchSinkErr = comp.fn(dst, raw)
				}
				if benchSinkErr != nil {
					b.Fatal(benchSinkErr)
				}
				b.ReportMetric(float64(len(raw))/float64(len(benchSinkBytes)), "ratio")
			})
		}
	}
}

func BenchmarkCompressSizes(b *testing.B) {
	for _, n := range []int{16, 256, 4096, 65536} {
		src := genMonotonic(n)
		dst := make([]byte, MaxCompressedSize(n))
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(n * 8))
			for b.Loop() {
				benchSinkInt, benchSinkErr = Compress(dst, src)
			}
		})
	}
}

// BenchmarkKernels compares every kernel of the selected vector set with its
// scalar counterpart on one encoder chunk.
func BenchmarkKernels(b *testing.B) {
	src := bitsOf(genMixed(chunkLen))
	deltas := make([]uint64, len(src))
	deltasScalar(deltas, src, 0)
	classes := make([]uint8, len(src))
	packed := make([]byte, len(src)*8)
	vals := make([]uint64, len(src))

	for _, k := range []*kernelSet{&scalarKernels, &vectorKernels} {
		b.Run("deltas/"+k.name, func(b *testing.B) {
			b.SetBytes(int64(len(src) * 8))
			for b.Loop() {
				k.deltas(vals, src, 0)
			}
		})
		b.Run("classify/"+k.name, func(b *testing.B) {
			b.SetBytes(int64(len(src) * 8))
			for b.Loop() {
				k.classify(classes, deltas)
			}
		})
		b.Run("pack/"+k.name, func(b *testing.B) {
			b.SetBytes(int64(len(src) * 8))
			for b.Loop() {
				k.pack(packed, deltas, 2)
			}
		})
		b.Run("undelta/"+k.name, func(b *testing.B) {
			b.SetBytes(int64(len(src) * 8))
			for b.Loop() {
				copy(vals, deltas)
				benchSinkInt = int(k.undelta(vals, 0))
			}
		})
		b.Run("fill/"+k.name, func(b *testing.B) {
			b.SetBytes(int64(maxBlockLen * 8))
			for b.Loop() {
				k.fill(vals[:maxBlockLen], 42)
			}
		})
	}
}
