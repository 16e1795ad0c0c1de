// Package middleout implements middle-out compression for sequences of 64-bit
// integers and doubles.
//
// The encoder splits a sequence into blocks of up to 256 elements. Runs of
// identical elements become repeat blocks holding a single value; everything
// else is stored as zigzag encoded differences to the preceding element, at
// the narrowest byte width (1, 2, 4 or 8) that fits the whole block. Doubles
// are compressed through their raw IEEE-754 bit patterns, so every value,
// including NaN payloads and negative zero, round-trips exactly.
//
// A compressed buffer ends in an 8 byte footer carrying a format marker,
// the element kind and a checksum of the block bytes. The element count is
// not stored: callers keep it next to the buffer and pass it back to
// Decompress as len(dst).
//
// Two engines produce byte-identical output: a portable scalar engine and a
// vectorized one running go-highway lanes (plus SSE2 assembly on amd64).
// Building with the noasm tag disables the assembly kernels.
package middleout

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"unsafe"
)

// Element is the set of element types the codec accepts.
type Element interface {
	~int64 | ~float64
}

var (
	simdAvailable bool
	simdName      = "none"
	defaultCodec  *Codec
)

// Initialize SIMD path if available
func init() {
	initSIMDSelection()
	defaultCodec = &Codec{engine: resolveEngine(EngineAuto), verify: true}
	defaultCodec.kernels = defaultCodec.engine.kernels()
}

// IsSIMDavailable reports whether accelerated kernels are active on this CPU.
func IsSIMDavailable() bool {
	return simdAvailable
}

// SIMDName names the active vector target, or "none" when the vector engine
// runs on the portable fallback.
func SIMDName() string {
	return simdName
}

// MaxCompressedSize returns the largest number of bytes Compress writes for
// n elements. It panics if n is negative or the bound does not fit an int.
func MaxCompressedSize(n int) int {
	if n < 0 {
		panic(fmt.Sprintf("middleout: invalid element count %d (must not be negative)", n))
	}
	if n > (math.MaxInt-footerBytes)/worstBytesPerElement {
		panic(fmt.Sprintf("middleout: element count %d overflows the compressed size bound", n))
	}
	return n*worstBytesPerElement + footerBytes
}

// Compress writes the compressed form of src to dst and returns the number of
// bytes used. dst must hold at least MaxCompressedSize(len(src)) bytes;
// nothing beyond the returned length is written.
func Compress[T Element](dst []byte, src []T) (int, error) {
	return CompressWith(defaultCodec, dst, src)
}

// CompressWith is Compress on the engine selected by c.
func CompressWith[T Element](c *Codec, dst []byte, src []T) (int, error) {
	need := MaxCompressedSize(len(src))
	if len(dst) < need {
		return 0, fmt.Errorf("%w: need %d bytes for %d elements, got %d",
			ErrBufferTooSmall, need, len(src), len(dst))
	}
	return c.compress(dst, bitsOf(src), kindOf[T]()), nil
}

// Append compresses src and appends the result to dst, growing it as needed.
func Append[T Element](dst []byte, src []T) []byte {
	start := len(dst)
	bound := MaxCompressedSize(len(src))
	dst = slices.Grow(dst, bound)
	n := defaultCodec.compress(dst[start:start+bound], bitsOf(src), kindOf[T]())
	return dst[:start+n]
}

// CompressSimple compresses src into a newly allocated buffer of exactly the
// compressed length.
func CompressSimple[T Element](src []T) []byte {
	buf := make([]byte, MaxCompressedSize(len(src)))
	n := defaultCodec.compress(buf, bitsOf(src), kindOf[T]())
	return slices.Clip(buf[:n])
}

// Decompress restores len(dst) elements from src into dst. The contents of
// dst are unspecified when an error is returned.
func Decompress[T Element](dst []T, src []byte) error {
	return DecompressWith(defaultCodec, dst, src)
}

// DecompressWith is Decompress on the engine selected by c.
func DecompressWith[T Element](c *Codec, dst []T, src []byte) error {
	if len(dst) == 0 && len(src) == 0 {
		return nil
	}
	blocks, _, err := c.openBlocks(src)
	if err != nil {
		return err
	}
	return decodeBlocks(c.kernels, bitsOf(dst), blocks)
}

// DecompressSimple allocates a slice of count elements and decompresses src
// into it.
func DecompressSimple[T Element](src []byte, count int) ([]T, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative element count %d", ErrLengthMismatch, count)
	}
	dst := make([]T, count)
	if err := Decompress(dst, src); err != nil {
		return nil, err
	}
	return dst, nil
}

func (c *Codec) compress(dst []byte, src []uint64, kind Kind) int {
	n := encodeBlocks(c.kernels, dst, src)
	putFooter(dst[n:n+footerBytes], kind, blockChecksum(dst[:n]))
	return n + footerBytes
}

// openBlocks validates the footer of src and returns the block area before it.
func (c *Codec) openBlocks(src []byte) ([]byte, Footer, error) {
	footer, err := ReadFooter(src)
	if err != nil {
		return nil, Footer{}, err
	}
	blocks := src[:len(src)-footerBytes]
	if c.verify {
		if sum := blockChecksum(blocks); sum != footer.Checksum {
			return nil, Footer{}, fmt.Errorf("%w: footer has 0x%08X, blocks hash to 0x%08X",
				ErrChecksumMismatch, footer.Checksum, sum)
		}
	}
	return blocks, footer, nil
}

// bitsOf reinterprets elements as their raw 64-bit patterns.
func bitsOf[T Element](s []T) []uint64 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// fromBits reinterprets a raw 64-bit pattern as an element.
func fromBits[T Element](u uint64) T {
	return *(*T)(unsafe.Pointer(&u))
}

func kindOf[T Element]() Kind {
	if reflect.TypeFor[T]().Kind() == reflect.Float64 {
		return KindFloat64
	}
	return KindInt64
}
