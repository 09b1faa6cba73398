package ogg

// Ogg's CRC32 variant: polynomial 0x04C11DB7, non-reflected, initial value
// 0, no final XOR, bytes shifted into the high end of the accumulator.
// This is a different algorithm from the standard library's hash/crc32,
// which only supports reflected polynomials and would produce the wrong
// checksum for Ogg pages.
const crcPolynomial = 0x04c11db7

var crcTable = buildCRCTable()

func buildCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = (r << 1) ^ crcPolynomial
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}

// crcInit returns the initial CRC accumulator state.
func crcInit() uint32 { return 0 }

// crcUpdate folds a single byte into state.
func crcUpdate(state uint32, b byte) uint32 {
	return (state << 8) ^ crcTable[byte(state>>24)^b]
}

// crcUpdateMany folds a byte slice into state.
func crcUpdateMany(state uint32, p []byte) uint32 {
	for _, b := range p {
		state = crcUpdate(state, b)
	}
	return state
}

// crcFinalize returns the final checksum for state. Ogg's CRC applies no
// final XOR or reflection, so this is the identity function; it exists so
// callers don't have to know that.
func crcFinalize(state uint32) uint32 { return state }

// pageChecksum computes the Ogg page CRC over buf, which must be a
// complete serialized page (header, segment table, body) with the
// checksum field at byte offset 22..26 already zeroed by the caller.
func pageChecksum(buf []byte) uint32 {
	return crcFinalize(crcUpdateMany(crcInit(), buf))
}
