package talk

// CRC-8, polynomial x^8 + x^2 + x + 1, zero init, no reflection.
const crcPoly byte = 0x07

var crcTable [256]byte

func init() {
	for i := range crcTable {
		crc := byte(i)
		for n := 0; n < 8; n++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// ChecksumInit returns the initial checksum accumulator.
func ChecksumInit() byte {
	return 0
}

// ChecksumUpdate folds one byte into the accumulator.
func ChecksumUpdate(crc, b byte) byte {
	return crcTable[crc^b]
}

// Checksum computes the checksum of p.
func Checksum(p []byte) byte {
	crc := ChecksumInit()
	for _, b := range p {
		crc = crcTable[crc^b]
	}
	return crc
}
