package protocol

// crcTable holds the reflected CRC-16 CCITT table (polynomial 0x8408) used by
// the device firmware.
var crcTable = func() [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}()

// Checksum computes the frame CRC over data with a zero initial value.
func Checksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crcTable[byte(crc)^b] ^ (crc >> 8)
	}
	return crc
}
