package rtctime

// ToBCD packs a value in 0..99 as two BCD digits, tens in the high nibble. Values outside that range do not fit and
// produce garbage; callers check first.
func ToBCD(v int) byte {
	return byte(v/10)<<4 | byte(v%10)
}

// FromBCD unpacks two BCD digits. Nibbles above 9 are not rejected, so a corrupt byte decodes to a value above 99.
func FromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}
