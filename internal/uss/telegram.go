// internal/uss/telegram.go
package uss

import (
	"encoding/binary"
	"fmt"
)

// PKW is the parameter channel area of a telegram.
type PKW struct {
	PKE     uint16 // AK nibble | parameter number
	IND     uint16 // reserved, always 0 from this master
	PWEHigh uint16
	PWELow  uint16
}

// AK returns the task/acknowledgment nibble of the PKE word.
func (p PKW) AK() uint16 { return p.PKE & PKEAKMask }

// Param returns the 11-bit parameter number.
func (p PKW) Param() uint16 { return p.PKE & PKEParamMask }

// Telegram is the in-memory form of one USS frame.
// PZD[0] is the control/status word, PZD[1] the setpoint/actual value.
type Telegram struct {
	Addr byte
	PKW  PKW
	PZD  []uint16
}

// Layout fixes the geometry of every telegram on a bus.
type Layout struct {
	PKWWords int
	PZDWords int
}

// DefaultLayout is 4 PKW words + 2 PZD words (16 bytes).
var DefaultLayout = Layout{PKWWords: 4, PZDWords: 2}

const (
	pkwWords    = 4
	minPZDWords = 2
	maxPZDWords = 16
)

// Validate checks that the layout is one this master can drive.
func (l Layout) Validate() error {
	if l.PKWWords != pkwWords {
		return fmt.Errorf("uss: pkw words must be %d, got %d", pkwWords, l.PKWWords)
	}
	if l.PZDWords < minPZDWords || l.PZDWords > maxPZDWords || l.PZDWords%2 != 0 {
		return fmt.Errorf("uss: pzd words must be even in %d..%d, got %d", minPZDWords, maxPZDWords, l.PZDWords)
	}
	return nil
}

// Len is the total frame length in bytes.
func (l Layout) Len() int {
	return telegramOverhead + 2*l.PKWWords + 2*l.PZDWords
}

// LGE is the value of the length byte: everything after it.
func (l Layout) LGE() byte {
	return byte(l.Len() - 2)
}

func (l Layout) pzdOffset() int {
	return 3 + 2*l.PKWWords
}

// Encode packs t into a new buffer of exactly Len() bytes.
func (l Layout) Encode(t Telegram) []byte {
	b := make([]byte, l.Len())
	l.EncodeTo(b, t)
	return b
}

// EncodeTo packs t into dst, which must hold at least Len() bytes.
// Missing PZD words are sent as zero, surplus words are dropped.
//
// Layout:
//
//	0      STX
//	1      LGE
//	2      ADR (bits 0-4)
//	3..10  PKE IND PWE1 PWE2 (big-endian)
//	11..   PZD words (big-endian)
//	last   BCC
func (l Layout) EncodeTo(dst []byte, t Telegram) {
	n := l.Len()
	b := dst[:n]

	b[0] = STX
	b[1] = l.LGE()
	b[2] = t.Addr & AddrMask

	binary.BigEndian.PutUint16(b[3:5], t.PKW.PKE)
	binary.BigEndian.PutUint16(b[5:7], t.PKW.IND)
	binary.BigEndian.PutUint16(b[7:9], t.PKW.PWEHigh)
	binary.BigEndian.PutUint16(b[9:11], t.PKW.PWELow)

	off := l.pzdOffset()
	for i := 0; i < l.PZDWords; i++ {
		var w uint16
		if i < len(t.PZD) {
			w = t.PZD[i]
		}
		binary.BigEndian.PutUint16(b[off+2*i:off+2*i+2], w)
	}

	b[n-1] = BCC(b[:n-1])
}

// Decode validates and unpacks one telegram.
// The BCC is checked before STX so any corruption of a
// well-formed frame surfaces as a checksum failure.
// The address is returned masked; matching it is up to the caller.
func (l Layout) Decode(b []byte) (Telegram, error) {
	n := l.Len()
	if len(b) != n {
		return Telegram{}, &FrameError{Reason: "length", Got: len(b), Want: n}
	}
	if bcc := BCC(b[:n-1]); bcc != b[n-1] {
		return Telegram{}, &FrameError{Reason: "bcc", Got: int(b[n-1]), Want: int(bcc)}
	}
	if b[0] != STX {
		return Telegram{}, &FrameError{Reason: "stx", Got: int(b[0]), Want: int(STX)}
	}

	t := Telegram{
		Addr: b[2] & AddrMask,
		PKW: PKW{
			PKE:     binary.BigEndian.Uint16(b[3:5]),
			IND:     binary.BigEndian.Uint16(b[5:7]),
			PWEHigh: binary.BigEndian.Uint16(b[7:9]),
			PWELow:  binary.BigEndian.Uint16(b[9:11]),
		},
		PZD: make([]uint16, l.PZDWords),
	}

	off := l.pzdOffset()
	for i := range t.PZD {
		t.PZD[i] = binary.BigEndian.Uint16(b[off+2*i : off+2*i+2])
	}

	return t, nil
}

// BCC is the XOR of all bytes in b.
func BCC(b []byte) byte {
	var x byte
	for _, c := range b {
		x ^= c
	}
	return x
}
