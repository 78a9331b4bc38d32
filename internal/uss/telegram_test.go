// internal/uss/telegram_test.go
package uss

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayout_DefaultGeometry(t *testing.T) {
	require.Equal(t, 16, DefaultLayout.Len())
	require.Equal(t, byte(14), DefaultLayout.LGE())
	require.NoError(t, DefaultLayout.Validate())
}

func TestLayout_Validate(t *testing.T) {
	require.Error(t, Layout{PKWWords: 3, PZDWords: 2}.Validate())
	require.Error(t, Layout{PKWWords: 4, PZDWords: 0}.Validate())
	require.Error(t, Layout{PKWWords: 4, PZDWords: 3}.Validate())
	require.Error(t, Layout{PKWWords: 4, PZDWords: 18}.Validate())

	l := Layout{PKWWords: 4, PZDWords: 4}
	require.NoError(t, l.Validate())
	require.Equal(t, 20, l.Len())
	require.Equal(t, byte(18), l.LGE())
}

func TestEncode_WireFormat(t *testing.T) {
	tg := Telegram{
		Addr: 1,
		PKW:  PKW{PKE: 0x2010, PWELow: 16},
		PZD:  []uint16{0x047F, 0x2000},
	}

	want := []byte{
		0x02, 0x0E, 0x01,
		0x20, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10,
		0x04, 0x7F, 0x20, 0x00,
		0x76,
	}

	require.Equal(t, want, DefaultLayout.Encode(tg))
}

func TestEncode_MissingPZDWordsAreZero(t *testing.T) {
	b := DefaultLayout.Encode(Telegram{Addr: 3, PZD: []uint16{0x1234}})
	require.Len(t, b, 16)
	require.Equal(t, []byte{0x12, 0x34, 0x00, 0x00}, b[11:15])
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, l := range []Layout{DefaultLayout, {PKWWords: 4, PZDWords: 6}} {
		for i := 0; i < 500; i++ {
			in := Telegram{
				Addr: byte(rng.Intn(MaxAddress + 1)),
				PKW: PKW{
					PKE:     uint16(rng.Uint32()),
					IND:     uint16(rng.Uint32()),
					PWEHigh: uint16(rng.Uint32()),
					PWELow:  uint16(rng.Uint32()),
				},
				PZD: make([]uint16, l.PZDWords),
			}
			for j := range in.PZD {
				in.PZD[j] = uint16(rng.Uint32())
			}

			out, err := l.Decode(l.Encode(in))
			require.NoError(t, err)
			require.Equal(t, in, out)
		}
	}
}

func TestDecode_SingleBitFlipFailsChecksum(t *testing.T) {
	frame := DefaultLayout.Encode(Telegram{
		Addr: 7,
		PKW:  PKW{PKE: 0x3123, PWEHigh: 0x3F80},
		PZD:  []uint16{0x047F, 0x1234},
	})

	for i := 0; i < len(frame); i++ {
		for bit := 0; bit < 8; bit++ {
			b := append([]byte(nil), frame...)
			b[i] ^= 1 << uint(bit)

			_, err := DefaultLayout.Decode(b)
			require.Error(t, err, "byte=%d bit=%d", i, bit)
			require.True(t, errors.Is(err, ErrMalformed))

			var fe *FrameError
			require.True(t, errors.As(err, &fe))
			require.Equal(t, "bcc", fe.Reason, "byte=%d bit=%d", i, bit)
		}
	}
}

func TestDecode_WrongLength(t *testing.T) {
	frame := DefaultLayout.Encode(Telegram{Addr: 1})

	for _, b := range [][]byte{nil, frame[:15], append(frame, 0)} {
		_, err := DefaultLayout.Decode(b)
		var fe *FrameError
		require.True(t, errors.As(err, &fe))
		require.Equal(t, "length", fe.Reason)
	}
}

func TestDecode_WrongSTX(t *testing.T) {
	b := DefaultLayout.Encode(Telegram{Addr: 1})
	b[0] = 0x03
	b[len(b)-1] = BCC(b[:len(b)-1])

	_, err := DefaultLayout.Decode(b)
	require.True(t, errors.Is(err, ErrMalformed))

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "stx", fe.Reason)
}

func TestAddressMasking(t *testing.T) {
	b := DefaultLayout.Encode(Telegram{Addr: 0xE5})
	require.Equal(t, byte(0x05), b[2])

	// flag bits set by a slave are ignored on decode
	b[2] |= AddrMirrorFlag
	b[len(b)-1] = BCC(b[:len(b)-1])

	tg, err := DefaultLayout.Decode(b)
	require.NoError(t, err)
	require.Equal(t, byte(0x05), tg.Addr)
}

func TestBCC(t *testing.T) {
	require.Equal(t, byte(0), BCC(nil))
	require.Equal(t, byte(0x02^0x0E), BCC([]byte{0x02, 0x0E}))
}
