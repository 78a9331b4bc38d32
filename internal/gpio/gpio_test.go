// internal/gpio/gpio_test.go
package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLine struct {
	values []int
	closed bool
	err    error
}

func (f *fakeLine) SetValue(v int) error {
	f.values = append(f.values, v)
	return f.err
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

// stubRequest replaces the character device for the test.
func stubRequest(t *testing.T, line *fakeLine, err error) *[]lineRequest {
	var got []lineRequest
	prev := requestLine
	requestLine = func(r lineRequest) (valueLine, error) {
		got = append(got, r)
		if err != nil {
			return nil, err
		}
		return line, nil
	}
	t.Cleanup(func() { requestLine = prev })
	return &got
}

func TestCdev_OutputAndLevels(t *testing.T) {
	fl := &fakeLine{}
	reqs := stubRequest(t, fl, nil)

	line, err := Open(Config{Kind: KindCdev, Pin: 17}, nil)
	require.NoError(t, err)
	require.Empty(t, *reqs)

	require.NoError(t, line.SetOutput())
	require.Equal(t, []lineRequest{{chip: "gpiochip0", offset: 17}}, *reqs)

	require.NoError(t, line.Write(true))
	require.NoError(t, line.Write(false))
	require.Equal(t, []int{1, 0}, fl.values)

	require.NoError(t, line.Close())
	require.True(t, fl.closed)
}

func TestCdev_ActiveLowIsRequestedFromKernel(t *testing.T) {
	fl := &fakeLine{}
	reqs := stubRequest(t, fl, nil)

	line, err := NewCdev("gpiochip4", 23, true)
	require.NoError(t, err)
	require.NoError(t, line.SetOutput())
	require.NoError(t, line.Write(true))

	require.Equal(t, []lineRequest{{chip: "gpiochip4", offset: 23, activeLow: true}}, *reqs)
	// logical level; the kernel inverts it
	require.Equal(t, []int{1}, fl.values)
}

func TestCdev_RequestFailure(t *testing.T) {
	stubRequest(t, nil, errors.New("device or resource busy"))

	line, err := NewCdev("", 5, false)
	require.NoError(t, err)
	require.ErrorContains(t, line.SetOutput(), "gpiochip0 line 5")
}

func TestCdev_WriteBeforeSetOutput(t *testing.T) {
	stubRequest(t, &fakeLine{}, nil)

	line, err := NewCdev("", 5, false)
	require.NoError(t, err)
	require.Error(t, line.Write(true))

	_, err = NewCdev("", -1, false)
	require.Error(t, err)
}

func TestCdev_WriteError(t *testing.T) {
	fl := &fakeLine{err: errors.New("eio")}
	stubRequest(t, fl, nil)

	line, _ := NewCdev("", 5, false)
	require.NoError(t, line.SetOutput())
	require.Error(t, line.Write(true))
}

type fakeRTS struct {
	levels []bool
	err    error
}

func (f *fakeRTS) SetRTS(high bool) error {
	f.levels = append(f.levels, high)
	return f.err
}

func TestRTSLine(t *testing.T) {
	port := &fakeRTS{}

	line, err := Open(Config{Kind: KindRTS}, port)
	require.NoError(t, err)
	require.NoError(t, line.SetOutput())
	require.NoError(t, line.Write(true))
	require.NoError(t, line.Write(false))
	require.Equal(t, []bool{true, false}, port.levels)

	inv, err := Open(Config{Kind: KindRTS, ActiveLow: true}, port)
	require.NoError(t, err)
	require.NoError(t, inv.Write(true))
	require.Equal(t, false, port.levels[2])

	port.err = errors.New("ioctl failed")
	require.Error(t, line.Write(true))
}

func TestOpen_Kinds(t *testing.T) {
	_, err := Open(Config{Kind: KindRTS}, struct{}{})
	require.Error(t, err)

	_, err = Open(Config{Kind: "pigpio"}, nil)
	require.Error(t, err)

	line, err := Open(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, line.Write(true))
}
