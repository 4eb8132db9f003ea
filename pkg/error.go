// Package pkg holds the ambient concerns shared by every layer of the
// control surface: a sentinel-error taxonomy and structured logging.
package pkg

import "errors"

// Transport errors.
var (
	// ErrTransportClosed indicates the underlying transport was closed,
	// either by the peer or locally.
	ErrTransportClosed = errors.New("transport closed")

	// ErrInvalidURL indicates a device URL could not be parsed or named
	// an unknown scheme.
	ErrInvalidURL = errors.New("invalid device url")

	// ErrIO wraps a low-level transport I/O failure.
	ErrIO = errors.New("transport i/o error")
)

// Protocol errors.
var (
	// ErrEmptyFrame indicates a zero-length frame was received where one
	// was not valid.
	ErrEmptyFrame = errors.New("empty frame")

	// ErrShortFrame indicates fewer bytes were available than the frame's
	// declared length required.
	ErrShortFrame = errors.New("short frame")

	// ErrMalformedResponse indicates a response payload could not be
	// decoded into any known variant shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnexpectedResponse indicates a response was decoded but was not
	// the variant the caller expected.
	ErrUnexpectedResponse = errors.New("unexpected response variant")

	// ErrMalformedHardwareID indicates a HardwareId response carried no
	// payload bytes.
	ErrMalformedHardwareID = errors.New("malformed hardware id")

	// ErrMismatchingBases indicates two MemoryView/FloatView instances
	// could not be concatenated because their address ranges do not meet.
	ErrMismatchingBases = errors.New("mismatching view bases")
)

// Multiplexing errors.
var (
	// ErrRoundtripTimeout indicates a roundtrip did not receive a matching
	// response within its deadline.
	ErrRoundtripTimeout = errors.New("roundtrip timeout")
)

// Command / descriptor errors.
var (
	// ErrTooManyCoefficients indicates a FIR load exceeded the device's
	// maximum tap count.
	ErrTooManyCoefficients = errors.New("too many fir coefficients")

	// ErrIndexOutOfRange indicates a requested input/output/peq index does
	// not exist on the resolved descriptor.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNoSuchPeripheral indicates the resolved descriptor has no entry
	// for the requested control.
	ErrNoSuchPeripheral = errors.New("no such peripheral for this descriptor")
)

// Discovery / device manager errors.
var (
	// ErrEnumerationFailed indicates HID enumeration failed; it is logged
	// and retried rather than treated as fatal.
	ErrEnumerationFailed = errors.New("hid enumeration failed")

	// ErrBeaconTooShort indicates a UDP discovery packet was shorter than
	// the fixed 36-byte header.
	ErrBeaconTooShort = errors.New("beacon packet too short")

	// ErrBeaconHostnameOverrun indicates a beacon's declared hostname
	// length would read past the end of the packet.
	ErrBeaconHostnameOverrun = errors.New("beacon hostname length overruns packet")

	// ErrNoSuchDevice indicates a registry or manager lookup found no
	// device at the requested key/index.
	ErrNoSuchDevice = errors.New("no such device")

	// ErrNoLocalDevice indicates the compat bridge found no device at all
	// to forward a connection to.
	ErrNoLocalDevice = errors.New("no device available")
)
