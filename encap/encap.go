// Package encap serializes captured serial events into the byte layouts
// stored in a pcap container. Each supported link-type tag maps to exactly
// one codec; the tag written into the container header tells downstream
// tooling how to decode the packets.
package encap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gopacket/gopacket/layers"

	"github.com/ttylabs/serialpcap/capture"
	"github.com/ttylabs/serialpcap/serial"
)

var (
	ErrUnknownLinkType          = errors.New("unknown link type")
	ErrUnsupportedEncapsulation = errors.New("unsupported encapsulation")
)

// Format identifies the byte-level encapsulation applied to each event
type Format uint8

const (
	// FormatRaw writes the payload bytes unchanged. Used with the
	// user-defined link types, which promise nothing about layout.
	FormatRaw Format = iota
	// FormatStructured prefixes the payload with a fixed 12-byte header
	// carrying the timestamp, an event-type tag and the control-line
	// bitmask. Used with the RTAC_SERIAL link type.
	FormatStructured
)

// String returns the format name used in errors and listings
func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatStructured:
		return "structured-serial"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Codec tables, frozen at package init. formatForLink picks the codec for a
// link-type tag; codecs binds each format to its encode function.
var (
	formatForLink = buildLinkFormats()
	codecs        = map[Format]func(capture.Event) ([]byte, error){
		FormatRaw:        encodeRaw,
		FormatStructured: encodeStructured,
	}
)

func buildLinkFormats() map[layers.LinkType]Format {
	m := map[layers.LinkType]Format{
		layers.LinkTypeRaw: FormatRaw,
		LinkTypeRTACSerial: FormatStructured,
	}
	for i := 0; i < 16; i++ {
		m[LinkTypeUser0+layers.LinkType(i)] = FormatRaw
	}
	return m
}

// FormatFor reports the encapsulation used for a link-type tag
func FormatFor(link layers.LinkType) (Format, bool) {
	f, ok := formatForLink[link]
	return f, ok
}

// Encoder serializes events for one capture session. The codec is resolved
// on every Encode, not at construction: a link type without a codec
// surfaces as an error on the first event that needs encoding.
type Encoder struct {
	link layers.LinkType
	raw  bool
}

// NewEncoder returns an encoder whose codec is chosen by the link-type tag
func NewEncoder(link layers.LinkType) *Encoder {
	return &Encoder{link: link}
}

// NewRawEncoder returns a passthrough encoder regardless of the link-type
// tag (the force-raw override)
func NewRawEncoder(link layers.LinkType) *Encoder {
	return &Encoder{link: link, raw: true}
}

// Link returns the tag the output container must be opened with
func (e *Encoder) Link() layers.LinkType {
	return e.link
}

// Format returns the encapsulation this encoder applies, and whether one
// exists for its link type
func (e *Encoder) Format() (Format, bool) {
	if e.raw {
		return FormatRaw, true
	}
	return FormatFor(e.link)
}

// Encode serializes one event
func (e *Encoder) Encode(ev capture.Event) ([]byte, error) {
	format, ok := e.Format()
	if !ok {
		return nil, fmt.Errorf("%w: no codec for link type %s",
			ErrUnsupportedEncapsulation, LinkTypeName(e.link))
	}
	codec, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncapsulation, format)
	}
	return codec(ev)
}

func encodeRaw(ev capture.Event) ([]byte, error) {
	return ev.Data, nil
}

// StructuredHeaderLen is the fixed header size of FormatStructured
const StructuredHeaderLen = 12

// eventTypeData tags a data event in byte 8 of the structured header.
// Other values are reserved for future control-only event types.
const eventTypeData = 0x01

// Control-line bit positions in byte 9 of the structured header
const (
	bitCTS = 1 << 0
	bitDCD = 1 << 1
	bitDSR = 1 << 2
	bitRTS = 1 << 3
	bitDTR = 1 << 4
	bitRI  = 1 << 5
)

// encodeStructured lays the event out as:
//
//	bytes 0-3   whole seconds of the timestamp, little-endian
//	bytes 4-7   microsecond-of-second component, little-endian
//	byte  8     event type (0x01 = data)
//	byte  9     control-line bitmask
//	bytes 10-11 reserved, zero
//	bytes 12-   payload
func encodeStructured(ev capture.Event) ([]byte, error) {
	buf := make([]byte, StructuredHeaderLen+len(ev.Data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(ev.Timestamp.Unix()))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(ev.Timestamp.Nanosecond()/1000))
	buf[8] = eventTypeData
	buf[9] = lineBits(ev.Lines)
	copy(buf[StructuredHeaderLen:], ev.Data)
	return buf, nil
}

// lineBits packs a snapshot into the structured header's bitmask byte.
// Bits 6 and 7 stay zero.
func lineBits(lines serial.ControlLines) byte {
	var b byte
	if lines.CTS {
		b |= bitCTS
	}
	if lines.DCD {
		b |= bitDCD
	}
	if lines.DSR {
		b |= bitDSR
	}
	if lines.RTS {
		b |= bitRTS
	}
	if lines.DTR {
		b |= bitDTR
	}
	if lines.RI {
		b |= bitRI
	}
	return b
}
