// internal/wire/message.go
package wire

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
)

// Record types and classes used by the resolver. Other rdata is carried
// opaquely so referral responses with unknown types still parse.
const (
	TypeA     uint16 = 1
	TypeNS    uint16 = 2
	TypeCNAME uint16 = 5

	ClassINET uint16 = 1
)

// Response codes
const (
	RcodeSuccess       = 0
	RcodeServerFailure = 2
)

// MaxDatagramSize is the classic DNS-over-UDP payload limit.
const MaxDatagramSize = 512

const (
	headerLen       = 12
	maxNameLen      = 255
	maxLabelLen     = 63
	maxPointerJumps = 16
)

// Header holds the fixed 12-byte DNS message header in unpacked form.
type Header struct {
	ID                 uint16
	Response           bool
	Opcode             int
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	Rcode              int
}

// Question represents a single entry of the question section.
type Question struct {
	Name  string
	Type  uint16
	Class uint16
}

// ResourceRecord represents one record of the answer, authority or
// additional section. Exactly one of Addr, Host or Data is meaningful,
// depending on Type.
type ResourceRecord struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32

	// Addr holds the IPv4 address of an A record.
	Addr net.IP
	// Host holds the target name of an NS or CNAME record.
	Host string
	// Data holds the raw rdata for any other record type.
	Data []byte
}

// Message is the unpacked form of a DNS message. Names are stored without
// the trailing root dot.
type Message struct {
	Header
	Question   []Question
	Answer     []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// NewQuery builds a non-recursive A query for name.
func NewQuery(id uint16, name string) *Message {
	return &Message{
		Header: Header{ID: id},
		Question: []Question{{
			Name:  strings.TrimSuffix(name, "."),
			Type:  TypeA,
			Class: ClassINET,
		}},
	}
}

// Pack serializes the message to wire format. Names are emitted without
// compression; compression is only handled on the decode side.
func (m *Message) Pack() ([]byte, error) {
	buf := make([]byte, 0, MaxDatagramSize)

	var flags uint16
	if m.Response {
		flags |= 1 << 15
	}
	flags |= uint16(m.Opcode&0xF) << 11
	if m.Authoritative {
		flags |= 1 << 10
	}
	if m.Truncated {
		flags |= 1 << 9
	}
	if m.RecursionDesired {
		flags |= 1 << 8
	}
	if m.RecursionAvailable {
		flags |= 1 << 7
	}
	flags |= uint16(m.Rcode & 0xF)

	buf = binary.BigEndian.AppendUint16(buf, m.ID)
	buf = binary.BigEndian.AppendUint16(buf, flags)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Question)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Answer)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Authority)))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Additional)))

	var err error
	for i := range m.Question {
		q := &m.Question[i]
		if buf, err = appendName(buf, q.Name); err != nil {
			return nil, err
		}
		buf = binary.BigEndian.AppendUint16(buf, q.Type)
		buf = binary.BigEndian.AppendUint16(buf, q.Class)
	}

	for _, section := range [][]ResourceRecord{m.Answer, m.Authority, m.Additional} {
		for i := range section {
			if buf, err = appendRR(buf, &section[i]); err != nil {
				return nil, err
			}
		}
	}

	return buf, nil
}

// Unpack parses a wire-format DNS message.
func Unpack(data []byte) (*Message, error) {
	if len(data) < headerLen {
		return nil, fmt.Errorf("wire: message too short: %d bytes", len(data))
	}

	m := &Message{}
	m.ID = binary.BigEndian.Uint16(data[0:2])

	flags := binary.BigEndian.Uint16(data[2:4])
	m.Response = flags&(1<<15) != 0
	m.Opcode = int(flags >> 11 & 0xF)
	m.Authoritative = flags&(1<<10) != 0
	m.Truncated = flags&(1<<9) != 0
	m.RecursionDesired = flags&(1<<8) != 0
	m.RecursionAvailable = flags&(1<<7) != 0
	m.Rcode = int(flags & 0xF)

	qdCount := int(binary.BigEndian.Uint16(data[4:6]))
	anCount := int(binary.BigEndian.Uint16(data[6:8]))
	nsCount := int(binary.BigEndian.Uint16(data[8:10]))
	arCount := int(binary.BigEndian.Uint16(data[10:12]))

	off := headerLen
	for i := 0; i < qdCount; i++ {
		name, next, err := unpackName(data, off)
		if err != nil {
			return nil, err
		}
		if next+4 > len(data) {
			return nil, fmt.Errorf("wire: question section truncated")
		}
		m.Question = append(m.Question, Question{
			Name:  name,
			Type:  binary.BigEndian.Uint16(data[next : next+2]),
			Class: binary.BigEndian.Uint16(data[next+2 : next+4]),
		})
		off = next + 4
	}

	var err error
	if m.Answer, off, err = unpackSection(data, off, anCount); err != nil {
		return nil, err
	}
	if m.Authority, off, err = unpackSection(data, off, nsCount); err != nil {
		return nil, err
	}
	if m.Additional, _, err = unpackSection(data, off, arCount); err != nil {
		return nil, err
	}

	return m, nil
}

func unpackSection(data []byte, off, count int) ([]ResourceRecord, int, error) {
	if count == 0 {
		return nil, off, nil
	}
	records := make([]ResourceRecord, 0, count)
	for i := 0; i < count; i++ {
		rr, next, err := unpackRR(data, off)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rr)
		off = next
	}
	return records, off, nil
}

func unpackRR(data []byte, off int) (ResourceRecord, int, error) {
	var rr ResourceRecord

	name, off, err := unpackName(data, off)
	if err != nil {
		return rr, 0, err
	}
	if off+10 > len(data) {
		return rr, 0, fmt.Errorf("wire: resource record header truncated")
	}

	rr.Name = name
	rr.Type = binary.BigEndian.Uint16(data[off : off+2])
	rr.Class = binary.BigEndian.Uint16(data[off+2 : off+4])
	rr.TTL = binary.BigEndian.Uint32(data[off+4 : off+8])
	rdLen := int(binary.BigEndian.Uint16(data[off+8 : off+10]))

	rdStart := off + 10
	if rdStart+rdLen > len(data) {
		return rr, 0, fmt.Errorf("wire: rdata truncated for %q", rr.Name)
	}

	switch rr.Type {
	case TypeA:
		if rdLen != 4 {
			return rr, 0, fmt.Errorf("wire: A rdata has %d bytes, want 4", rdLen)
		}
		rr.Addr = net.IP(append([]byte(nil), data[rdStart:rdStart+4]...))
	case TypeNS, TypeCNAME:
		// The rdata name may contain a compression pointer into the full
		// message, so it must be decoded here rather than kept raw.
		host, _, err := unpackName(data, rdStart)
		if err != nil {
			return rr, 0, err
		}
		rr.Host = host
	default:
		rr.Data = append([]byte(nil), data[rdStart:rdStart+rdLen]...)
	}

	return rr, rdStart + rdLen, nil
}

// unpackName decodes a possibly-compressed domain name starting at off and
// returns the name plus the offset just past its in-place encoding.
func unpackName(data []byte, off int) (string, int, error) {
	var sb strings.Builder
	jumps := 0
	next := -1

	for {
		if off >= len(data) {
			return "", 0, fmt.Errorf("wire: name runs past end of message")
		}
		b := int(data[off])
		switch {
		case b == 0:
			if next < 0 {
				next = off + 1
			}
			return sb.String(), next, nil

		case b&0xC0 == 0xC0:
			if off+1 >= len(data) {
				return "", 0, fmt.Errorf("wire: truncated compression pointer")
			}
			jumps++
			if jumps > maxPointerJumps {
				return "", 0, fmt.Errorf("wire: compression pointer loop")
			}
			if next < 0 {
				next = off + 2
			}
			off = (b&0x3F)<<8 | int(data[off+1])

		case b&0xC0 != 0:
			return "", 0, fmt.Errorf("wire: reserved label type 0x%02x", b&0xC0)

		default:
			if off+1+b > len(data) {
				return "", 0, fmt.Errorf("wire: label runs past end of message")
			}
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.Write(data[off+1 : off+1+b])
			if sb.Len() > maxNameLen {
				return "", 0, fmt.Errorf("wire: name exceeds %d bytes", maxNameLen)
			}
			off += 1 + b
		}
	}
}

func appendName(buf []byte, name string) ([]byte, error) {
	name = strings.TrimSuffix(name, ".")
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("wire: name %q exceeds %d bytes", name, maxNameLen)
	}
	if name != "" {
		for _, label := range strings.Split(name, ".") {
			if label == "" {
				return nil, fmt.Errorf("wire: empty label in name %q", name)
			}
			if len(label) > maxLabelLen {
				return nil, fmt.Errorf("wire: label %q exceeds %d bytes", label, maxLabelLen)
			}
			buf = append(buf, byte(len(label)))
			buf = append(buf, label...)
		}
	}
	return append(buf, 0), nil
}

func appendRR(buf []byte, rr *ResourceRecord) ([]byte, error) {
	buf, err := appendName(buf, rr.Name)
	if err != nil {
		return nil, err
	}
	buf = binary.BigEndian.AppendUint16(buf, rr.Type)
	buf = binary.BigEndian.AppendUint16(buf, rr.Class)
	buf = binary.BigEndian.AppendUint32(buf, rr.TTL)

	var rdata []byte
	switch rr.Type {
	case TypeA:
		ip4 := rr.Addr.To4()
		if ip4 == nil {
			return nil, fmt.Errorf("wire: A record %q has no IPv4 address", rr.Name)
		}
		rdata = ip4
	case TypeNS, TypeCNAME:
		if rdata, err = appendName(nil, rr.Host); err != nil {
			return nil, err
		}
	default:
		rdata = rr.Data
	}

	if len(rdata) > 0xFFFF {
		return nil, fmt.Errorf("wire: rdata for %q exceeds 65535 bytes", rr.Name)
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(rdata)))
	return append(buf, rdata...), nil
}
