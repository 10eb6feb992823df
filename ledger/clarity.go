package ledger

import (
	"encoding/binary"
	"fmt"
)

// Wire type tags of the Clarity value serialization format.
// cfr. SIP-005, "Clarity value representation".
const (
	tagInt               = 0x00
	tagUint              = 0x01
	tagBuffer            = 0x02
	tagBoolTrue          = 0x03
	tagBoolFalse         = 0x04
	tagPrincipalStandard = 0x05
	tagPrincipalContract = 0x06
	tagResponseOk        = 0x07
	tagResponseErr       = 0x08
	tagOptionalNone      = 0x09
	tagOptionalSome      = 0x0a
	tagList              = 0x0b
	tagTuple             = 0x0c
	tagStringASCII       = 0x0d
	tagStringUTF8        = 0x0e
)

type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindUint
	KindBool
	KindBuffer
	KindPrincipal
	KindString
	KindSome
	KindOk
	KindErr
	KindList
	KindTuple
)

// RawRecord is one node of the ledger's weakly-typed value tree. Optional
// fields carry an explicit some/none discriminant (KindSome/KindNone) that
// must be checked through UnwrapOptional, not just nil-checked.
type RawRecord struct {
	Kind   Kind
	Uint   uint64
	Bool   bool
	Str    string // strings and principals
	Bytes  []byte
	Inner  *RawRecord // some / ok / err payload
	Items  []*RawRecord
	Fields map[string]*RawRecord
}

// Field returns the named tuple field, or nil. Safe on nil receivers and
// non-tuple nodes so decoders can chain lookups without guards.
func (r *RawRecord) Field(name string) *RawRecord {
	if r == nil || r.Kind != KindTuple {
		return nil
	}
	return r.Fields[name]
}

// UnwrapOptional collapses the some/none discriminant: none becomes nil,
// some becomes its payload, and any non-optional node passes through as-is.
func (r *RawRecord) UnwrapOptional() *RawRecord {
	if r == nil || r.Kind == KindNone {
		return nil
	}
	if r.Kind == KindSome {
		return r.Inner
	}
	return r
}

// UnwrapOk returns the payload of an (ok ...) response, nil otherwise.
func (r *RawRecord) UnwrapOk() *RawRecord {
	if r == nil || r.Kind != KindOk {
		return nil
	}
	return r.Inner
}

func (r *RawRecord) UintValue() (uint64, bool) {
	if r == nil || r.Kind != KindUint {
		return 0, false
	}
	return r.Uint, true
}

func (r *RawRecord) StringValue() (string, bool) {
	if r == nil || (r.Kind != KindString && r.Kind != KindPrincipal) {
		return "", false
	}
	return r.Str, true
}

func (r *RawRecord) IsNone() bool {
	return r == nil || r.Kind == KindNone
}

// ParseClarityValue deserializes one wire-encoded value. Trailing bytes are
// an error, a record is either fully well-formed or rejected.
func ParseClarityValue(data []byte) (*RawRecord, error) {
	rd := &clarityReader{buf: data}
	rec, err := rd.readValue(0)
	if err != nil {
		return nil, err
	}
	if rd.pos != len(rd.buf) {
		return nil, fmt.Errorf("clarity value has %d trailing bytes", len(rd.buf)-rd.pos)
	}
	return rec, nil
}

const maxClarityDepth = 32

type clarityReader struct {
	buf []byte
	pos int
}

func (rd *clarityReader) readValue(depth int) (*RawRecord, error) {
	if depth > maxClarityDepth {
		return nil, fmt.Errorf("clarity value nested deeper than %d", maxClarityDepth)
	}
	tag, err := rd.readByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagInt:
		// int128; only the wire width is consumed, the value is unused here
		if _, err := rd.readBytes(16); err != nil {
			return nil, err
		}
		return &RawRecord{Kind: KindInt}, nil
	case tagUint:
		raw, err := rd.readBytes(16)
		if err != nil {
			return nil, err
		}
		for _, b := range raw[:8] {
			if b != 0 {
				return nil, fmt.Errorf("uint value overflows 64 bits")
			}
		}
		return &RawRecord{Kind: KindUint, Uint: binary.BigEndian.Uint64(raw[8:])}, nil
	case tagBuffer:
		n, err := rd.readLen()
		if err != nil {
			return nil, err
		}
		b, err := rd.readBytes(n)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		copy(buf, b)
		return &RawRecord{Kind: KindBuffer, Bytes: buf}, nil
	case tagBoolTrue:
		return &RawRecord{Kind: KindBool, Bool: true}, nil
	case tagBoolFalse:
		return &RawRecord{Kind: KindBool, Bool: false}, nil
	case tagPrincipalStandard:
		addr, err := rd.readStandardPrincipal()
		if err != nil {
			return nil, err
		}
		return &RawRecord{Kind: KindPrincipal, Str: addr}, nil
	case tagPrincipalContract:
		addr, err := rd.readStandardPrincipal()
		if err != nil {
			return nil, err
		}
		name, err := rd.readShortString()
		if err != nil {
			return nil, err
		}
		return &RawRecord{Kind: KindPrincipal, Str: addr + "." + name}, nil
	case tagResponseOk, tagResponseErr:
		inner, err := rd.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		kind := KindOk
		if tag == tagResponseErr {
			kind = KindErr
		}
		return &RawRecord{Kind: kind, Inner: inner}, nil
	case tagOptionalNone:
		return &RawRecord{Kind: KindNone}, nil
	case tagOptionalSome:
		inner, err := rd.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		return &RawRecord{Kind: KindSome, Inner: inner}, nil
	case tagList:
		n, err := rd.readLen()
		if err != nil {
			return nil, err
		}
		items := make([]*RawRecord, 0, n)
		for i := 0; i < n; i++ {
			item, err := rd.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return &RawRecord{Kind: KindList, Items: items}, nil
	case tagTuple:
		n, err := rd.readLen()
		if err != nil {
			return nil, err
		}
		fields := make(map[string]*RawRecord, n)
		for i := 0; i < n; i++ {
			name, err := rd.readShortString()
			if err != nil {
				return nil, err
			}
			value, err := rd.readValue(depth + 1)
			if err != nil {
				return nil, err
			}
			fields[name] = value
		}
		return &RawRecord{Kind: KindTuple, Fields: fields}, nil
	case tagStringASCII, tagStringUTF8:
		n, err := rd.readLen()
		if err != nil {
			return nil, err
		}
		b, err := rd.readBytes(n)
		if err != nil {
			return nil, err
		}
		return &RawRecord{Kind: KindString, Str: string(b)}, nil
	default:
		return nil, fmt.Errorf("unknown clarity type tag 0x%02x", tag)
	}
}

func (rd *clarityReader) readByte() (byte, error) {
	if rd.pos >= len(rd.buf) {
		return 0, fmt.Errorf("clarity value truncated at offset %d", rd.pos)
	}
	b := rd.buf[rd.pos]
	rd.pos++
	return b, nil
}

func (rd *clarityReader) readBytes(n int) ([]byte, error) {
	if rd.pos+n > len(rd.buf) {
		return nil, fmt.Errorf("clarity value truncated at offset %d", rd.pos)
	}
	b := rd.buf[rd.pos : rd.pos+n]
	rd.pos += n
	return b, nil
}

func (rd *clarityReader) readLen() (int, error) {
	b, err := rd.readBytes(4)
	if err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(b)
	if int(n) > len(rd.buf)-rd.pos {
		return 0, fmt.Errorf("clarity length %d exceeds remaining input", n)
	}
	return int(n), nil
}

// readShortString reads a 1-byte-length-prefixed clarity name.
func (rd *clarityReader) readShortString() (string, error) {
	n, err := rd.readByte()
	if err != nil {
		return "", err
	}
	b, err := rd.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (rd *clarityReader) readStandardPrincipal() (string, error) {
	version, err := rd.readByte()
	if err != nil {
		return "", err
	}
	hash, err := rd.readBytes(20)
	if err != nil {
		return "", err
	}
	return c32Address(version, hash), nil
}

// Serialization of read-only call arguments. Only the argument types the
// contract's read interface takes are needed here.

func EncodeUint(v uint64) []byte {
	out := make([]byte, 17)
	out[0] = tagUint
	binary.BigEndian.PutUint64(out[9:], v)
	return out
}

func EncodeStringASCII(s string) []byte {
	out := make([]byte, 0, 5+len(s))
	out = append(out, tagStringASCII)
	out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}

func EncodeBuffer(b []byte) []byte {
	out := make([]byte, 0, 5+len(b))
	out = append(out, tagBuffer)
	out = binary.BigEndian.AppendUint32(out, uint32(len(b)))
	return append(out, b...)
}

// Constructors for building records in process, used by tests and by the
// payment submission path.

func UintRecord(v uint64) *RawRecord   { return &RawRecord{Kind: KindUint, Uint: v} }
func StringRecord(s string) *RawRecord { return &RawRecord{Kind: KindString, Str: s} }
func PrincipalRecord(s string) *RawRecord {
	return &RawRecord{Kind: KindPrincipal, Str: s}
}
func NoneRecord() *RawRecord             { return &RawRecord{Kind: KindNone} }
func SomeRecord(r *RawRecord) *RawRecord { return &RawRecord{Kind: KindSome, Inner: r} }
func OkRecord(r *RawRecord) *RawRecord   { return &RawRecord{Kind: KindOk, Inner: r} }
func TupleRecord(fields map[string]*RawRecord) *RawRecord {
	return &RawRecord{Kind: KindTuple, Fields: fields}
}
