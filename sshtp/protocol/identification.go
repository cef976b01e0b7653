package protocol

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxIdentificationLength bounds an identification line, CRLF included.
const MaxIdentificationLength = 255

// ProtocolVersion is the only version this implementation speaks.
const ProtocolVersion = "2.0"

var (
	ErrMalformedIdentification = errors.New("protocol: malformed identification")
	ErrIdentificationTooLong   = errors.New("protocol: identification line longer than 255 bytes")
)

// Identification is the version exchange line:
//
//	SSH-protoversion-softwareversion SP comments CR LF
type Identification struct {
	ProtocolVersion string
	SoftwareVersion string
	Comments        string
}

// String is the line without CRLF, as it enters the exchange hash.
func (id Identification) String() string {
	var b bytes.Buffer
	b.WriteString("SSH-")
	b.WriteString(id.ProtocolVersion)
	b.WriteByte('-')
	b.WriteString(id.SoftwareVersion)
	if id.Comments != "" {
		b.WriteByte(' ')
		b.WriteString(id.Comments)
	}
	return b.String()
}

// Line returns the line to send, CRLF included.
func (id Identification) Line() ([]byte, error) {
	if err := id.validate(); err != nil {
		return nil, err
	}
	line := []byte(id.String() + "\r\n")
	if len(line) > MaxIdentificationLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrIdentificationTooLong, len(line))
	}
	return line, nil
}

func (id Identification) validate() error {
	if id.ProtocolVersion == "" || id.SoftwareVersion == "" {
		return fmt.Errorf("%w: empty version", ErrMalformedIdentification)
	}
	if !printable(id.ProtocolVersion, false) || !printable(id.SoftwareVersion, false) {
		return fmt.Errorf("%w: version contains space, dash or control characters", ErrMalformedIdentification)
	}
	if !printable(id.Comments, true) {
		return fmt.Errorf("%w: comments contain control characters", ErrMalformedIdentification)
	}
	return nil
}

// ParseIdentification parses a line with its CRLF already removed.
func ParseIdentification(line []byte) (Identification, error) {
	rest, ok := bytes.CutPrefix(line, []byte("SSH-"))
	if !ok {
		return Identification{}, fmt.Errorf("%w: missing SSH- prefix", ErrMalformedIdentification)
	}
	proto, rest, ok := bytes.Cut(rest, []byte("-"))
	if !ok || len(proto) == 0 {
		return Identification{}, fmt.Errorf("%w: missing protocol version", ErrMalformedIdentification)
	}
	software, comments, _ := bytes.Cut(rest, []byte(" "))
	if len(software) == 0 {
		return Identification{}, fmt.Errorf("%w: missing software version", ErrMalformedIdentification)
	}
	id := Identification{
		ProtocolVersion: string(proto),
		SoftwareVersion: string(software),
		Comments:        string(comments),
	}
	// Remote software versions may contain dashes.
	if !printable(id.ProtocolVersion, false) || !printable(id.Comments, true) ||
		bytes.IndexFunc(software, func(r rune) bool { return r <= ' ' || r > '~' }) >= 0 {
		return Identification{}, fmt.Errorf("%w: invalid characters", ErrMalformedIdentification)
	}
	return id, nil
}

// printable reports whether s is printable US-ASCII. Unless free is set,
// spaces and dashes are rejected too.
func printable(s string, free bool) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < ' ' || c > '~' {
			return false
		}
		if !free && (c == ' ' || c == '-') {
			return false
		}
	}
	return true
}
