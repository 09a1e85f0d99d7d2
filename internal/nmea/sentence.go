package nmea

import (
	"errors"
	"fmt"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"
)

// ErrParse marks a sentence that was recognised but could not be decoded.
var ErrParse = errors.New("nmea: parse failure")

// Envelope is one sentence split into its parts.
type Envelope struct {
	Talker string // e.g. "GP"
	Type   string // e.g. "GGA"
	// Fields is the comma-split payload (excluding '$' and checksum).
	// Fields[0] is the talker+type field so indices follow NMEA numbering.
	Fields []string
}

// Split breaks a raw line into an Envelope. Lines that do not start with '$'
// followed by a two-character talker and a three-character type yield an
// empty Envelope and no error. A checksum suffix, when present, must match.
func Split(line string) (Envelope, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Envelope{}, nil
	}

	payload := line[1:]
	if star := strings.LastIndexByte(payload, '*'); star != -1 {
		want := strings.ToUpper(strings.TrimSpace(payload[star+1:]))
		payload = payload[:star]
		if got := gonmea.Checksum(payload); want != got {
			return Envelope{}, fmt.Errorf("%w: checksum %q, computed %q", ErrParse, want, got)
		}
	}

	parts := strings.Split(payload, ",")
	head := parts[0]
	if len(head) != 5 || !isAlnum(head) {
		return Envelope{}, nil
	}
	return Envelope{
		Talker: head[:2],
		Type:   strings.ToUpper(head[2:]),
		Fields: parts,
	}, nil
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
