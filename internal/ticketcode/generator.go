// Package ticketcode issues human-readable ticket codes and the QR artifacts
// printed on tickets.
package ticketcode

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
)

const (
	codePrefix     = "TICKET"
	suffixLength   = 10
	suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	qrSize         = 300
	dataURLPrefix  = "data:image/png;base64,"
)

// maxDrawsPerTicket bounds how many codes Generate draws per requested
// ticket before giving up on an entropy source that keeps repeating.
const maxDrawsPerTicket = 8

// rejectAbove is the largest multiple of len(suffixAlphabet) that fits in a
// byte. Bytes at or above it are discarded so every symbol is equally likely.
const rejectAbove = 256 - 256%len(suffixAlphabet)

// ErrEntropyExhausted is returned when the entropy source does not yield
// enough distinct codes.
var ErrEntropyExhausted = errors.New("ticket code entropy exhausted")

// Issued is a freshly generated ticket code with its rendered artifact.
type Issued struct {
	Code    string
	Payload string
	PNG     []byte
}

// DataURL is the form stored alongside the ticket row.
func (i Issued) DataURL() string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(i.PNG)
}

type Generator struct {
	clock   clock.Clock
	entropy io.Reader
	level   qrcode.RecoveryLevel
}

type Option func(*Generator)

// WithEntropy replaces crypto/rand as the source of code suffixes.
func WithEntropy(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.entropy = r
		}
	}
}

func NewGenerator(clk clock.Clock, opts ...Option) *Generator {
	g := &Generator{
		clock:   clk,
		entropy: rand.Reader,
		level:   qrcode.Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns count tickets for the given event title. Codes within a
// batch are distinct; store-level uniqueness is enforced by the caller.
func (g *Generator) Generate(count int, eventTitle string) ([]Issued, error) {
	if count < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	now := g.clock.Now()
	seen := make(map[string]struct{}, count)
	out := make([]Issued, 0, count)
	for draws := 0; len(out) < count; draws++ {
		if draws >= count*maxDrawsPerTicket {
			return nil, fmt.Errorf("%w: %d of %d codes after %d draws", ErrEntropyExhausted, len(out), count, draws)
		}
		code, err := g.newCode(now)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		payload := Payload(code, eventTitle, now)
		png, err := qrcode.Encode(payload, g.level, qrSize)
		if err != nil {
			return nil, fmt.Errorf("render qr for %s: %w", code, err)
		}
		out = append(out, Issued{Code: code, Payload: payload, PNG: png})
	}
	return out, nil
}

func (g *Generator) newCode(now time.Time) (string, error) {
	var sb strings.Builder
	sb.Grow(len(codePrefix) + 10 + suffixLength)
	sb.WriteString(codePrefix)
	sb.WriteByte('-')
	sb.WriteString(now.UTC().Format("20060102"))
	sb.WriteByte('-')

	for need, rounds := suffixLength, 0; need > 0; rounds++ {
		if rounds == maxDrawsPerTicket {
			return "", fmt.Errorf("%w: no usable bytes", ErrEntropyExhausted)
		}
		buf := make([]byte, need)
		if _, err := io.ReadFull(g.entropy, buf); err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			sb.WriteByte(suffixAlphabet[int(b)%len(suffixAlphabet)])
			need--
		}
	}
	return sb.String(), nil
}

// Payload is the string encoded in a ticket's QR code.
func Payload(code, eventTitle string, issuedAt time.Time) string {
	return code + "|" + eventTitle + "|" + issuedAt.UTC().Format(time.RFC3339)
}

// DecodeDataURL returns the PNG bytes behind a stored artifact.
func DecodeDataURL(dataURL string) ([]byte, error) {
	raw, ok := strings.CutPrefix(dataURL, dataURLPrefix)
	if !ok {
		_, raw, ok = strings.Cut(dataURL, ",")
		if !ok {
			raw = dataURL
		}
	}
	png, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return png, nil
}
