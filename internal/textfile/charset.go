package textfile

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// sampleSize bounds how much of a file charset detection reads
	sampleSize = 64 * 1024
	// detectTimeout bounds how long charset detection may read
	detectTimeout = time.Second
)

// Charset decodes raw line bytes into strings.
type Charset struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// UTF8 is the default charset
var UTF8 = Charset{name: "utf-8"}

// LookupCharset resolves a WHATWG encoding label such as "shift_jis".
func LookupCharset(label string) (Charset, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return Charset{}, err
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}
	if name == "utf-8" {
		return UTF8, nil
	}
	return Charset{name: name, enc: enc}, nil
}

// Name returns the canonical encoding name
func (c Charset) Name() string {
	if c.name == "" {
		return UTF8.name
	}
	return c.name
}

// Decode converts raw bytes to a string. Undecodable input is replaced
// rather than reported.
func (c Charset) Decode(b []byte) string {
	if c.enc == nil {
		return string(b)
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// DetectOptions tunes DetectCharset.
type DetectOptions struct {
	// Fallback replaces the single-byte guess for samples that are neither
	// ASCII nor valid UTF-8. Zero value keeps the guess.
	Fallback *Charset
	// Now is the time source for the detection deadline
	Now func() time.Time
}

// DetectCharset guesses the charset of the file behind r from a sample read
// at file start. ASCII-only and valid UTF-8 samples yield UTF-8. The cursor
// is restored before returning; read errors degrade to UTF-8.
func DetectCharset(r *ByteReader, opts DetectOptions) Charset {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := r.Stream()
	defer s.Reset()

	if _, err := r.Seek(0); err != nil {
		return UTF8
	}
	deadline := now().Add(detectTimeout)
	sample := make([]byte, 0, DefaultBufferSize)
	chunk := make([]byte, DefaultBufferSize)
	for len(sample) < sampleSize && now().Before(deadline) {
		n, err := s.Read(chunk)
		sample = append(sample, chunk[:n]...)
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return UTF8
		}
	}
	return classify(sample, opts.Fallback)
}

func classify(sample []byte, fallback *Charset) Charset {
	if isASCII(sample) {
		return UTF8
	}
	if validUTF8Prefix(sample) {
		return UTF8
	}
	enc, name, certain := charset.DetermineEncoding(sample, "text/plain")
	if !certain && fallback != nil {
		return *fallback
	}
	if name == "utf-8" || enc == nil {
		return UTF8
	}
	return Charset{name: name, enc: enc}
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// validUTF8Prefix tolerates a rune cut in half at the end of the sample.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return utf8.Valid(b)
}
