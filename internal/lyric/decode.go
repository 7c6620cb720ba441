package lyric

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw caption file bytes to text. A byte order mark always wins
// (UTF-8, UTF-16 LE/BE). Without one the named encoding is used, or UTF-8 when
// name is empty. Invalid UTF-8 is replaced with U+FFFD rather than rejected.
func Decode(data []byte, name string) (string, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}

	decoder := unicode.BOMOverride(enc.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode caption text: %w", err)
	}
	return string(out), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// ValidEncoding reports whether name can be passed to Decode.
func ValidEncoding(name string) bool {
	_, err := lookupEncoding(name)
	return err == nil
}
