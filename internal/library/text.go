package library

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoder turns bytes that are not valid UTF-8 into text.
type Decoder struct {
	enc encoding.Encoding
}

// NewDecoder returns a decoder for the named legacy encoding: "gbk",
// "shift_jis" or "" for none.
func NewDecoder(name string) (*Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "":
		return &Decoder{}, nil
	case "gbk":
		return &Decoder{enc: simplifiedchinese.GBK}, nil
	case "gb18030":
		return &Decoder{enc: simplifiedchinese.GB18030}, nil
	case "shift_jis", "sjis":
		return &Decoder{enc: japanese.ShiftJIS}, nil
	case "euc_jp":
		return &Decoder{enc: japanese.EUCJP}, nil
	default:
		return nil, fmt.Errorf("unsupported fallback encoding %q", name)
	}
}

// Decode returns data as UTF-8 text. A UTF-8 BOM is stripped; data that
// is not valid UTF-8 is decoded with the fallback encoding.
func (d *Decoder) Decode(data []byte) (string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}
	if utf8.Valid(data) || d.enc == nil {
		return string(data), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), d.enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// ReadText reads the file at path as text.
func (d *Decoder) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := d.Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return text, nil
}
