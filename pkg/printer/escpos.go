package printer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gosimple/unidecode"
)

// ESC/POS control bytes
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Alignment values for ESC a.
const (
	AlignLeft   = 0
	AlignCenter = 1
)

// Character sizes for GS !.
const (
	FontNormal = 0x00
	FontDouble = 0x11
)

// DefaultWidth is the character width of 58mm paper.
const DefaultWidth = 32

// Document builds an ESC/POS byte stream for a thermal ticket. Text is
// transliterated to ASCII since the printer code page is unknown.
type Document struct {
	buf   bytes.Buffer
	width int
}

// ASCII transliterates s, e.g. "Jalapeño" -> "Jalapeno".
func ASCII(s string) string {
	return unidecode.Unidecode(s)
}

// NewDocument starts a ticket charWidth characters wide (32 for 58mm paper,
// 48 for 80mm).
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = DefaultWidth
	}
	d := &Document{width: charWidth}
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// Width is the line width in characters.
func (d *Document) Width() int { return d.width }

// FeedLines sends n line feeds.
func (d *Document) FeedLines(n int) *Document {
	d.buf.Write(bytes.Repeat([]byte{LF}, n))
	return d
}

func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

func (d *Document) SetBold(on bool) *Document {
	var b byte
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

func (d *Document) SetFontSize(size byte) *Document {
	d.buf.Write([]byte{GS, '!', size})
	return d
}

// Text writes s on its own line.
func (d *Document) Text(s string) *Document {
	return d.line(ASCII(s))
}

// TextF is Text with fmt formatting.
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Separator fills one line with char.
func (d *Document) Separator(char byte) *Document {
	return d.line(strings.Repeat(string(char), d.width))
}

// KeyValue prints key on the left and value flush right.
func (d *Document) KeyValue(key, value string) *Document {
	return d.row(ASCII(key), ASCII(value))
}

// ItemLine prints "qty name" on the left and total flush right. The name is
// cut when both do not fit.
func (d *Document) ItemLine(qty, name, total string) *Document {
	total = ASCII(total)
	left := ASCII(qty + " " + name)
	if room := d.width - len(total) - 1; room > 0 && len(left) > room {
		left = left[:room]
	}
	return d.row(left, total)
}

// PartialCut leaves a hinge so the ticket does not fall.
func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

func (d *Document) row(left, right string) *Document {
	gap := d.width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return d.line(left + strings.Repeat(" ", gap) + right)
}

func (d *Document) line(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(LF)
	return d
}
