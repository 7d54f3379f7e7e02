package assembler

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/unicode"
)

// writeObject serializes a parsed object back into PDF syntax. Dictionary
// keys are sorted so rewritten objects are reproducible.
func writeObject(buf *bytes.Buffer, o types.Object) {
	switch v := o.(type) {
	case nil:
		buf.WriteString("null")
	case types.Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case types.Integer:
		buf.WriteString(strconv.Itoa(int(v)))
	case types.Float:
		buf.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 64))
	case types.Name:
		buf.WriteString(name(string(v)))
	case types.StringLiteral:
		buf.WriteString("(" + string(v) + ")")
	case types.HexLiteral:
		buf.WriteString("<" + string(v) + ">")
	case types.IndirectRef:
		fmt.Fprintf(buf, "%d %d R", v.ObjectNumber, v.GenerationNumber)
	case *types.IndirectRef:
		fmt.Fprintf(buf, "%d %d R", v.ObjectNumber, v.GenerationNumber)
	case types.Dict:
		writeDict(buf, v)
	case types.Array:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, e)
		}
		buf.WriteByte(']')
	default:
		buf.WriteString(o.PDFString())
	}
}

func writeDict(buf *bytes.Buffer, d types.Dict) {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteString("<<")
	for _, k := range keys {
		buf.WriteString(name(k))
		buf.WriteByte(' ')
		writeObject(buf, d[k])
	}
	buf.WriteString(">>")
}

// name encodes a PDF name. '#' sequences are taken as already encoded.
func name(s string) string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x21 || c > 0x7e || strings.IndexByte("()<>[]{}/%", c) >= 0 {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

var utf16BOM = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// textString encodes s as a PDF text string: a literal for printable
// ASCII, UTF-16BE with byte order mark otherwise.
func textString(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return "(" + r.Replace(s) + ")"
	}

	enc, err := utf16BOM.NewEncoder().String(s)
	if err != nil {
		return "()"
	}
	return fmt.Sprintf("<%X>", enc)
}

// text decodes a string object into Go text
func text(o types.Object) string {
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return string(v)
		}
		return s
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return ""
		}
		return s
	case types.Name:
		return string(v)
	}
	return ""
}
