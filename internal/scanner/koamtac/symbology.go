package koamtac

import "strings"

// Symbology identifies a barcode type
type Symbology int

const (
	SymbologyUnknown Symbology = iota
	SymbologyCode39
	SymbologyCode128
	SymbologyGS1128
	SymbologyEAN8
	SymbologyEAN13
	SymbologyUPCA
	SymbologyUPCE
	SymbologyCodabar
	SymbologyInterleaved2of5
	SymbologyCode93
	SymbologyGS1DataBar
	SymbologyPDF417
	SymbologyQRCode
	SymbologyDataMatrix
	SymbologyAztec
	SymbologyMaxiCode
)

var symbologyNames = map[Symbology]string{
	SymbologyUnknown:         "Unknown",
	SymbologyCode39:          "Code 39",
	SymbologyCode128:         "Code 128",
	SymbologyGS1128:          "GS1-128",
	SymbologyEAN8:            "EAN-8",
	SymbologyEAN13:           "EAN-13",
	SymbologyUPCA:            "UPC-A",
	SymbologyUPCE:            "UPC-E",
	SymbologyCodabar:         "Codabar",
	SymbologyInterleaved2of5: "Interleaved 2 of 5",
	SymbologyCode93:          "Code 93",
	SymbologyGS1DataBar:      "GS1 DataBar",
	SymbologyPDF417:          "PDF417",
	SymbologyQRCode:          "QR Code",
	SymbologyDataMatrix:      "Data Matrix",
	SymbologyAztec:           "Aztec",
	SymbologyMaxiCode:        "MaxiCode",
}

// Name returns the display name
func (s Symbology) Name() string {
	if n, ok := symbologyNames[s]; ok {
		return n
	}
	return symbologyNames[SymbologyUnknown]
}

func (s Symbology) String() string { return s.Name() }

// aimCodes maps the code character of an AIM identifier ("]Xm") to a
// symbology.
var aimCodes = map[byte]Symbology{
	'A': SymbologyCode39,
	'C': SymbologyCode128,
	'E': SymbologyEAN13,
	'F': SymbologyCodabar,
	'G': SymbologyCode93,
	'I': SymbologyInterleaved2of5,
	'L': SymbologyPDF417,
	'Q': SymbologyQRCode,
	'U': SymbologyMaxiCode,
	'd': SymbologyDataMatrix,
	'e': SymbologyGS1DataBar,
	'z': SymbologyAztec,
}

// ParseAIM splits an AIM prefixed record into payload and symbology. Records
// without a prefix are returned whole as SymbologyUnknown.
func ParseAIM(record string) Data {
	if len(record) < 3 || record[0] != ']' {
		return Data{Barcode: record, Symbology: SymbologyUnknown}
	}
	code, modifier := record[1], record[2]
	payload := record[3:]

	sym, ok := aimCodes[code]
	if !ok {
		return Data{Barcode: payload, Symbology: SymbologyUnknown}
	}
	switch {
	case sym == SymbologyCode128 && modifier == '1':
		sym = SymbologyGS1128
	case sym == SymbologyEAN13 && modifier == '4':
		sym = SymbologyEAN8
	case sym == SymbologyEAN13 && len(payload) == 12 && isDigits(payload):
		sym = SymbologyUPCA
	case sym == SymbologyEAN13 && len(payload) == 8 && strings.HasPrefix(payload, "0"):
		sym = SymbologyUPCE
	}
	return Data{Barcode: payload, Symbology: sym}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
