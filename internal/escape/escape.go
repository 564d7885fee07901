package escape

import "strings"

// MaxLength is the longest identifier GAMS accepts.
const MaxLength = 59

var transliterations = strings.NewReplacer(
	"Ä", "AE",
	"Ö", "OE",
	"Ü", "UE",
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Identifier turns a model symbol into a valid GAMS identifier.
func Identifier(name string) string {
	name = transliterations.Replace(name)

	var sb strings.Builder
	for _, r := range name {
		if isIdentRune(r) {
			sb.WriteRune(r)
		}
	}
	s := sb.String()

	if len(s) > MaxLength {
		s = strings.Map(func(r rune) rune {
			switch r {
			case 'a', 'e', 'i', 'o', 'u':
				return -1
			}
			return r
		}, s)
	}

	if len(s) > MaxLength {
		s = s[:MaxLength]
	}

	return s
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
