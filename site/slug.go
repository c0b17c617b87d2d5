package site

import (
	"strconv"
	"strings"
	"unicode"

	"docsite/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	indexSlug    = "index"
	fallbackSlug = "untitled"
)

// latinLetters spells out Latin letters that have no canonical
// decomposition, so accent folding alone would drop them.
var latinLetters = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"đ", "d", "Đ", "D",
	"ð", "d", "Ð", "D",
	"þ", "th", "Þ", "TH",
	"ı", "i",
)

// Slug turns a document name into a lowercase ASCII file name stem. Accents
// are folded, letters like ß or ø are spelled out, and every run of other
// characters becomes a single hyphen.
func Slug(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, latinLetters.Replace(name))
	if err != nil {
		folded = latinLetters.Replace(name)
	}

	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	if sb.Len() == 0 {
		return fallbackSlug
	}
	return sb.String()
}

// AssignSlugs returns one unique slug per document, in order. The first
// document to claim a slug keeps it; later ones get -2, -3 and so on. The
// index page's slug is never handed out.
func AssignSlugs(docs []*models.Document) []string {
	taken := map[string]bool{indexSlug: true}
	slugs := make([]string, len(docs))

	for i, doc := range docs {
		base := Slug(doc.Name)
		slug := base
		for n := 2; taken[slug]; n++ {
			slug = base + "-" + strconv.Itoa(n)
		}
		taken[slug] = true
		slugs[i] = slug
	}
	return slugs
}
