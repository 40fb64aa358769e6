package bookfeed

import (
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// The feed is treated as text: items are located by their <item> blocks and
// each field is pulled out with its own pattern, so a malformed sibling or an
// unknown namespace never aborts the whole document.
var (
	itemPattern         = regexp.MustCompile(`(?s)<item>(.*?)</item>`)
	idPattern           = regexp.MustCompile(`(?s)<g:id>(.*?)</g:id>`)
	titlePattern        = regexp.MustCompile(`(?s)<g:title>(.*?)</g:title>`)
	imagePattern        = regexp.MustCompile(`(?s)<g:image_link>(.*?)</g:image_link>`)
	linkPattern         = regexp.MustCompile(`(?s)<g:link>(.*?)</g:link>`)
	availabilityPattern = regexp.MustCompile(`(?s)<g:availability>(.*?)</g:availability>`)
	pricePattern        = regexp.MustCompile(`(?s)<g:price>(.*?)\s*PLN\s*</g:price>`)
)

// Parse extracts feed items in document order. Items lacking an id or a title
// are skipped; every other missing field falls back to its default.
func Parse(doc []byte) []Item {
	blocks := itemPattern.FindAllSubmatch(doc, -1)
	items := make([]Item, 0, len(blocks))

	skipped := 0
	for _, b := range blocks {
		block := b[1]

		it := Item{
			ID:           field(idPattern, block),
			Title:        field(titlePattern, block),
			ImageLink:    field(imagePattern, block),
			Link:         field(linkPattern, block),
			Availability: field(availabilityPattern, block),
			Price:        parsePrice(field(pricePattern, block)),
		}
		if it.ID == "" || it.Title == "" {
			skipped++
			continue
		}
		if it.Availability == "" {
			it.Availability = DefaultAvailability
		}
		items = append(items, it)
	}

	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Int("items", len(items)).Msg("feed items without id or title skipped")
	}
	return items
}

// field returns the trimmed, CDATA-unwrapped text of the first match of p.
func field(p *regexp.Regexp, block []byte) string {
	m := p.FindSubmatch(block)
	if m == nil {
		return ""
	}
	return unwrapText(string(m[1]))
}

// unwrapText strips a CDATA section (including the commented <!--[CDATA[ form
// some exporters emit) or, for plain text, decodes character entities.
func unwrapText(s string) string {
	s = strings.TrimSpace(s)
	for _, w := range [][2]string{{"<![CDATA[", "]]>"}, {"<!--[CDATA[", "]]-->"}} {
		if strings.HasPrefix(s, w[0]) {
			s = strings.TrimPrefix(s, w[0])
			s = strings.TrimSuffix(s, w[1])
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(html.UnescapeString(s))
}

// parsePrice reads a decimal amount, accepting a comma separator.
// Unparsable or negative values become zero.
func parsePrice(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
