package resolve

import (
	"regexp"
	"strings"
)

// titlePrefixRe matches boilerplate that opens a conference-call video title.
// Word prefixes need a separator ("Live:", "Webinar |") so that names like
// "Live Healthcare" survive; "#", quarter codes and "Deleted on <date>" may be
// followed by a bare space.
var titlePrefixRe = regexp.MustCompile(`(?i)^(?:#+\s*` +
	`|(?:q\d\s*fy\s*\d{2,4}|deleted\s+on(?:\s+\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})?)(?:\s*[:|]\s*|\s+-\s+|\s+)` +
	`|(?:earnings\s+call|live|management\s+call|press\s+conference|webinar)(?:\s*[:|]\s*|\s+-\s+))`)

// titleSuffixRe captures the candidate name ahead of the first marker that
// ends it.
var titleSuffixRe = regexp.MustCompile(`(?i)^(.+?)(?:\s+earnings\s+call|\s+q&a|\s*:|\s+investor\s+call|\s+conference\s+call|\s+webinar|\s+business\s+update|\s+management\s+call|\s+press\s+conference|\s+analyst\s+meet(?:ing)?|\s+ipo\b|\s+\||\s+capital\s+markets\s+day|\s+call\s+with|\s+call\s+between|\s+for\s+q\d|\s+[-–]\s+)`)

var (
	partRe          = regexp.MustCompile(`(?i)\s+part\s+\d+:?`)
	trailingAbbrRe  = regexp.MustCompile(`\s*\([A-Z0-9&.]+\)$`)
	corporateTailRe = regexp.MustCompile(`(?i)[\s,]+(?:pvt\.?\s+ltd\.?|private\s+limited|ltd\.?|limited)$`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// CleanTitle extracts a candidate company name from a video or document
// title. It strips leading boilerplate ("Q3FY24", "Earnings Call:"), keeps the
// text before the first suffix marker ("Conference Call", "Q&A"), then drops
// corporate suffixes and trailing ticker abbreviations. The cleaning repeats
// until nothing changes, so CleanTitle(CleanTitle(s)) == CleanTitle(s).
// It never consults a reference table.
func CleanTitle(title string) string {
	s := squash(title)
	for {
		next := cleanOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func cleanOnce(s string) string {
	for {
		stripped := strings.TrimSpace(titlePrefixRe.ReplaceAllString(s, ""))
		if stripped == s {
			break
		}
		s = stripped
	}
	if m := titleSuffixRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = partRe.ReplaceAllString(s, "")
	s = trailingAbbrRe.ReplaceAllString(s, "")
	s = corporateTailRe.ReplaceAllString(s, "")
	return squash(strings.Trim(s, " -–|,:"))
}

func squash(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
