package normalize

import (
	"context"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var reNonAlnumRun = regexp.MustCompile(`[^a-z0-9 ]+`)

// Text transliterates s to ASCII, lowercases it and reduces it to
// space-separated alphanumeric tokens.
func Text(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = reNonAlnumRun.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// SimpleAddress reduces raw to "house_number road city" passed through Text.
// Unlike CanonicalAddress it skips expansion and road cleanup, so it is the
// cheaper key for matchers that score whole records at once. A parse failure
// falls back to Text(raw).
func (c *Canonicalizer) SimpleAddress(ctx context.Context, raw string) string {
	comps, err := c.Components(ctx, raw)
	if err != nil {
		c.logger.Warn("address parse failed, using raw address", "address", raw, "error", err)
		return Text(raw)
	}
	return Text(comps.HouseNumber + " " + comps.Road + " " + comps.City)
}
