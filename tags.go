package loggly

import "regexp"

// TagSet is an ordered sequence of validated tag strings. Duplicates are
// permitted and insertion order is preserved, because the order determines
// how the comma-joined header value and URL path segment are rendered.
type TagSet []string

// maxTagLen bounds accepted tag length; longer candidates are dropped.
const maxTagLen = 64

// tagPattern accepts tags starting with a word character followed by one or
// more word characters, hyphens, or dots.
var tagPattern = regexp.MustCompile(`^\w[\w.-]+$`)

// ResolveTags validates and normalizes free-form tag candidates into a
// TagSet safe to place in a transport header or URL path segment. Invalid
// candidates are silently dropped; valid ones keep their input order.
// ResolveTags is a pure function of its input.
func ResolveTags(candidates ...string) TagSet {
	tags := make(TagSet, 0, len(candidates))
	for i := 0; i < len(candidates); i++ {
		if validTag(candidates[i]) {
			tags = append(tags, candidates[i])
		}
	}
	return tags
}

func validTag(s string) bool {
	return len(s) > 0 && len(s) <= maxTagLen && tagPattern.MatchString(s)
}
