package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// headingLookahead bounds how far into a chunk a heading may start.
const headingLookahead = 100

var (
	nextChunkPattern = regexp.MustCompile(`self\.__next_f\.push\(\[1,"(.+?)"\]\)</script>`)
	imagePattern     = regexp.MustCompile(`!\[[^\]]*\]\((?:\\.|[^)\\])*\)`)
	emptyLinkPattern = regexp.MustCompile(`\[\]\([^)]+\)`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	payloadUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t", `\"`, `"`, `\'`, `'`)
)

// PayloadStrategy reads the markdown article streamed inside inline
// self.__next_f.push([1,"..."]) script chunks.
type PayloadStrategy struct {
	internalLink *regexp.Regexp
}

// NewPayloadStrategy creates a payload strategy. Links pointing at
// sourceSite are reduced to their link text.
func NewPayloadStrategy(sourceSite string) PayloadStrategy {
	site := regexp.QuoteMeta(strings.ToLower(strings.TrimSpace(sourceSite)))
	pattern := fmt.Sprintf(`\[([^\]]+)\]\(https?://(?:www\.)?%s/[^)]*\)`, site)
	return PayloadStrategy{internalLink: regexp.MustCompile(pattern)}
}

func (PayloadStrategy) Name() string { return "payload" }

func (s PayloadStrategy) Extract(raw []byte, _ string) (Result, bool) {
	chunk, ok := articleChunk(string(raw))
	if !ok {
		return Result{}, false
	}

	body := s.clean(payloadUnescaper.Replace(chunk))
	if body == "" {
		return Result{}, false
	}

	return Result{Title: headingTitle(body), Body: body}, true
}

// articleChunk returns the first pushed chunk that looks like a markdown
// article, i.e. starts with a top-level heading or has one near its start.
func articleChunk(raw string) (string, bool) {
	for _, m := range nextChunkPattern.FindAllStringSubmatch(raw, -1) {
		chunk := m[1]
		head := chunk
		if len(head) > headingLookahead {
			head = head[:headingLookahead]
		}
		if strings.HasPrefix(chunk, "# ") || strings.Contains(head, `\n# `) {
			return chunk, true
		}
	}
	return "", false
}

func (s PayloadStrategy) clean(md string) string {
	md = imagePattern.ReplaceAllString(md, "")
	md = emptyLinkPattern.ReplaceAllString(md, "")
	md = dropStrayParens(md)
	md = s.internalLink.ReplaceAllString(md, "$1")
	md = blankRunPattern.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

// dropStrayParens empties lines made only of closing parentheses, which
// image removal leaves behind for URLs with nested parentheses.
func dropStrayParens(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t != "" && strings.Trim(t, ")") == "" {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func headingTitle(md string) string {
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "# ") {
			if t := strings.TrimSpace(line[2:]); t != "" {
				return t
			}
		}
	}
	return UntitledArticle
}
