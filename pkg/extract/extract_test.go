package extract

import (
	"errors"
	"strings"
	"testing"
)

const selectorPage = `<!doctype html>
<html>
<head><title>Page Title</title><style>body{color:red}</style></head>
<body>
  <header>Site header</header>
  <nav>Home | About</nav>
  <h1 class="article-title">Go (programming language)</h1>
  <div class="article-content">
    <p>Go is a statically typed language.</p>
    <script>var tracking = true;</script>
    <p>See <a href="https://go.dev/doc">the docs</a>.</p>
  </div>
  <footer>Copyright</footer>
</body>
</html>`

const payloadPage = `<!doctype html>
<html><body>
<script>self.__next_f.push([1,"1:HL[\"/_next/static/css/app.css\",\"style\"]"])</script>
<script>self.__next_f.push([1,"# Go\n\nSome text ![img](https://x.example/y.png) [Link](https://grokipedia.com/page/C) and [Ref](https://nature.com/a)[](https://ref.example/1)\n\n\n\nMore \"quoted\" text"])</script>
</body></html>`

func TestSelectorStrategy(t *testing.T) {
	res, ok := NewSelectorStrategy().Extract([]byte(selectorPage), "https://example.com/go")
	if !ok {
		t.Fatalf("expected selector strategy to succeed")
	}
	if res.Title != "Go (programming language)" {
		t.Fatalf("expected most specific title, got %q", res.Title)
	}
	want := "Go is a statically typed language.\nSee\nthe docs\n."
	if res.Body != want {
		t.Fatalf("unexpected body\ngot:  %q\nwant: %q", res.Body, want)
	}
	if strings.Contains(res.Body, "tracking") {
		t.Fatalf("expected script content to be stripped")
	}
}

func TestSelectorStrategyFallsBackToBody(t *testing.T) {
	page := `<html><body><header>Top</header><p>Only paragraph.</p><footer>Bottom</footer></body></html>`

	res, ok := NewSelectorStrategy().Extract([]byte(page), "https://example.com")
	if !ok {
		t.Fatalf("expected body fallback to succeed")
	}
	if res.Body != "Only paragraph." {
		t.Fatalf("expected body text without header/footer, got %q", res.Body)
	}
	if res.Title != "" {
		t.Fatalf("expected empty title from strategy, got %q", res.Title)
	}
}

func TestSelectorStrategySkipsScriptOnlyPage(t *testing.T) {
	if _, ok := NewSelectorStrategy().Extract([]byte(payloadPage), "https://grokipedia.com/page/Go"); ok {
		t.Fatalf("expected selector strategy to skip a page without visible text")
	}
}

func TestPayloadStrategy(t *testing.T) {
	res, ok := NewPayloadStrategy("grokipedia.com").Extract([]byte(payloadPage), "https://grokipedia.com/page/Go")
	if !ok {
		t.Fatalf("expected payload strategy to succeed")
	}
	if res.Title != "Go" {
		t.Fatalf("expected title Go, got %q", res.Title)
	}
	want := "# Go\n\nSome text  Link and [Ref](https://nature.com/a)\n\nMore \"quoted\" text"
	if res.Body != want {
		t.Fatalf("unexpected body\ngot:  %q\nwant: %q", res.Body, want)
	}
}

func TestPayloadStrategyHeadingLookahead(t *testing.T) {
	page := `<script>self.__next_f.push([1,"intro\n# Heading\nbody"])</script>`

	res, ok := NewPayloadStrategy("grokipedia.com").Extract([]byte(page), "")
	if !ok {
		t.Fatalf("expected heading within lookahead to be accepted")
	}
	if res.Title != "Heading" {
		t.Fatalf("expected title Heading, got %q", res.Title)
	}

	far := `<script>self.__next_f.push([1,"` + strings.Repeat("x", 120) + `\n# Heading"])</script>`
	if _, ok := NewPayloadStrategy("grokipedia.com").Extract([]byte(far), ""); ok {
		t.Fatalf("expected heading past lookahead to be ignored")
	}
}

func TestPayloadStrategyEscapedParensInImage(t *testing.T) {
	page := `<script>self.__next_f.push([1,"# T\n![a](https://x.example/a_\\(b\\).png)\nText"])</script>`

	res, ok := NewPayloadStrategy("grokipedia.com").Extract([]byte(page), "")
	if !ok {
		t.Fatalf("expected success")
	}
	if res.Body != "# T\n\nText" {
		t.Fatalf("expected image with escaped parens removed, got %q", res.Body)
	}
}

func TestDropStrayParens(t *testing.T) {
	got := dropStrayParens("a\n  ))\nb\n)x")
	if got != "a\n\nb\n)x" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestHeadingTitleFallback(t *testing.T) {
	if got := headingTitle("no heading here\n## sub"); got != UntitledArticle {
		t.Fatalf("expected placeholder title, got %q", got)
	}
}

func TestExtractorPriority(t *testing.T) {
	e := New("grokipedia.com")

	res, err := e.Extract([]byte(selectorPage), "https://example.com/go")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Strategy != "selector" {
		t.Fatalf("expected selector strategy to win, got %q", res.Strategy)
	}

	res, err = e.Extract([]byte(payloadPage), "https://grokipedia.com/page/Go")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Strategy != "payload" {
		t.Fatalf("expected payload strategy to win, got %q", res.Strategy)
	}
}

func TestExtractorFailure(t *testing.T) {
	e := New("grokipedia.com", WithStrategies(NewSelectorStrategy(), NewPayloadStrategy("grokipedia.com")))

	_, err := e.Extract([]byte(`<html><body><script>var a = 1;</script></body></html>`), "https://example.com/empty")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

type fixedStrategy struct {
	name string
	res  Result
	ok   bool
}

func (f fixedStrategy) Name() string { return f.name }

func (f fixedStrategy) Extract([]byte, string) (Result, bool) { return f.res, f.ok }

func TestExtractorSkipsBlankBodies(t *testing.T) {
	e := New("", WithStrategies(
		fixedStrategy{name: "blank", res: Result{Title: "x", Body: "   "}, ok: true},
		fixedStrategy{name: "skip", ok: false},
		fixedStrategy{name: "good", res: Result{Body: "text"}, ok: true},
	))

	res, err := e.Extract(nil, "u")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Strategy != "good" || res.Title != UntitledArticle {
		t.Fatalf("unexpected result %+v", res)
	}
}
