package utils

import (
	"strings"
	"testing"
	"time"
)

func TestValidDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   bool
	}{
		{"example.com", true},
		{"Blog.Example.co.uk", true},
		{"user.github.io", true},
		{"github.io", false},
		{"localhost", false},
		{"example.notarealtld", false},
		{"bad_domain.com", false},
		{"-leading.com", false},
		{"", false},
		{"a..com", false},
	}
	for _, tt := range tests {
		if got := ValidDomain(tt.domain); got != tt.want {
			t.Errorf("ValidDomain(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}

func TestHostname(t *testing.T) {
	tests := map[string]string{
		"https://www.Example.com:8080/path?q=1": "example.com",
		"http://news.ycombinator.com/item":      "news.ycombinator.com",
		"not a url":                             "",
		"/relative/path":                        "",
	}
	for in, want := range tests {
		if got := Hostname(in); got != want {
			t.Errorf("Hostname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCacheTTLAndPrefix(t *testing.T) {
	c, err := NewCache(10)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	c.Set("stories:1", "a", time.Minute)
	c.Set("stories:2", "b", time.Minute)
	c.Set("item:1", "c", time.Minute)
	c.Set("expired", "d", -time.Second)

	if c.Get("expired") != nil {
		t.Errorf("expired entries must not be returned")
	}
	c.DeletePrefix("stories:")
	if c.Get("stories:1") != nil || c.Get("stories:2") != nil {
		t.Errorf("prefix delete left entries behind")
	}
	if c.Get("item:1") != "c" {
		t.Errorf("unrelated keys must survive a prefix delete")
	}

	var nilCache *Cache
	nilCache.Set("k", 1, time.Minute)
	if nilCache.Get("k") != nil {
		t.Errorf("nil cache must stay empty")
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script> [link](https://example.com)"))
	if strings.Contains(out, "<script>") {
		t.Errorf("script tag survived: %s", out)
	}
	if !strings.Contains(out, `rel="nofollow`) {
		t.Errorf("expected nofollow on links: %s", out)
	}
	if RenderMarkdown("") != "" {
		t.Errorf("empty input should render empty")
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<p>Hello   <b>world</b></p>\n<p>again</p>", 0)
	if got != "Hello world again" {
		t.Errorf("PlainText = %q", got)
	}
	if got := PlainText("<p>abcdefghij</p>", 4); got != "abcd..." {
		t.Errorf("truncated PlainText = %q", got)
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds ago"},
		{time.Minute, "1 minute ago"},
		{5 * time.Hour, "5 hours ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{400 * 24 * time.Hour, "1 year ago"},
	}
	for _, tt := range tests {
		if got := timeAgo(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("timeAgo(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]int{"": 1, "0": 1, "-3": 1, "abc": 1, "2": 2, "17": 17} {
		if got := ParsePage(in); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", in, got, want)
		}
	}
}
