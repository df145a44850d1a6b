package pastebin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLBuilders(t *testing.T) {
	assert.Equal(t, "https://pastebin.com/u/someone/2", ListingPageURL("https://pastebin.com/u/someone/", 2))
	assert.Equal(t, "https://pastebin.com/abc", PasteURL("https://pastebin.com/", "/abc"))
	assert.Equal(t, "https://pastebin.com/abc", PasteURL("https://pastebin.com", "abc"))
	assert.Equal(t, "https://pastebin.com/raw/abc", RawURL("https://pastebin.com", "/abc"))
	assert.Equal(t, "https://pastebin.com/u/x", AuthorURL("https://pastebin.com", "/u/x"))
	assert.Equal(t, "https://other.example/u/x", AuthorURL("https://pastebin.com", "https://other.example/u/x"))
}

func TestRobotsURL(t *testing.T) {
	u, err := RobotsURL("http://127.0.0.1:8080/u/someone/3")
	assert.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/robots.txt", u)

	_, err = RobotsURL("/u/someone")
	assert.Error(t, err)
}

func TestNormalizeRef(t *testing.T) {
	tests := map[string]string{
		"/abc":                          "/abc",
		"abc":                           "/abc",
		" /abc ":                        "/abc",
		"/abc?x=1#frag":                 "/abc",
		"https://pastebin.com/abc#frag": "/abc",
		"//pastebin.com/abc":            "/abc",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeRef(in), in)
	}
}
