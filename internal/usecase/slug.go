package usecase

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

const (
	slugAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugSuffixLen  = 6
	slugFallback   = "resume"
	avatarEndpoint = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

var (
	nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Slugify lower-cases s and collapses every run of other characters into a
// single hyphen.
func Slugify(s string) string {
	return strings.Trim(nonSlugRun.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// NewSlug derives a listing slug from its title with a random suffix.
func NewSlug(title string) string {
	base := Slugify(title)
	if base == "" {
		base = slugFallback
	}
	return base + "-" + randomSuffix(slugSuffixLen)
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(slugAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b[i] = slugAlphabet[i%len(slugAlphabet)]
			continue
		}
		b[i] = slugAlphabet[idx.Int64()]
	}
	return string(b)
}

// PlaceholderAvatar is the generated avatar used when a listing has no photo.
func PlaceholderAvatar(title string) string {
	return avatarEndpoint + url.QueryEscape(whitespace.ReplaceAllString(title, ""))
}
