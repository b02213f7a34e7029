package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Fingerprint hashes the given parts with SHA256. Parts are separated by a
// NUL byte so that ("ab", "c") and ("a", "bc") do not collide.
func Fingerprint(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL converts a relative URL to an absolute URL given a base URL.
func ToAbsoluteURL(base *url.URL, relative string) (string, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(relURL).String(), nil
}
