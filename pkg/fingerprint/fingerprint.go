// Package fingerprint derives a low entropy device identifier from the
// display/locale properties that a browser reports at login.
//
// This is an identification heuristic, not a security mechanism. Collisions
// are possible, spoofing is trivial, and two browsers with identical settings
// on identical hardware produce the same fingerprint. It exists only so that
// the session store can tell "same device logging in again" apart from
// "different device trying to share a key".
package fingerprint

import (
	"fmt"
	"strconv"
	"unicode/utf16"
)

// Profile is the set of properties a device reports at login.
type Profile struct {
	ScreenWidth  int    `json:"screenWidth"`
	ScreenHeight int    `json:"screenHeight"`
	Timezone     string `json:"timezone"` // IANA name, eg "Asia/Kolkata"
	Locale       string `json:"locale"`   // BCP 47, eg "en-US"
	Platform     string `json:"platform"` // eg "Win32", "Linux x86_64"
	ColorDepth   int    `json:"colorDepth"`
}

func (p *Profile) String() string {
	return fmt.Sprintf("%vx%v-%v-%v-%v-%v", p.ScreenWidth, p.ScreenHeight, p.Timezone, p.Locale, p.Platform, p.ColorDepth)
}

// Hash returns the device fingerprint for a profile.
func Hash(p *Profile) string {
	return HashString(p.String())
}

// HashString runs a 32-bit rolling hash (h = h*31 + c) over the UTF-16 code
// units of s, and returns the absolute value of the result in decimal.
// Deliberately identical to the Java-style string hash that browsers compute
// with ((h << 5) - h) + charCodeAt(i), so fingerprints computed client side
// and server side agree.
func HashString(s string) string {
	h := int32(0)
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 10)
}
