package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Sign is a zodiac sign. Its ordinal is the index of the 30° ecliptic
// segment it covers, starting at 0° Aries.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// SignCount is the number of zodiac signs.
const SignCount = 12

// SignWidth is the ecliptic span of one sign in degrees.
const SignWidth = 30.0

type signInfo struct {
	code string
	name string
	id   uuid.UUID
}

var signTable = [SignCount]signInfo{
	Aries:       {code: "aries", name: "Aries"},
	Taurus:      {code: "taurus", name: "Taurus"},
	Gemini:      {code: "gemini", name: "Gemini"},
	Cancer:      {code: "cancer", name: "Cancer"},
	Leo:         {code: "leo", name: "Leo"},
	Virgo:       {code: "virgo", name: "Virgo"},
	Libra:       {code: "libra", name: "Libra"},
	Scorpio:     {code: "scorpio", name: "Scorpio"},
	Sagittarius: {code: "sagittarius", name: "Sagittarius"},
	Capricorn:   {code: "capricorn", name: "Capricorn"},
	Aquarius:    {code: "aquarius", name: "Aquarius"},
	Pisces:      {code: "pisces", name: "Pisces"},
}

var signByCode = make(map[string]Sign, SignCount)

func init() {
	for i := range signTable {
		signTable[i].id = uuid.NewSHA1(identNamespace, []byte("sign:"+signTable[i].code))
		signByCode[signTable[i].code] = Sign(i)
	}
}

// Signs returns the twelve signs in zodiacal order.
func Signs() []Sign {
	out := make([]Sign, SignCount)
	for i := range out {
		out[i] = Sign(i)
	}
	return out
}

func (s Sign) Valid() bool { return s >= Aries && s <= Pisces }

// Ordinal is the 0–11 segment index.
func (s Sign) Ordinal() int { return int(s) }

// Code is the stable external identifier used for localization lookups.
func (s Sign) Code() string {
	if !s.Valid() {
		return ""
	}
	return signTable[s].code
}

// ID is the stable UUID form of Code.
func (s Sign) ID() uuid.UUID {
	if !s.Valid() {
		return uuid.Nil
	}
	return signTable[s].id
}

// StartLongitude is the ecliptic longitude at which the sign begins.
func (s Sign) StartLongitude() float64 { return float64(s) * SignWidth }

func (s Sign) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signTable[s].name
}

func (s Sign) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown sign %d", int(s))
	}
	return []byte(s.Code()), nil
}

func (s *Sign) UnmarshalText(text []byte) error {
	v, ok := SignFromCode(string(text))
	if !ok {
		return fmt.Errorf("unknown sign code %q", text)
	}
	*s = v
	return nil
}

// SignFromCode resolves a stable code back to a Sign.
func SignFromCode(code string) (Sign, bool) {
	s, ok := signByCode[code]
	return s, ok
}

// NormalizeLongitude folds any angle in degrees into [0, 360).
func NormalizeLongitude(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	// math.Mod of a tiny negative value can round back up to exactly 360.
	if n >= 360 {
		n = 0
	}
	return n
}

// ToSign maps an ecliptic longitude to its sign and the degree within it.
// The degree is always in [0, 30).
func ToSign(longitude float64) (Sign, float64) {
	n := NormalizeLongitude(longitude)
	idx := int(math.Floor(n / SignWidth))
	deg := n - float64(idx)*SignWidth
	// n/30 can round across a boundary; fix up from the exact remainder.
	if deg < 0 {
		idx--
		deg += SignWidth
	}
	if idx >= SignCount {
		idx = SignCount - 1
		deg = n - float64(idx)*SignWidth
	}
	if deg >= SignWidth {
		deg = math.Nextafter(SignWidth, 0)
	}
	return Sign(idx), deg
}
