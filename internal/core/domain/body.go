package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Body identifies a celestial body placed on a natal chart.
// Declaration order is the canonical chart order.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
)

// BodyCount is the number of bodies a full chart carries.
const BodyCount = 10

// identNamespace roots the name-based UUIDs handed out for bodies and signs.
// Changing it changes every published identifier.
var identNamespace = uuid.MustParse("6f1c9a52-3d0e-4b7a-9a51-2f3c8d7e4b10")

type bodyInfo struct {
	code string
	name string
	id   uuid.UUID
}

var bodyTable = [BodyCount]bodyInfo{
	Sun:     {code: "sun", name: "Sun"},
	Moon:    {code: "moon", name: "Moon"},
	Mercury: {code: "mercury", name: "Mercury"},
	Venus:   {code: "venus", name: "Venus"},
	Mars:    {code: "mars", name: "Mars"},
	Jupiter: {code: "jupiter", name: "Jupiter"},
	Saturn:  {code: "saturn", name: "Saturn"},
	Uranus:  {code: "uranus", name: "Uranus"},
	Neptune: {code: "neptune", name: "Neptune"},
	Pluto:   {code: "pluto", name: "Pluto"},
}

var bodyByCode = make(map[string]Body, BodyCount)

func init() {
	for i := range bodyTable {
		bodyTable[i].id = uuid.NewSHA1(identNamespace, []byte("body:"+bodyTable[i].code))
		bodyByCode[bodyTable[i].code] = Body(i)
	}
}

// Bodies returns every body in canonical order.
func Bodies() []Body {
	out := make([]Body, BodyCount)
	for i := range out {
		out[i] = Body(i)
	}
	return out
}

// Valid reports whether b is one of the enumerated bodies.
func (b Body) Valid() bool { return b >= Sun && b <= Pluto }

// Code is the stable external identifier used for localization lookups.
func (b Body) Code() string {
	if !b.Valid() {
		return ""
	}
	return bodyTable[b].code
}

// ID is the stable UUID form of Code.
func (b Body) ID() uuid.UUID {
	if !b.Valid() {
		return uuid.Nil
	}
	return bodyTable[b].id
}

func (b Body) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyTable[b].name
}

func (b Body) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("unknown body %d", int(b))
	}
	return []byte(b.Code()), nil
}

func (b *Body) UnmarshalText(text []byte) error {
	v, ok := BodyFromCode(string(text))
	if !ok {
		return fmt.Errorf("unknown body code %q", text)
	}
	*b = v
	return nil
}

// BodyFromCode resolves a stable code back to a Body.
func BodyFromCode(code string) (Body, bool) {
	b, ok := bodyByCode[code]
	return b, ok
}
