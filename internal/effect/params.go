package effect

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid effect parameters")

// Kind selects the background treatment.
type Kind int

const (
	Remove Kind = iota
	Blur
	ReplaceColor
	Desaturate
	IsolateColor
)

var kindNames = map[Kind]string{
	Remove:       "remove",
	Blur:         "blur",
	ReplaceColor: "replace_color",
	Desaturate:   "desaturate",
	IsolateColor: "isolate_color",
}

// Kinds lists every effect name accepted by ParseKind, in declaration order.
func Kinds() []string {
	return []string{"remove", "blur", "replace_color", "desaturate", "isolate_color"}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts an effect name to a Kind. Names are case-insensitive
// and accept the camelCase spellings used by browser front ends.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remove", "":
		return Remove, nil
	case "blur":
		return Blur, nil
	case "replace_color", "replacecolor", "replace":
		return ReplaceColor, nil
	case "desaturate":
		return Desaturate, nil
	case "isolate_color", "isolatecolor", "isolate":
		return IsolateColor, nil
	default:
		return 0, fmt.Errorf("%w: unknown effect %q", ErrInvalidParams, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: unknown effect %d", ErrInvalidParams, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MaxBlurRadius bounds BlurRadius so a frame's blur cost stays bounded.
const MaxBlurRadius = 50.0

// Params configures one effect. It is read-only while a frame renders.
type Params struct {
	Kind Kind `json:"kind"`

	// BlurRadius is the Gaussian blur radius in pixels for Blur, at most
	// MaxBlurRadius.
	BlurRadius float64 `json:"blur_radius"`

	// ReplaceColor is the "#rrggbb" (or "#rgb") fill for ReplaceColor.
	ReplaceColor string `json:"replace_color"`
}

// DefaultParams returns background removal with the stock blur radius and
// fill color pre-set for when the kind is switched later.
func DefaultParams() Params {
	return Params{
		Kind:         Remove,
		BlurRadius:   10,
		ReplaceColor: "#0d1117",
	}
}

// Validate checks p for the selected kind.
func (p Params) Validate() error {
	if _, ok := kindNames[p.Kind]; !ok {
		return fmt.Errorf("%w: unknown effect %d", ErrInvalidParams, int(p.Kind))
	}
	if math.IsNaN(p.BlurRadius) || p.BlurRadius < 0 || p.BlurRadius > MaxBlurRadius {
		return fmt.Errorf("%w: blur radius must be within [0,%g], got %g", ErrInvalidParams, MaxBlurRadius, p.BlurRadius)
	}
	if p.Kind == ReplaceColor {
		if _, err := parseColor(p.ReplaceColor); err != nil {
			return err
		}
	}
	return nil
}

// parseColor accepts "#rrggbb", "rrggbb", "#rgb" and "rgb".
func parseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return colorful.Color{}, fmt.Errorf("%w: empty replace color", ErrInvalidParams)
	}
	if s[0] != '#' {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: replace color %q: %v", ErrInvalidParams, s, err)
	}
	return c, nil
}
