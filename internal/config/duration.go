package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	durationShape = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]+)?[a-zµμ]+)+$`)
	durationTerm  = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)([a-zµμ]+)`)
)

// parseDurationExtended accepts Go duration syntax plus d (24h) and w (7d),
// e.g. "7d", "1w2d3h", "1.5d", "-2w".
func parseDurationExtended(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	if !strings.ContainsAny(s, "dw") {
		return time.ParseDuration(s)
	}
	if !durationShape.MatchString(s) {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}

	var b strings.Builder
	if s[0] == '+' || s[0] == '-' {
		b.WriteByte(s[0])
	}
	for _, m := range durationTerm.FindAllStringSubmatch(s, -1) {
		num, unit := m[1], m[2]
		hoursPer := 0.0
		switch unit {
		case "d":
			hoursPer = 24
		case "w":
			hoursPer = 7 * 24
		default:
			b.WriteString(num + unit)
			continue
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		b.WriteString(strconv.FormatFloat(f*hoursPer, 'f', -1, 64) + "h")
	}
	return time.ParseDuration(b.String())
}

// Duration is a time.Duration that unmarshals from the extended duration syntax.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := parseDurationExtended(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
