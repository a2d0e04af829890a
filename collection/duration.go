package collection

import "time"

// Duration wraps time.Duration with text (un)marshaling so it can be
// written as a TOML string ("200ms", "5s") the way typeutil.Duration
// does in the pack's pd config package, since BurntSushi/toml has no
// native duration type.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
