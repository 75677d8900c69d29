package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// NeverSignedIn is the presentation form of an absent sign-in time
const NeverSignedIn = "Never"

// SignInTime is an optional last sign-in value. The upstream text is kept as is
// and is only parsed for ordering. The zero value means the user never signed in.
type SignInTime struct {
	raw    string
	at     time.Time
	parsed bool
}

// sign-in layouts seen from the upstream API, tried in order
var signInLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// NewSignInTime returns a present sign-in time. A zero t is treated as absent.
func NewSignInTime(t time.Time) SignInTime {
	if t.IsZero() {
		return SignInTime{}
	}
	return SignInTime{raw: t.UTC().Format(time.RFC3339Nano), at: t, parsed: true}
}

// ParseSignInTime keeps an upstream sign-in value. Only empty, "Never" and the
// zero timestamp are absent; any other text is present even when it cannot be parsed.
func ParseSignInTime(s string) SignInTime {
	if s == "" || s == NeverSignedIn {
		return SignInTime{}
	}

	v := SignInTime{raw: s}
	for _, layout := range signInLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.IsZero() {
			return SignInTime{}
		}
		v.at = t
		v.parsed = true
		break
	}
	return v
}

// Raw returns the upstream text, empty when absent
func (s SignInTime) Raw() string {
	return s.raw
}

// Time returns the timestamp and whether the value could be parsed
func (s SignInTime) Time() (time.Time, bool) {
	return s.at, s.parsed
}

// IsNever reports whether the user has never signed in
func (s SignInTime) IsNever() bool {
	return s.raw == ""
}

// SortKey returns the timestamp used for ordering. Absent and unparseable values sort as the Unix epoch.
func (s SignInTime) SortKey() time.Time {
	if !s.parsed {
		return time.Unix(0, 0).UTC()
	}
	return s.at
}

// String returns the upstream text or NeverSignedIn
func (s SignInTime) String() string {
	if s.raw == "" {
		return NeverSignedIn
	}
	return s.raw
}

func (s SignInTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SignInTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = SignInTime{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseSignInTime(raw)
	return nil
}
