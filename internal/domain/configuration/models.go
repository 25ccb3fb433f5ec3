package configuration

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Key addresses one configuration's whole version history
type Key struct {
	Application string
	Environment string
	ConfigName  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Application, k.Environment, k.ConfigName)
}

var invalidChars = `/\?*:|"<>#`

var illegals = []string{
	".",
	"..",
}

// KeyFromStrings returns a Key if every segment is a valid path segment, otherwise
// returns an InvalidKey error listing everything that is wrong
func KeyFromStrings(application string, environment string, configName string) (*Key, error) {
	var errs []error
	errs = append(errs, ValidateSegment("application", application)...)
	errs = append(errs, ValidateSegment("environment", environment)...)
	errs = append(errs, ValidateSegment("config_name", configName)...)
	if len(errs) == 0 {
		return &Key{
			Application: application,
			Environment: environment,
			ConfigName:  configName,
		}, nil
	} else {
		return nil, InvalidKey{Errors: errs}
	}
}

// ValidateSegment checks that s can be used as a single segment of a storage path
func ValidateSegment(field string, s string) []error {
	var errs []error
	if len(s) == 0 {
		errs = append(errs, fmt.Errorf("%s is empty", field))
	}
	if strings.ContainsAny(s, invalidChars) {
		errs = append(errs, fmt.Errorf("%s contains invalid chars [%v]", field, invalidChars))
	}
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) != -1 {
		errs = append(errs, fmt.Errorf("%s contains whitespace or control chars", field))
	}
	for _, illegalStr := range illegals {
		if s == illegalStr {
			errs = append(errs, fmt.Errorf("%s is equal to illegal string sequence [%v]", field, illegalStr))
		}
	}
	return errs
}

// ValidatePrefix checks a listing prefix segment by segment. An empty prefix lists everything
// and a trailing slash is allowed.
func ValidatePrefix(prefix string) error {
	if len(prefix) == 0 {
		return nil
	}
	segments := strings.Split(strings.TrimSuffix(prefix, "/"), "/")
	var errs []error
	for i, segment := range segments {
		errs = append(errs, ValidateSegment(fmt.Sprintf("prefix segment [%d]", i), segment)...)
	}
	if len(errs) != 0 {
		return InvalidKey{Errors: errs}
	}
	return nil
}

// Version identifies one immutable snapshot of a configuration, e.g. "v3"
type Version string

const versionPrefix = "v"

func VersionFromNumber(n uint64) Version {
	return Version(fmt.Sprintf("%s%d", versionPrefix, n))
}

// Number returns the numeric part of a well-formed version
func (v Version) Number() (uint64, bool) {
	s := string(v)
	if !strings.HasPrefix(s, versionPrefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, versionPrefix), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// Document is the unit of content exchanged with callers.
//
// Content and Schema are raw JSON; both must be JSON objects to be persisted.
type Document struct {
	Content json.RawMessage
	Schema  json.RawMessage
	// Empty until assigned by persistence
	Version Version
}

// VersionRecord is one entry in a configuration's history
type VersionRecord struct {
	Version   Version   `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata is the per-key control record.
//
// CurrentVersion is empty iff Versions is empty, otherwise it is the version of the last
// element of Versions. Versions is append-only and in creation order.
type Metadata struct {
	CurrentVersion Version         `json:"current_version"`
	Versions       []VersionRecord `json:"versions"`
}

// IsEmpty returns true if there is no version at all
func (m *Metadata) IsEmpty() bool {
	return len(m.CurrentVersion) == 0
}

// NextVersion is one more than the highest numbered version so far, ignoring malformed
// entries; v1 if there are none
func (m *Metadata) NextVersion() Version {
	var highest uint64
	for _, record := range m.Versions {
		if n, ok := record.Version.Number(); ok && n > highest {
			highest = n
		}
	}
	return VersionFromNumber(highest + 1)
}

// HasVersion returns true if the given version is in the history
func (m *Metadata) HasVersion(version Version) bool {
	for _, record := range m.Versions {
		if record.Version == version {
			return true
		}
	}
	return false
}

// AddVersion appends to the history and makes the given version current.
//
// Timestamps never go backwards: if at is before the latest record's timestamp, the latest
// timestamp is used instead.
func (m *Metadata) AddVersion(version Version, at time.Time) {
	if last := len(m.Versions) - 1; last >= 0 && at.Before(m.Versions[last].Timestamp) {
		at = m.Versions[last].Timestamp
	}
	m.Versions = append(m.Versions, VersionRecord{
		Version:   version,
		Timestamp: at,
	})
	m.CurrentVersion = version
}

// IsJsonObject returns true if raw is a JSON object, ignoring surrounding whitespace
func IsJsonObject(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	return json.Unmarshal([]byte(trimmed), &obj) == nil
}
