package core

// Secret wraps a credential component (secret access key, session token) so
// it cannot leak through logging or serialization. String, GoString, JSON and
// text marshaling all produce a redacted placeholder.
//
// Use Expose() only at the point where the raw value is required, such as
// request signing.
//
//	token := NewSecret("FwoGZXIvYXdzE...")
//	fmt.Println(token)  // [REDACTED]
//	token.Expose()      // FwoGZXIvYXdzE...
type Secret struct {
	value string
}

// NewSecret creates a new Secret from a string value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// String returns a redacted placeholder.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString returns a redacted placeholder for %#v formatting.
func (s Secret) GoString() string {
	return "core.Secret{[REDACTED]}"
}

// MarshalJSON returns a redacted JSON string.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// MarshalText returns a redacted text representation, which also covers YAML.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// Expose returns the actual secret value.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty returns true if the secret value is empty.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}
