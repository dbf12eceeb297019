package verifier

// Claims is the verified, decoded payload of a token. It is produced only
// by successful verification and is immutable once produced.
//
// Registered claim values (RFC 7519) are lifted into typed fields; the full
// payload, including any caller-defined fields, is carried opaquely in
// Custom.
type Claims struct {
	Issuer    string   `json:"iss,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	Expiry    int64    `json:"exp,omitempty"`
	NotBefore int64    `json:"nbf,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	ID        string   `json:"jti,omitempty"`

	Custom map[string]any `json:"-"`
}
