package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for refresh tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"        // sentinel errors for token verification
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Portal audiences carried in the token's aud claim.  The audience binds a
// session to one of the three portals so that an admin login, a matrimony
// login and a member login are distinct sessions even for the same user.
const (
    AudienceAdmin     = "admin"
    AudienceMatrimony = "matrimony"
    AudienceMember    = "member"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that fails
// signature, structure or expiry checks.  Callers translate it to HTTP 401.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short-lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA-256 hash of the
// raw string is stored for security reasons.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// AccessClaims is the decoded, application-level view of an access token.
type AccessClaims struct {
    UserID   string   // sub claim: user UUID
    Audience string   // aud claim: portal the session belongs to
    Roles    []string // roles claim: all role tags held at issue time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user UUID, the portal audience, the user's role tags
// and a TTL in minutes.  The JWT carries sub, aud, roles, exp and iat.
func NewAccessToken(secret, userID, audience string, roles []string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":   userID,
        "aud":   audience,
        "roles": roles,
        "exp":   exp.Unix(),
        "iat":   now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates a raw bearer token and returns its claims.
// Verification is purely cryptographic; no database round trip is needed.
// Any failure (bad signature, wrong algorithm, expired, malformed claims)
// collapses into ErrInvalidToken so callers cannot leak the reason.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC; otherwise an
        // attacker could switch the algorithm.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrInvalidToken
    }
    sub, _ := claims["sub"].(string)
    aud, _ := claims["aud"].(string)
    if sub == "" || aud == "" {
        return AccessClaims{}, ErrInvalidToken
    }
    out := AccessClaims{UserID: sub, Audience: aud}
    // JSON arrays decode as []interface{}; collect the string members.
    if rawRoles, ok := claims["roles"].([]interface{}); ok {
        for _, r := range rawRoles {
            if s, ok := r.(string); ok {
                out.Roles = append(out.Roles, s)
            }
        }
    }
    return out, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are used to obtain new access tokens.  The ttlDays parameter controls
// how many days the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a hex
// string.  Storing only the hash in the database prevents attackers from
// using stolen database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
