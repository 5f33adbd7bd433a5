package model

import "time"

// User represents a login identity as stored in the `users` table.
// The primary key is a UUID string; phone is the unique login handle.
// PasswordHash is the bcrypt digest used for verification, while
// PasswordEnc holds the AES-GCM ciphertext of the same password so
// that support staff can recover it through the admin reveal endpoint.
// Handlers define their own response types; these structs carry no
// JSON tags on purpose.
//
// Fields:
//  ID           - UUID primary key of the user.
//  Phone        - unique login phone number.
//  Email        - optional legacy email address.
//  PasswordHash - bcrypt hashed password.
//  PasswordEnc  - reversible ciphertext of the current password.
//  IsActive     - whether the account is active.
//  CreatedAt    - timestamp of creation.
//  UpdatedAt    - timestamp of last update.
type User struct {
	ID           string    // users.id
	Phone        string    // users.phone
	Email        string    // users.email (may be empty)
	PasswordHash string    // users.password_hash
	PasswordEnc  string    // users.password_enc
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// UserRole is one row of the `user_roles` join table.  A user may hold
// several roles; "admin" is the only value that grants privileges
// anywhere in the system.  Everyone receives "user" at registration.
type UserRole struct {
	ID     string // user_roles.id
	UserID string // user_roles.user_id
	Role   string // user_roles.role
}

// RoleAdmin is the only privileged role value checked by the backend.
const RoleAdmin = "admin"

// RoleUser is the default role granted at registration.
const RoleUser = "user"

// Profile is the generic one-to-one profile attached to every user.
type Profile struct {
	UserID    string    // profiles.user_id
	FullName  string    // profiles.full_name
	Phone     string    // profiles.phone
	CreatedAt time.Time // profiles.created_at
	UpdatedAt time.Time // profiles.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
