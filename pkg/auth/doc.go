// Package auth implements the authentication core: the JWT token codec, the
// one-time token generator gating account confirmation and password reset,
// the argon2id password hasher, and the service orchestrating login, token
// refresh, registration and the reset flow.
//
// Bearer tokens are stateless: validity is determined purely by signature and
// expiry. Only one-time tokens are persisted, because they must be single-use
// and revocable before first use.
package auth
