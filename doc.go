// Package auth implements the credential and token core of the users API:
// email/password verification against bcrypt hashes, issuance of short-lived
// access tokens and long-lived refresh tokens signed under independent
// secrets, per-request bearer validation with a mandatory user re-fetch, and
// the role-based access policy applied to user self-service vs. admin
// operations.
//
// Token lifecycle:
//   - Login, Register, and Refresh each mint a fresh access+refresh pair.
//     The two signings are independent and both must succeed; a partial pair
//     is never returned.
//   - Refresh rotates the pair but does not blacklist the old refresh token.
//     There is no revocation store: a refresh token stays valid until its
//     own expiry. Known limitation.
//   - Deactivating or deleting a user invalidates outstanding tokens on the
//     next request, because every guarded request re-resolves the user from
//     the store before any handler runs.
//
// All refresh verification failures (bad signature, malformed token, expiry,
// or a subject that no longer resolves to a user) are reported uniformly as
// an invalid refresh token so the endpoint cannot be used to probe for
// account existence.
package auth
