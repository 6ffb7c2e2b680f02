// Package scram implements the client side of Project Haystack's SCRAM
// authentication handshake.
//
// The handshake is three HTTP round trips against the server's /about
// endpoint:
//
//	HELLO username=<b64>                        -> 401 handshakeToken, hash
//	scram handshakeToken, hash, data=<c1>       -> 401 data=<r,s,i>
//	scram handshaketoken, data=<final + proof>  -> 200 authToken, data=<v>
//
// An Authenticator yields a bearer token only after the server has proven
// knowledge of the password by returning the expected server signature.
// Every call to Authenticate is an independent attempt with a fresh client
// nonce; no state survives between calls.
//
// Reference: https://project-haystack.org/doc/docHaystack/Auth
package scram
