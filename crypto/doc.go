// Package crypto implements the PSRP secure-string key exchange: RSA
// key-pair generation, PKCS#1 v1.5 session-key wrap/unwrap, and AES-CBC
// encryption of the UTF-16LE plaintext carried by secure strings.
//
// Every type here is pure and synchronous: no network I/O, matching the
// rest of this module's sans-I/O design. Callers (the runspace package)
// decide when to generate a key pair and when to install the resulting
// cipher; this package only does the math.
package crypto
