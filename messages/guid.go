package messages

import "github.com/google/uuid"

// EmptyGUID is the all-zero GUID used as a pipeline id to mean
// "pool-targeted" (no specific pipeline).
var EmptyGUID uuid.UUID

// netBytes returns u's 16 bytes re-ordered into .NET's little-endian GUID
// layout: the first three fields (4, 2, 2 bytes) are byte-swapped relative
// to the RFC 4122 string form; the trailing 8-byte field is unchanged.
func netBytes(u uuid.UUID) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = u[3], u[2], u[1], u[0]
	out[4], out[5] = u[5], u[4]
	out[6], out[7] = u[7], u[6]
	copy(out[8:], u[8:])
	return out
}

// uuidFromNetBytes reverses netBytes.
func uuidFromNetBytes(b []byte) uuid.UUID {
	var u uuid.UUID
	u[0], u[1], u[2], u[3] = b[3], b[2], b[1], b[0]
	u[4], u[5] = b[5], b[4]
	u[6], u[7] = b[7], b[6]
	copy(u[8:], b[8:16])
	return u
}
