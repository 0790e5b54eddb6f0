// Package identifier derives deterministic policy and claim identifiers.
//
// Identifiers are sha256 digests over an ordered, type-tagged, length-framed
// encoding of a record's immutable fields plus the ledger's pre-increment
// sequence counter. Any client that knows the inputs and the counter value can
// recompute an id offline, without ledger access. The framing makes the
// encoding unambiguous: ("ab","c") and ("a","bc") produce different digests.
package identifier

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

type fieldTag byte

const (
	tagString fieldTag = 0x01
	tagInt64  fieldTag = 0x02
	tagUint64 fieldTag = 0x03
	tagTime   fieldTag = 0x04
)

// Field is one framed input to a derivation. Construct via String, Int64,
// Uint64, or Time so the tag and framing stay consistent.
type Field struct {
	tag   fieldTag
	bytes []byte
}

func String(v string) Field {
	return Field{tag: tagString, bytes: []byte(v)}
}

func Int64(v int64) Field {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return Field{tag: tagInt64, bytes: b[:]}
}

func Uint64(v uint64) Field {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return Field{tag: tagUint64, bytes: b[:]}
}

// Time frames a timestamp as UnixNano so equal instants encode equally
// regardless of location.
func Time(v time.Time) Field {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v.UnixNano()))
	return Field{tag: tagTime, bytes: b[:]}
}

// Derive hashes the ordered fields into a 64-character hex identifier.
func Derive(fields ...Field) string {
	h := sha256.New()
	var frame [binary.MaxVarintLen64]byte
	for _, f := range fields {
		h.Write([]byte{byte(f.tag)})
		n := binary.PutUvarint(frame[:], uint64(len(f.bytes)))
		h.Write(frame[:n])
		h.Write(f.bytes)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PolicyID derives the identifier for a policy registration. seq is the
// ledger's totalPolicies value before the registration increments it.
func PolicyID(holder string, insuredAmount, premium int64, startDate, endDate, now time.Time, seq uint64) string {
	return Derive(
		String(holder),
		Int64(insuredAmount),
		Int64(premium),
		Time(startDate),
		Time(endDate),
		Time(now),
		Uint64(seq),
	)
}

// ClaimID derives the identifier for a claim submission. seq is the ledger's
// totalClaims value before the submission increments it.
func ClaimID(policyID, claimant string, amount int64, description string, now time.Time, seq uint64) string {
	return Derive(
		String(policyID),
		String(claimant),
		Int64(amount),
		String(description),
		Time(now),
		Uint64(seq),
	)
}
