// Package daily derives the shared code of the day.
//
// Every player sees the same hidden code on a given UTC date: the date key is
// run through HMAC-SHA256 with a server salt and the digest seeds the sampler.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/robalobadob/mastermind/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic seed for a date using HMAC(salt, YYYY-MM-DD).
func Seed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// drop the sign bit so the seed round-trips through the INTEGER column unchanged
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}

// Code samples the code of the day from rules.
func Code(date time.Time, salt string, rules game.Rules) (game.Code, int64) {
	seed := Seed(date, salt)
	return game.NewSpace(rules, rand.New(rand.NewSource(seed))).Sample(), seed
}
