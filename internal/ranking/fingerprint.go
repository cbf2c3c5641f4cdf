package ranking

import (
	"encoding/binary"

	"github.com/Adithya-Monish-Kumar-K/content-store/internal/model"
	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes every field of every post, in order. Two inputs with
// the same fingerprint rank identically.
func Fingerprint(posts []model.Post) uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	writeStr := func(s string) {
		writeInt(len(s))
		_, _ = d.WriteString(s)
	}
	writeInt(len(posts))
	for _, p := range posts {
		writeInt(p.ID)
		writeInt(p.OwnerID)
		writeInt(p.LikeCount)
		writeStr(p.Caption)
		writeStr(p.MediaRef)
	}
	return d.Sum64()
}
