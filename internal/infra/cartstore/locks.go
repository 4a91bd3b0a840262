package cartstore

import (
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// セッションIDごとの直列化用mutex。固定本数のストライプに載せるので、
// セッションが増えてもロックの数は増えない。別セッションが同じストライプを
// 共有することはあるが、直列化が少し粗くなるだけで正しさには影響しない。
type sessionLocks struct {
	stripes [lockStripes]sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{}
}

func (l *sessionLocks) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))

	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m
}
