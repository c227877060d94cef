package parkinglog

import "sync"

// keyLock 按 key（车辆 ID）串行化写入：
// 同一辆车的 解析 -> 建日志 -> 更新方向 -> 异常检测 必须互斥，
// 防止两次并发 check-in 同时成功。
type keyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[string]*sync.Mutex)}
}

func (kl *keyLock) lock(key string) *sync.Mutex {
	kl.mu.Lock()
	m, ok := kl.locks[key]
	if !ok {
		m = &sync.Mutex{}
		kl.locks[key] = m
	}
	kl.mu.Unlock()

	m.Lock()
	return m
}
