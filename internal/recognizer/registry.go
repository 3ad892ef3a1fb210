package recognizer

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 管理可用的文本检测器
type Registry struct {
	detectors map[string]Detector
	mu        sync.RWMutex
}

// NewRegistry 创建一个新的检测器注册表
func NewRegistry() *Registry {
	return &Registry{
		detectors: make(map[string]Detector),
	}
}

// Register 注册一个检测器，同名检测器会被替换
func (r *Registry) Register(d Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[d.Name()] = d
}

// Get 根据名称检索检测器
func (r *Registry) Get(name string) (Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[name]
	return d, ok
}

// Names 返回已注册检测器的名称（已排序）
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll 关闭所有已注册的检测器，返回遇到的第一个错误
func (r *Registry) CloseAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var first error
	for name, d := range r.detectors {
		if err := d.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", name, err)
		}
	}
	return first
}
