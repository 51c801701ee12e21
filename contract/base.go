package contract

import (
	"sort"
	"time"

	"github.com/eolbcV2/meta"
)

// 方法处理函数：所有合约方法统一的签名
type Handler func(args map[string]interface{}) (interface{}, error)

// 账本可部署的合约能力接口
type Contract interface {
	Name() string
	Invoke(method string, args map[string]interface{}) (interface{}, error)
	Methods() []string
}

// 规则引擎在合约能力之上暴露合规评估接口
type RuleEngine interface {
	Contract
	CheckCompliance(action string, kwargs map[string]interface{}) map[string]interface{}
	ApplicableRules() []meta.RuleDescriptor
}

// 带更新时间戳的状态项
type StateEntry struct {
	Value     interface{} `json:"value"`
	UpdatedAt int64       `json:"updated_at"`
}

// 各规则引擎共享的合约基础：方法注册表、状态map、调用计数
type Base struct {
	name       string
	handlers   map[string]Handler
	state      map[string]StateEntry
	totalCalls int
	createdAt  time.Time
}

func NewBase(name string) *Base {
	b := &Base{
		name:      name,
		handlers:  map[string]Handler{},
		state:     map[string]StateEntry{},
		createdAt: time.Now(),
	}
	b.Register("GetMetrics", func(args map[string]interface{}) (interface{}, error) {
		return b.Metrics(), nil
	})
	return b
}

func (b *Base) Name() string {
	return b.name
}

// 注册方法到注册表，同名覆盖
func (b *Base) Register(method string, h Handler) {
	b.handlers[method] = h
}

// 按方法名分发调用；方法不存在返回CapabilityError
func (b *Base) Invoke(method string, args map[string]interface{}) (interface{}, error) {
	h, ok := b.handlers[method]
	if !ok {
		return nil, &CapabilityError{Contract: b.name, Method: method}
	}
	b.totalCalls++
	return h(args)
}

// 已注册的方法名，排序后返回
func (b *Base) Methods() []string {
	methods := make([]string, 0, len(b.handlers))
	for m := range b.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func (b *Base) SetState(key string, value interface{}) {
	b.state[key] = StateEntry{Value: value, UpdatedAt: time.Now().Unix()}
}

func (b *Base) GetState(key string) (interface{}, bool) {
	entry, ok := b.state[key]
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

func (b *Base) StateKeys() []string {
	keys := make([]string, 0, len(b.state))
	for k := range b.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// 调用计数指标
func (b *Base) Metrics() map[string]interface{} {
	uptime := time.Since(b.createdAt).Seconds()
	perHour := 0.0
	if uptime > 0 {
		perHour = float64(b.totalCalls) / (uptime / 3600.0)
	}
	return map[string]interface{}{
		"total_calls":            b.totalCalls,
		"uptime_seconds":         uptime,
		"average_calls_per_hour": perHour,
	}
}

func (b *Base) TotalCalls() int {
	return b.totalCalls
}
