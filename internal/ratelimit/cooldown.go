package ratelimit

import (
	"sync"
	"time"
)

// DefaultCooldownWindow 两次提交之间的默认冷却时间。
const DefaultCooldownWindow = 2 * time.Second

// Cooldown 是进程级的提交冷却限制器：距上一次已发起的提交不足一个
// 窗口期的提交会被拒绝。
//
// 状态是显式注入的（构造一个实例传给控制器），不依赖包级全局变量，
// 因此每个测试可以拥有隔离的实例。时间戳初始为零值，只在 Record
// 被调用时更新——即只有真正发出的投递才推进窗口，被拒绝的尝试不会。
//
// 这只是参考性的限流，客户端可绕过；真正的限流由上游后端负责。
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewCooldown 创建冷却限制器。window 非正值时使用默认窗口。
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	return &Cooldown{
		window: window,
		now:    time.Now,
	}
}

// Allow 判断当前是否允许提交。拒绝时不更新时间戳。
func (c *Cooldown) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Sub(c.last) >= c.window
}

// Record 记录一次已发起的投递。必须在请求发出之后调用，
// 无论投递成功还是失败。
func (c *Cooldown) Record() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.now()
}

// Window 返回冷却窗口长度。
func (c *Cooldown) Window() time.Duration {
	return c.window
}
