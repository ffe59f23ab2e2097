package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mailcapture/backend/internal/domain"
	"mailcapture/backend/internal/ratelimit"
	"mailcapture/backend/internal/storage/memory"
	"mailcapture/backend/internal/upstream"
)

// fakeUpstream 模拟上游投递客户端
type fakeUpstream struct {
	calls     int
	lastEmail string
	result    *upstream.Result
	err       error
}

func (f *fakeUpstream) Deliver(ctx context.Context, email string) (*upstream.Result, error) {
	f.calls++
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestService(up UpstreamClient, window time.Duration) (*SubscriptionService, *memory.Store) {
	store := memory.NewStore()
	svc := NewSubscriptionService(
		ratelimit.NewCooldown(window),
		up,
		store,
		nil, // 测试不注册指标
		zap.NewNop(),
	)
	return svc, store
}

func TestSubmitSuccess(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: true, Message: "Welcome!"}}
	svc, store := newTestService(up, 50*time.Millisecond)

	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: " USER@Example.COM ", IP: "10.0.0.1"})

	assert.NoError(t, err)
	assert.Equal(t, domain.FeedbackSuccess, feedback.Kind)
	assert.Equal(t, "Welcome!", feedback.Message)

	// 投递前完成净化
	assert.Equal(t, "user@example.com", up.lastEmail)

	// 落一条 accepted 审计记录
	records, total, listErr := store.ListSubmissions(10, 0)
	assert.NoError(t, listErr)
	assert.Equal(t, 1, total)
	assert.Equal(t, domain.OutcomeAccepted, records[0].Outcome)
	assert.Equal(t, "user@example.com", records[0].Email)
	assert.Equal(t, "10.0.0.1", records[0].IPSource)
}

func TestSubmitSuccessDefaultMessage(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: true}}
	svc, _ := newTestService(up, 50*time.Millisecond)

	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})

	assert.NoError(t, err)
	assert.Equal(t, domain.MsgSubmitSuccess, feedback.Message)
}

func TestSubmitEmptyEmail(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: true}}
	svc, store := newTestService(up, 50*time.Millisecond)

	tests := []struct {
		name  string
		input string
	}{
		{"空字符串", ""},
		{"纯空白", "   \t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedback, err := svc.Submit(context.Background(), SubmitInput{Email: tt.input})

			assert.ErrorIs(t, err, ErrEmailRequired)
			assert.Equal(t, domain.FeedbackError, feedback.Kind)
			assert.Equal(t, domain.MsgEmailRequired, feedback.Message)
		})
	}

	// 空提交不触发任何网络调用，也不落审计记录
	assert.Equal(t, 0, up.calls)
	_, total, _ := store.ListSubmissions(10, 0)
	assert.Equal(t, 0, total)
}

func TestSubmitInvalidEmail(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: true}}
	svc, _ := newTestService(up, 50*time.Millisecond)

	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: "not-an-email"})

	assert.ErrorIs(t, err, ErrEmailInvalid)
	assert.Equal(t, domain.MsgEmailInvalid, feedback.Message)
	assert.Equal(t, 0, up.calls)
}

func TestSubmitUpstreamRejection(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: false, Message: "Already subscribed"}}
	svc, store := newTestService(up, 50*time.Millisecond)

	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})

	assert.ErrorIs(t, err, ErrUpstreamRejected)
	assert.Equal(t, domain.FeedbackError, feedback.Kind)
	assert.Equal(t, "Already subscribed", feedback.Message)

	records, _, _ := store.ListSubmissions(10, 0)
	assert.Equal(t, domain.OutcomeRejected, records[0].Outcome)
}

func TestSubmitUpstreamTransportError(t *testing.T) {
	up := &fakeUpstream{err: context.DeadlineExceeded}
	svc, store := newTestService(up, 50*time.Millisecond)

	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})

	assert.ErrorIs(t, err, ErrUpstreamFailed)
	assert.Equal(t, domain.MsgSubmitFailed, feedback.Message)

	records, _, _ := store.ListSubmissions(10, 0)
	assert.Equal(t, domain.OutcomeFailed, records[0].Outcome)
}

func TestSubmitCooldown(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: true}}
	svc, _ := newTestService(up, 80*time.Millisecond)

	// 第一次投递成功并推进冷却窗口
	_, err := svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, 1, up.calls)

	// 窗口内的第二次提交被拒绝，且不触发投递
	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, domain.MsgSubmitCooldown, feedback.Message)
	assert.Equal(t, 1, up.calls)

	// 窗口过后恢复
	time.Sleep(100 * time.Millisecond)
	_, err = svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, 2, up.calls)
}

func TestSubmitFailedDeliveryStillAdvancesCooldown(t *testing.T) {
	up := &fakeUpstream{err: context.DeadlineExceeded}
	svc, _ := newTestService(up, 80*time.Millisecond)

	_, err := svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})
	assert.ErrorIs(t, err, ErrUpstreamFailed)

	// 失败的投递同样推进窗口
	_, err = svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, 1, up.calls)
}

// slowUpstream 模拟响应缓慢的上游，计数器并发安全
type slowUpstream struct {
	mu     sync.Mutex
	calls  int
	delay  time.Duration
	result *upstream.Result
}

func (f *slowUpstream) Deliver(ctx context.Context, email string) (*upstream.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	time.Sleep(f.delay)
	return f.result, nil
}

func (f *slowUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSubmitInFlightDeliveryBlocksConcurrent(t *testing.T) {
	up := &slowUpstream{delay: 150 * time.Millisecond, result: &upstream.Result{Success: true}}
	svc, _ := newTestService(up, time.Second)

	// 第一次提交在后台发起，上游响应缓慢
	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), SubmitInput{Email: "first@example.com"})
		done <- err
	}()

	// 等待第一次投递进入在途状态
	time.Sleep(50 * time.Millisecond)

	// 在途期间的并发提交被冷却窗口拦住，不产生第二次投递
	feedback, err := svc.Submit(context.Background(), SubmitInput{Email: "second@example.com"})
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, domain.MsgSubmitCooldown, feedback.Message)

	assert.NoError(t, <-done)
	assert.Equal(t, 1, up.callCount())
}

func TestSubmitRejectionDoesNotAdvanceCooldown(t *testing.T) {
	up := &fakeUpstream{result: &upstream.Result{Success: true}}
	svc, _ := newTestService(up, 80*time.Millisecond)

	// 验证失败不发起投递，也不消耗冷却窗口
	_, err := svc.Submit(context.Background(), SubmitInput{Email: "bad input"})
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = svc.Submit(context.Background(), SubmitInput{Email: "user@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, 1, up.calls)
}

func TestValidateLive(t *testing.T) {
	svc, _ := newTestService(&fakeUpstream{}, 50*time.Millisecond)

	tests := []struct {
		name    string
		input   string
		valid   bool
		message string
	}{
		{"有效地址", "user@example.com", true, ""},
		{"空输入", "  ", false, domain.MsgEmailRequired},
		{"格式错误", "nope", false, domain.MsgEmailInvalid},
		{"净化后有效", " USER@EXAMPLE.COM ", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Validate(tt.input)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, tt.message, result.Message)
		})
	}
}
