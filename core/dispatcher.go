package core

import (
	"context"
	"fmt"
	"gemini-gateway/models"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxRetriesPerCredential = 2
	DefaultBaseDelay               = 1500 * time.Millisecond
	DefaultMaxDelay                = 30 * time.Second
	DefaultBackoffMultiplier       = 2.0
)

// DispatchConfig 重试预算与退避参数
type DispatchConfig struct {
	// MaxRetriesPerCredential 每个密钥最多 MaxRetriesPerCredential+1 次尝试
	MaxRetriesPerCredential int
	BaseDelay               time.Duration
	MaxDelay                time.Duration
	Multiplier              float64
}

// DefaultDispatchConfig 默认参数: 2 次重试，1500ms 起步，翻倍，30s 封顶
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		MaxRetriesPerCredential: DefaultMaxRetriesPerCredential,
		BaseDelay:               DefaultBaseDelay,
		MaxDelay:                DefaultMaxDelay,
		Multiplier:              DefaultBackoffMultiplier,
	}
}

func (c DispatchConfig) normalized() DispatchConfig {
	if c.MaxRetriesPerCredential < 0 {
		c.MaxRetriesPerCredential = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = DefaultBackoffMultiplier
	}
	return c
}

// newBackOff 只作为延迟序列使用: 无抖动、无总时长上限，封顶 MaxDelay
func (c DispatchConfig) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.BaseDelay
	bo.Multiplier = c.Multiplier
	bo.MaxInterval = c.MaxDelay
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// Attempt 一次尝试的记录 (Delay 为该次尝试前的退避时长)
type Attempt struct {
	CredentialIndex int
	Number          int
	Delay           time.Duration
}

// Outcome 分发的唯一结果
type Outcome struct {
	OK         bool
	StatusCode int
	RawBody    []byte
	Kind       FailureKind
	Err        error
	Attempts   []Attempt
}

// Dispatcher 按密钥池顺序发起尝试，依据 Classify 决定重试/切换/终止
// 自身无可变状态，可被并发请求共享；每次 Dispatch 的计数器都是局部的
type Dispatcher struct {
	pool      *CredentialPool
	attempter Attempter
	logger    *logrus.Logger
	cfg       DispatchConfig
	sleep     Sleeper
}

// Option Dispatcher 可选项
type Option func(*Dispatcher)

// WithSleeper 替换退避等待实现 (测试用)
func WithSleeper(s Sleeper) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sleep = s
		}
	}
}

// NewDispatcher 构造函数强制要求依赖注入
func NewDispatcher(pool *CredentialPool, attempter Attempter, logger *logrus.Logger, cfg DispatchConfig, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Dispatcher{
		pool:      pool,
		attempter: attempter,
		logger:    logger,
		cfg:       cfg.normalized(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pool 只读密钥池
func (d *Dispatcher) Pool() *CredentialPool {
	return d.pool
}

// Config 生效的分发参数
func (d *Dispatcher) Config() DispatchConfig {
	return d.cfg
}

// Dispatch 执行一次完整分发，总是返回且只返回一个 Outcome
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.OutboundRequest) Outcome {
	start := time.Now()
	log := d.logger.WithField("request_id", RequestIDFrom(ctx))

	var outcome Outcome
	switch {
	case d.pool.Len() == 0:
		log.Error("💀 Dispatch refused: credential pool is empty")
		outcome = failure(fmt.Errorf("%w: pool is empty", ErrConfiguration), TransportResult{})
	case req == nil || len(req.Contents) == 0:
		outcome = failure(ErrEmptyRequest, TransportResult{})
	default:
		run := &dispatchRun{
			d:     d,
			log:   log,
			req:   req,
			bo:    d.cfg.newBackOff(),
		}
		outcome = run.execute(ctx)
	}

	DispatchOutcomes.WithLabelValues(outcomeLabel(outcome)).Inc()
	DispatchDuration.Observe(time.Since(start).Seconds())
	return outcome
}

// dispatchState 状态机状态
type dispatchState int

const (
	statePerCredentialAttempt dispatchState = iota
	stateBackoffWait
	stateAdvanceCredential
	stateSucceeded
	stateFatalStop
	stateExhausted
	stateTimedOut
)

func (s dispatchState) terminal() bool {
	return s >= stateSucceeded
}

func (s dispatchState) String() string {
	switch s {
	case statePerCredentialAttempt:
		return "PerCredentialAttempt"
	case stateBackoffWait:
		return "BackoffWait"
	case stateAdvanceCredential:
		return "AdvanceCredential"
	case stateSucceeded:
		return "Succeeded"
	case stateFatalStop:
		return "FatalStop"
	case stateExhausted:
		return "Exhausted"
	case stateTimedOut:
		return "TimedOut"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// dispatchRun 单次分发的全部可变状态
type dispatchRun struct {
	d   *Dispatcher
	log *logrus.Entry
	req *models.OutboundRequest

	credIndex int
	attempt   int
	bo        *backoff.ExponentialBackOff // 当前密钥的退避序列
	waited    time.Duration               // 当前尝试前已等待的时长

	last    TransportResult
	lastErr error

	attempts []Attempt
	outcome  Outcome
}

func (r *dispatchRun) execute(ctx context.Context) Outcome {
	r.attempt = 1
	state := statePerCredentialAttempt
	for !state.terminal() {
		state = r.next(ctx, state)
	}
	r.outcome.Attempts = r.attempts
	return r.outcome
}

// next 状态转移函数
func (r *dispatchRun) next(ctx context.Context, state dispatchState) dispatchState {
	switch state {
	case statePerCredentialAttempt:
		return r.attemptOnce(ctx)
	case stateBackoffWait:
		return r.backoff(ctx)
	case stateAdvanceCredential:
		return r.advance()
	default:
		return state
	}
}

func (r *dispatchRun) attemptOnce(ctx context.Context) dispatchState {
	if ctx.Err() != nil {
		return r.timedOut(ctx)
	}

	pool := r.d.pool
	cred := pool.At(r.credIndex)
	r.attempts = append(r.attempts, Attempt{
		CredentialIndex: cred.Index,
		Number:          r.attempt,
		Delay:           r.waited,
	})

	budget := r.d.cfg.MaxRetriesPerCredential + 1
	r.log.Infof("🎯 Attempt %d/%d: credential %d/%d (Key: %s)",
		r.attempt, budget, cred.Index+1, pool.Len(), cred.Masked())

	credLabel := strconv.Itoa(cred.Index)
	started := time.Now()
	res := r.d.attempter.Attempt(ctx, cred, r.req)
	UpstreamLatency.WithLabelValues(credLabel).Observe(time.Since(started).Seconds())

	if res.Succeeded() {
		UpstreamAttempts.WithLabelValues(credLabel, "success").Inc()
		r.log.Infof("✅ Success: credential %d | Status: %d | Latency: %.0fms",
			cred.Index+1, res.StatusCode, float64(time.Since(started).Milliseconds()))
		r.outcome = Outcome{OK: true, StatusCode: res.StatusCode, RawBody: res.Body}
		return stateSucceeded
	}

	// 调用方截止时间到达时不再切换密钥
	if ctx.Err() != nil {
		UpstreamAttempts.WithLabelValues(credLabel, "timeout").Inc()
		return r.timedOut(ctx)
	}

	disposition := Classify(res)
	UpstreamAttempts.WithLabelValues(credLabel, disposition.String()).Inc()
	err := errorFor(disposition, res)

	switch disposition {
	case DispositionNetworkFailure:
		r.log.Warnf("⚠️ Attempt %d Failed: Network error - %v", r.attempt, res.Err)
		r.record(res, err)
		return stateAdvanceCredential

	case DispositionRetrySame:
		r.record(res, err)
		if r.attempt < budget {
			r.log.Warnf("⚠️ Attempt %d Failed: %d (Service Unavailable) - retrying", r.attempt, res.StatusCode)
			return stateBackoffWait
		}
		r.log.Warnf("⚠️ Attempt %d Failed: %d (Service Unavailable) - retry budget spent", r.attempt, res.StatusCode)
		return stateAdvanceCredential

	case DispositionFailover:
		r.log.Warnf("⚠️ Attempt %d Failed: %d (Quota Exceeded) - switching credential", r.attempt, res.StatusCode)
		r.record(res, err)
		return stateAdvanceCredential

	default:
		r.log.Errorf("❌ Attempt %d Failed: %d (Fatal) - stopping dispatch", r.attempt, res.StatusCode)
		r.outcome = failure(err, res)
		return stateFatalStop
	}
}

func (r *dispatchRun) backoff(ctx context.Context) dispatchState {
	wait := r.bo.NextBackOff()
	r.log.Debugf("⏳ Backing off %v before attempt %d", wait, r.attempt+1)
	BackoffWaits.Inc()
	if err := r.d.sleep(ctx, wait); err != nil {
		return r.timedOut(ctx)
	}
	r.waited = wait
	r.attempt++
	return statePerCredentialAttempt
}

func (r *dispatchRun) advance() dispatchState {
	if r.credIndex+1 < r.d.pool.Len() {
		r.credIndex++
		r.attempt = 1
		r.bo.Reset()
		r.waited = 0
		r.log.Infof("🔄 Switched to next credential %d/%d", r.credIndex+1, r.d.pool.Len())
		return statePerCredentialAttempt
	}

	if r.lastErr == nil {
		r.outcome = failure(ErrAllCredentialsFailed, TransportResult{})
	} else {
		r.outcome = failure(r.lastErr, r.last)
	}
	r.log.Errorf("💀 Failed: all %d credentials exhausted (%s)", r.d.pool.Len(), r.outcome.Kind)
	return stateExhausted
}

func (r *dispatchRun) timedOut(ctx context.Context) dispatchState {
	r.log.Warnf("⏱️ Dispatch aborted on credential %d attempt %d: %v", r.credIndex+1, r.attempt, ctx.Err())
	r.outcome = failure(fmt.Errorf("%w: %v", ErrTimeout, ctx.Err()), TransportResult{})
	return stateTimedOut
}

// record 保留最后一次可恢复错误，池耗尽时原样返回
func (r *dispatchRun) record(res TransportResult, err error) {
	r.last = res
	r.lastErr = err
}

func failure(err error, res TransportResult) Outcome {
	return Outcome{
		OK:         false,
		StatusCode: res.StatusCode,
		RawBody:    res.Body,
		Kind:       KindOf(err),
		Err:        err,
	}
}

// sleepContext 可被 ctx 打断的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type requestIDKey struct{}

// WithRequestID 在 ctx 中附带请求 ID，用于日志关联
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 取出请求 ID，不存在时为空串
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
