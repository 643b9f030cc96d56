package button

import (
	"sync/atomic"
	"time"

	log "musicbox-server-golang/logger"

	evbus "github.com/asaskevich/EventBus"
	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
)

const stopJoinTimeout = 2 * time.Second

// Controller USB按键/旋钮驱动
// 对外是On(action, callback)的回调注册接口；内部维护去抖状态机，
// 并在设备读取出错后用指数退避循环重新发现设备（热插拔容忍）
type Controller struct {
	cfg    Config
	opener DeviceOpener
	clock  clockwork.Clock

	callbacks evbus.Bus
	running   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}

	// 重连退避参数，测试会缩短
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewController 创建驱动，clock传nil时使用真实时钟
func NewController(cfg Config, opener DeviceOpener, clock clockwork.Clock) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{
		cfg:            cfg,
		opener:         opener,
		clock:          clock,
		callbacks:      evbus.New(),
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
}

// On 注册动作回调
func (c *Controller) On(action Action, callback func()) error {
	return c.callbacks.Subscribe(string(action), callback)
}

// Start 启动驱动
// 设备不存在时不报错, 后台循环会持续重试发现设备
func (c *Controller) Start() error {
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.runLoop()
	log.Infof("USB按键驱动已启动, device=%s", c.cfg.Device)
	return nil
}

// Stop 停止驱动并等待后台循环退出
func (c *Controller) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.stopCh)
	select {
	case <-c.doneCh:
	case <-time.After(stopJoinTimeout):
		log.Warnf("等待USB按键驱动退出超时")
	}
}

func (c *Controller) emit(action Action) {
	log.Debugf("按键动作: %s", action)
	c.callbacks.Publish(string(action))
}

// runLoop 设备发现与重连主循环
// 退避从1秒起步翻倍, 上限30秒, 连接成功后重置
func (c *Controller) runLoop() {
	defer close(c.doneCh)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.Multiplier = 2
	bo.MaxInterval = c.maxBackoff
	bo.MaxElapsedTime = 0

	for c.running.Load() {
		device, err := c.opener(c.cfg.Device)
		if err != nil {
			wait := bo.NextBackOff()
			log.Warnf("打开输入设备 %s 失败: %v, %v 后重试", c.cfg.Device, err, wait)
			if !c.sleep(wait) {
				return
			}
			continue
		}

		bo.Reset()
		log.Infof("输入设备 %s 已连接", c.cfg.Device)
		c.readLoop(device)
		device.Close()
		if !c.running.Load() {
			return
		}
		log.Warnf("输入设备 %s 断开, 进入重连", c.cfg.Device)
	}
}

// sleep 可被Stop打断的等待，返回false表示驱动已停止
func (c *Controller) sleep(d time.Duration) bool {
	select {
	case <-c.clock.After(d):
		return true
	case <-c.stopCh:
		return false
	}
}

// readLoop 消费单个设备句柄直到读取出错或驱动停止
func (c *Controller) readLoop(device InputDevice) {
	rawCh := make(chan RawEvent)
	errCh := make(chan error, 1)
	go func() {
		for {
			event, err := device.ReadEvent()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case rawCh <- event:
			case <-c.stopCh:
				return
			}
		}
	}()

	deb := newDebouncer(c.cfg, c.clock, c.emit)
	for {
		var timeout <-chan time.Time
		if deadline, armed := deb.deadline(); armed {
			wait := deadline.Sub(c.clock.Now())
			if wait < 0 {
				wait = 0
			}
			timeout = c.clock.After(wait)
		}
		select {
		case event := <-rawCh:
			deb.handle(event)
		case <-timeout:
			deb.expire()
		case err := <-errCh:
			log.Warnf("读取输入设备失败: %v", err)
			return
		case <-c.stopCh:
			return
		}
	}
}
