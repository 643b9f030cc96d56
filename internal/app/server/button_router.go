package server

import (
	"musicbox-server-golang/internal/domain/button"
	"musicbox-server-golang/internal/domain/eventbus"

	log "musicbox-server-golang/logger"
)

const buttonRouterSource = "usb_button"

// USBButtonRouter 把驱动回调翻译成总线事件, 纯翻译不做任何判定
type USBButtonRouter struct {
	bus        *eventbus.EventBus
	controller *button.Controller
}

// NewUSBButtonRouter 创建按键路由
func NewUSBButtonRouter(bus *eventbus.EventBus, controller *button.Controller) *USBButtonRouter {
	return &USBButtonRouter{bus: bus, controller: controller}
}

// Register 在驱动上注册全部动作回调
func (r *USBButtonRouter) Register() error {
	bindings := map[button.Action]string{
		button.ActionVolumeUp:   eventbus.EventVolumeUpRequested,
		button.ActionVolumeDown: eventbus.EventVolumeDownRequested,
		button.ActionPlayPause:  eventbus.EventButtonPressed,
		button.ActionNextTrack:  eventbus.EventButtonDoublePressed,
	}
	for action, eventName := range bindings {
		name := eventName
		if err := r.controller.On(action, func() {
			r.publish(name)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *USBButtonRouter) publish(name string) {
	event := eventbus.NewControlEvent(name, nil).WithSource(buttonRouterSource)
	if !r.bus.Publish(event) {
		log.Warnf("发布按键事件 %s 失败", name)
	}
}
