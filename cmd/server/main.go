package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"musicbox-server-golang/internal/app/server"
	"musicbox-server-golang/internal/domain/config"

	log "musicbox-server-golang/logger"
)

func main() {
	configFile := flag.String("c", "config/config.yaml", "配置文件路径")
	flag.Parse()

	if err := config.Init(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(nil, nil)
	if err != nil {
		log.Errorf("装配服务失败: %v", err)
		os.Exit(1)
	}
	if err := srv.Start(); err != nil {
		log.Errorf("启动服务失败: %v", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("收到信号 %v, 开始退出", sig)

	srv.Stop()
}
