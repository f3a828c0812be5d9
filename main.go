package main

import (
	"ai_impression/config"
	"ai_impression/constant"
	"ai_impression/pkg/projectlog"
	"ai_impression/repository/xormimplement"
	"ai_impression/router"
	"ai_impression/service/factory"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const drainTimeout = 30 * time.Second

func main() {
	defer func() {
		if serviceErr := recover(); serviceErr != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)
			log.Println("The service exits abnormally, error message:【", serviceErr, "】")
			log.Println("Stack info: ")
			fmt.Printf("==> %s\n", string(buf[:n]))
			os.Exit(1)
		}
	}()

	projectlog.Init()

	// 配置非法时拒绝启动
	if _, err := config.LoadPipelineOptions(); err != nil {
		logrus.Fatalf("load pipeline options error: %v", err)
	}
	if err := xormimplement.GetRepositoryFactoryInstance().Sync(); err != nil {
		logrus.Fatalf("sync tables error: %v", err)
	}

	services := factory.GetServiceFactory()
	dispatchCtx, dispatchCancel := context.WithCancel(context.Background())
	services.Dispatcher().Start(dispatchCtx)

	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetInstance()
	retryInterval := time.Duration(cfg.GetIntOrDefault(config.DispatcherRetryIntervalSeconds, constant.DefaultRetryIntervalSeconds)) * time.Second
	retryBatch := cfg.GetIntOrDefault(config.DispatcherRetryBatchSize, constant.DefaultRetryBatchSize)
	go services.NewImpressionService().RunRetryLoop(ctx, retryInterval, retryBatch)

	server := &http.Server{
		Addr:    cfg.GetString(config.AppHost),
		Handler: router.GetInstance(),
	}
	go startServer(server)

	sig := waitStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown error: %v", err)
	}
	cancel()
	// 排空超时后取消仍在处理的消息，未完成的记录留给重试
	drainTimer := time.AfterFunc(drainTimeout, dispatchCancel)
	services.Dispatcher().Stop()
	drainTimer.Stop()
	dispatchCancel()
	if err := xormimplement.GetRepositoryFactoryInstance().Close(); err != nil {
		logrus.Errorf("close repository factory error: %v", err)
	}

	if sig == syscall.SIGTERM || sig == syscall.SIGINT {
		log.Println("exit: bye :-).")
		os.Exit(0)
	}
	log.Println("exit: bye :-(.")
	os.Exit(1)
}

func startServer(server *http.Server) {
	logrus.Infof("listen at %v", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Errorf("Failed to ListenAndServer at %v, err = %v", server.Addr, err)
		os.Exit(1)
	}
}

func waitStop() os.Signal {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sc
	log.Printf("exit: signal=<%d>.\n", sig)
	return sig
}
