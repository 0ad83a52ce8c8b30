package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimakogan/hepir/driver"
	"github.com/dimakogan/hepir/rpc"
	"github.com/sirupsen/logrus"
)

func main() {
	config := new(driver.Config).AddPirFlags().AddServerFlags()
	config.MeasureBandwidth = true
	config.Parse()

	prof := driver.NewProfiler(config.CpuProfile)
	defer prof.Close()

	pirDriver, err := driver.NewServerDriver()
	if err != nil {
		logrus.Fatalf("Failed to create server: %s", err)
	}

	if config.DBFile != "" {
		db, err := driver.LoadDBFile(config.DBFile)
		if err != nil {
			logrus.Fatalf("Failed to load database: %s", err)
		}
		if err := pirDriver.ConfigureDB(db, config.TestConfig); err != nil {
			logrus.Fatalf("Failed to configure server: %s", err)
		}
		watcher, err := driver.WatchDBFile(config.DBFile, pirDriver.Reload)
		if err != nil {
			logrus.Fatalf("Failed to watch database: %s", err)
		}
		defer watcher.Close()
	} else {
		var none int
		if err := pirDriver.Configure(config.TestConfig, &none); err != nil {
			logrus.Fatalf("Failed to configure server: %s", err)
		}
	}

	server, err := rpc.NewServer(config.Port, config.UseTLS)
	if err != nil {
		logrus.Fatalf("Failed to create RPC server: %s", err)
	}
	if err := server.RegisterName("PirServerDriver", pirDriver); err != nil {
		logrus.Fatalf("Failed to register PIR server: %s", err)
	}

	var statusServer *http.Server
	if config.StatusPort > 0 {
		statusServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", config.StatusPort),
			Handler: driver.StatusHandler(pirDriver),
		}
		go func() {
			logrus.Infof("Serving status on %s", statusServer.Addr)
			if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logrus.Errorf("Status server failed: %s", err)
			}
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		if statusServer != nil {
			statusServer.Close()
		}
		server.Close()
	}()

	if err := server.Serve(); err != nil {
		logrus.Fatalf("Failed to serve: %s", err)
	}
}
