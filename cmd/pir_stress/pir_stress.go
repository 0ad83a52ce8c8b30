package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/dimakogan/hepir/driver"
	"github.com/dimakogan/hepir/pir"
	"github.com/paulbellamy/ratecounter"
	"github.com/sirupsen/logrus"
)

// Number of different records to read to avoid caching effects.
var NumDifferentReads = 100

func main() {
	config := new(driver.Config).AddPirFlags().AddClientFlags()
	numWorkers := config.FlagSet.Int("w", 2, "Num of concurrent clients")
	configure := config.FlagSet.Bool("configure", true, "Configure the server database from flags")
	config.Parse()

	fmt.Printf("Connecting to %s...", config.ServerAddr)
	proxy, err := driver.NewRpcProxy(config.ServerAddr, config.UseTLS, config.UsePersistent)
	if err != nil {
		logrus.Fatalf("Connection error: %s", err)
	}
	fmt.Printf("[OK]\n")

	if *configure {
		fmt.Printf("Setting up remote DB...")
		if err := proxy.Configure(config.TestConfig, nil); err != nil {
			logrus.Fatalf("Failed to Configure: %s", err)
		}
		fmt.Printf("[OK]\n")
	}

	var numRecords int
	if err := proxy.NumRecords(0, &numRecords); err != nil {
		logrus.Fatalf("Failed to get NumRecords: %s", err)
	}
	cached := make([]driver.RecordIndexVal, NumDifferentReads)
	for i := range cached {
		if err := proxy.GetRecord(rand.Intn(numRecords), &cached[i]); err != nil {
			logrus.Fatalf("Failed to GetRecord: %s", err)
		}
	}

	// We're recording marks-per-1second
	counter := ratecounter.NewRateCounter(1 * time.Second)
	errs := make(chan error, *numWorkers)

	fmt.Printf("Initializing %d clients (this may take a while)...", *numWorkers)
	readers := make([]pir.PIRReader, *numWorkers)
	for w := range readers {
		readers[w] = pir.NewPIRReader(proxy, pir.ClientOptions{})
		if err := readers[w].Init(config.PirType); err != nil {
			logrus.Fatalf("Failed to Initialize client: %s", err)
		}
	}
	fmt.Printf("[OK]\n")

	for _, reader := range readers {
		go func(reader pir.PIRReader) {
			for {
				rec := cached[rand.Intn(len(cached))]
				val, err := reader.Read(rec.Index)
				if err != nil {
					errs <- fmt.Errorf("failed to read record %d: %w", rec.Index, err)
					return
				}
				if !reflect.DeepEqual(val, rec.Value) {
					errs <- fmt.Errorf("mismatching record value at index %d", rec.Index)
					return
				}
				counter.Incr(1)
			}
		}(reader)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Printf("\rCurrent rate: %d QPS", counter.Rate())
		case err := <-errs:
			fmt.Println()
			logrus.Fatal(err)
		case <-c:
			fmt.Println()
			return
		}
	}
}
