package main

import (
	"fmt"
	"os"
	"path"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dimakogan/hepir/driver"
	"github.com/dimakogan/hepir/pir"
	"github.com/sirupsen/logrus"
)

func check(err error) {
	if err != nil {
		logrus.Fatal(err)
	}
}

func main() {
	config := new(driver.Config).AddPirFlags().AddClientFlags().AddBenchmarkFlags().Parse()

	prof := driver.NewProfiler(config.CpuProfile)
	defer prof.Close()

	fmt.Printf("# %s %s\n", path.Base(os.Args[0]), strings.Join(os.Args[1:], " "))
	fmt.Printf("%10s%10s%22s%22s%15s%22s%22s%15s\n",
		"numRecords", "pirType", "OfflineServerTime[us]", "OfflineClientTime[us]", "OfflineBytes",
		"OnlineServerTime[us]", "OnlineClientTime[us]", "OnlineBytes")

	pirDriver, err := config.ServerDriver()
	if err != nil {
		logrus.Fatalf("Failed to create driver: %s", err)
	}

	rand := pir.RandSource()

	var none int
	check(pirDriver.Configure(config.TestConfig, &none))

	var reader pir.PIRReader
	result := testing.Benchmark(func(b *testing.B) {
		check(pirDriver.ResetMetrics(0, &none))
		var clientInitTime time.Duration
		for i := 0; i < b.N; i++ {
			start := time.Now()
			reader = pir.NewPIRReader(pirDriver, pir.ClientOptions{})
			check(reader.Init(config.PirType))
			clientInitTime += time.Since(start)
		}

		var serverOfflineTime time.Duration
		check(pirDriver.GetOfflineTimer(0, &serverOfflineTime))
		b.ReportMetric(float64(serverOfflineTime.Microseconds())/float64(b.N), "hint-us/op")
		b.ReportMetric(float64((clientInitTime-serverOfflineTime).Microseconds())/float64(b.N), "init-us/op")

		var offlineBytes int
		check(pirDriver.GetOfflineBytes(0, &offlineBytes))
		b.ReportMetric(float64(offlineBytes)/float64(b.N), "hint-bytes/op")
	})
	fmt.Printf("%10d%10s%22d%22d%15d",
		config.NumRecords,
		config.PirType,
		int(result.Extra["hint-us/op"]),
		int(result.Extra["init-us/op"]),
		int(result.Extra["hint-bytes/op"]))

	result = testing.Benchmark(func(b *testing.B) {
		check(pirDriver.ResetMetrics(0, &none))
		var clientReadTime time.Duration
		for i := 0; i < b.N; i++ {
			var rec driver.RecordIndexVal
			check(pirDriver.GetRecord(rand.Intn(config.NumRecords), &rec))

			start := time.Now()
			val, err := reader.Read(rec.Index)
			clientReadTime += time.Since(start)
			check(err)
			if !reflect.DeepEqual(val, rec.Value) {
				logrus.Fatalf("Mismatching record value at index %d", rec.Index)
			}
		}
		var serverOnlineTime time.Duration
		check(pirDriver.GetOnlineTimer(0, &serverOnlineTime))
		b.ReportMetric(float64(serverOnlineTime.Microseconds())/float64(b.N), "answer-us/op")
		b.ReportMetric(float64((clientReadTime-serverOnlineTime).Microseconds())/float64(b.N), "read-us/op")

		var onlineBytes int
		check(pirDriver.GetOnlineBytes(0, &onlineBytes))
		b.ReportMetric(float64(onlineBytes)/float64(b.N), "answer-bytes/op")
	})
	fmt.Printf("%22d%22d%15d\n",
		int(result.Extra["answer-us/op"]),
		int(result.Extra["read-us/op"]),
		int(result.Extra["answer-bytes/op"]))
}
