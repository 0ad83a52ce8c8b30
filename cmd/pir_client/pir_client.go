package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/dimakogan/hepir/driver"
	"github.com/dimakogan/hepir/pir"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

func main() {
	config := new(driver.Config).AddPirFlags().AddClientFlags()
	numQueries := config.FlagSet.Int("q", 100, "Number of queries to do")
	latenciesFile := config.FlagSet.String("latenciesFile", "", "Latencies output filename")
	usePublicKey := config.FlagSet.Bool("publicKey", false, "Encrypt queries with the public key")
	config.Parse()

	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed, color.Bold).SprintFunc()
	info := color.New(color.FgCyan).SprintfFunc()

	if config.ServerAddr == "" {
		logrus.Fatal("Missing -serverAddr")
	}
	fmt.Printf("Connecting to %s...", config.ServerAddr)
	proxy, err := driver.NewRpcProxy(config.ServerAddr, config.UseTLS, config.UsePersistent)
	if err != nil {
		fmt.Println(failed("[FAILED]"))
		logrus.Fatalf("Connection error: %s", err)
	}
	defer proxy.Close()
	var numRecords int
	if err := proxy.NumRecords(0, &numRecords); err != nil {
		fmt.Println(failed("[FAILED]"))
		logrus.Fatalf("Server is not ready: %s", err)
	}
	fmt.Println(ok("[OK]"))

	fmt.Printf("Obtaining %s hint and uploading keys...", config.PirType)
	start := time.Now()
	reader := pir.NewPIRReader(proxy, pir.ClientOptions{PublicKey: *usePublicKey})
	if err := reader.Init(config.PirType); err != nil {
		fmt.Println(failed("[FAILED]"))
		logrus.Fatalf("Failed to initialize client: %s", err)
	}
	fmt.Printf("%s %s\n", ok("[OK]"), info("(%v)", time.Since(start).Round(time.Millisecond)))

	latencies := make([]time.Duration, 0, *numQueries)
	mismatches := 0
	for i := 0; i < *numQueries; i++ {
		var rec driver.RecordIndexVal
		if err := proxy.GetRecord(rand.Intn(numRecords), &rec); err != nil {
			logrus.Fatalf("Failed to get record: %s", err)
		}
		start := time.Now()
		val, err := reader.Read(rec.Index)
		if err != nil {
			logrus.Fatalf("Failed to read record %d: %s", rec.Index, err)
		}
		latencies = append(latencies, time.Since(start))
		if !equal(val, rec.Value) {
			mismatches++
			logrus.WithField("index", rec.Index).Error("mismatching record value")
		}
	}

	if len(*latenciesFile) > 0 {
		lOut, err := os.Create(*latenciesFile)
		if err != nil {
			logrus.Fatalf("Failed to create latencies file: %s", err)
		}
		for _, l := range latencies {
			fmt.Fprintf(lOut, "%d\n", l.Microseconds())
		}
		lOut.Close()
	}

	var offlineBytes, onlineBytes int
	if err := proxy.GetOfflineBytes(0, &offlineBytes); err != nil {
		logrus.Fatal(err)
	}
	if err := proxy.GetOnlineBytes(0, &onlineBytes); err != nil {
		logrus.Fatal(err)
	}
	fmt.Printf("Completed %d queries, mean latency %s\n", len(latencies), info("%v", mean(latencies)))
	fmt.Printf("Offline traffic: %s\n", info("%s", datasize.ByteSize(offlineBytes).HumanReadable()))
	if len(latencies) > 0 {
		fmt.Printf("Online traffic: %s per query\n",
			info("%s", datasize.ByteSize(onlineBytes/len(latencies)).HumanReadable()))
	}
	if mismatches > 0 {
		fmt.Println(failed(fmt.Sprintf("%d mismatching records", mismatches)))
		os.Exit(1)
	}
}

func equal(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mean(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return (sum / time.Duration(len(ds))).Round(time.Microsecond)
}
