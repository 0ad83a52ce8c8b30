package driver

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dimakogan/hepir/pir"
	"github.com/sirupsen/logrus"
)

type Config struct {
	TestConfig

	UseTLS     bool
	CpuProfile string
	LogLevel   string

	// For client
	PirType       pir.PirType
	ServerAddr    string
	UsePersistent bool

	// For server
	Port       int
	StatusPort int
	DBFile     string

	Progress bool

	pirTypeStr string

	FlagSet *flag.FlagSet
}

func (c *Config) AddPirFlags() *Config {
	c.FlagSet = flag.CommandLine
	c.FlagSet.IntVar(&c.NumRecords, "numRecords", 1024, "Num DB records")
	c.FlagSet.IntVar(&c.RecordSize, "recordSize", 8, "Record size in plaintext integers")
	c.FlagSet.IntVar(&c.Degree, "degree", 4096, "Ring degree N")
	c.FlagSet.IntVar(&c.PlainBits, "plainBits", 16, "Plaintext modulus size in bits")
	c.FlagSet.IntVar(&c.NumDims, "dims", 2, "Number of dimensions of the index PIR hypercube")
	c.FlagSet.IntVar(&c.Workers, "workers", 0, "Worker goroutines (default: number of CPUs)")
	c.FlagSet.StringVar(&c.pirTypeStr, "pirType", pir.Index.String(),
		fmt.Sprintf("PIR type: [%s]", strings.Join(PirTypeStrings(), "|")))
	c.FlagSet.StringVar(&c.CpuProfile, "cpuprofile", "", "write cpu profile to `file`")
	c.FlagSet.StringVar(&c.LogLevel, "logLevel", "info", "logrus level")
	return c
}

func (c *Config) AddClientFlags() *Config {
	c.FlagSet.StringVar(&c.ServerAddr, "serverAddr", "", "<HOSTNAME>:<PORT> of server for RPC test")
	c.FlagSet.BoolVar(&c.UseTLS, "tls", true, "Should use TLS")
	c.FlagSet.BoolVar(&c.UsePersistent, "persistent", false, "Should use peristent connection to server")
	return c
}

func (c *Config) AddServerFlags() *Config {
	c.FlagSet.BoolVar(&c.UseTLS, "tls", true, "Should use TLS")
	c.FlagSet.IntVar(&c.Port, "p", 12345, "Listening port")
	c.FlagSet.IntVar(&c.StatusPort, "statusPort", 0, "Port of the HTTP status endpoint (0 disables it)")
	c.FlagSet.StringVar(&c.DBFile, "db", "", "CSV database file, reloaded when it changes (default: random records)")
	c.FlagSet.IntVar(&c.MaxSessions, "maxSessions", pir.DefaultMaxSessions, "Max number of client key sessions")
	return c
}

func (c *Config) AddBenchmarkFlags() *Config {
	c.FlagSet.BoolVar(&c.Progress, "progress", true, "Show benchmarks progress")
	c.MeasureBandwidth = true
	return c
}

func (c *Config) Parse() *Config {
	if c.FlagSet.Parsed() {
		return c
	}
	if err := c.FlagSet.Parse(os.Args[1:]); err != nil {
		logrus.Fatalf("%v", err)
	}
	var err error
	c.PirType, err = pir.PirTypeString(c.pirTypeStr)
	if err != nil {
		logrus.Fatalf("Bad PirType: %s\n", c.pirTypeStr)
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Fatalf("Bad log level: %s\n", c.LogLevel)
	}
	logrus.SetLevel(level)
	return c
}

func (c *Config) ServerDriver() (PirServerDriver, error) {
	c.Parse()

	if c.ServerAddr != "" {
		return NewRpcProxy(c.ServerAddr, c.UseTLS, c.UsePersistent)
	}
	return NewServerDriver()
}

func (c *Config) String() string {
	return fmt.Sprintf("%s/%s", c.PirType, c.TestConfig)
}

func PirTypeStrings() []string {
	vals := pir.PirTypeValues()
	strs := make([]string, 0, len(vals))
	for _, val := range vals {
		if val != pir.None {
			strs = append(strs, val.String())
		}
	}
	return strs
}
