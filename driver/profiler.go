package driver

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/sirupsen/logrus"
)

// Profiler writes a CPU profile to filename and, on Close, a heap profile
// next to it. An empty filename disables profiling.
type Profiler struct {
	f        *os.File
	filename string
}

func NewProfiler(filename string) *Profiler {
	prof := new(Profiler)
	prof.filename = filename
	if filename != "" {
		var err error
		prof.f, err = os.Create(filename)
		if err != nil {
			logrus.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(prof.f); err != nil {
			logrus.Fatal("could not start CPU profile: ", err)
		}
	}
	return prof
}

func (p *Profiler) Close() {
	if p.f == nil {
		return
	}
	pprof.StopCPUProfile()
	p.f.Close()

	runtime.GC()
	memProf, err := os.Create(p.filename + "-mem.prof")
	if err != nil {
		logrus.Errorf("could not create memory profile: %v", err)
		return
	}
	defer memProf.Close()
	if err := pprof.WriteHeapProfile(memProf); err != nil {
		logrus.Errorf("could not write memory profile: %v", err)
	}
}
