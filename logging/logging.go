// Package logging sets up the explorer's per-subsystem loggers, adapted from
// the teacher's logger/logger.go: one backend, one rotator-backed writer
// pair, one Logger per long-running task.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrick/logrotate/rotator"

	"github.com/RCasatta/fbbe/logging/logs"
)

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if initiated {
		LogRotator.Write(p)
	}
	return len(p), nil
}

type errLogWriter struct{}

func (errLogWriter) Write(p []byte) (int, error) {
	if initiated {
		os.Stdout.Write(p)
		ErrLogRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = logs.NewBackend([]*logs.BackendWriter{
		logs.NewAllLevelsBackendWriter(logWriter{}),
		logs.NewErrorBackendWriter(errLogWriter{}),
	})

	// LogRotator and ErrLogRotator are closed on shutdown by cmd/fbbe.
	LogRotator    *rotator.Rotator
	ErrLogRotator *rotator.Rotator

	nodeLog = backendLog.Logger(SubsystemTags.NODE)
	stateLog = backendLog.Logger(SubsystemTags.STAT)
	bootLog = backendLog.Logger(SubsystemTags.BOOT)
	tiptLog = backendLog.Logger(SubsystemTags.TIPT)
	mpolLog = backendLog.Logger(SubsystemTags.MPOL)
	addrLog = backendLog.Logger(SubsystemTags.ADDR)
	zmqLog  = backendLog.Logger(SubsystemTags.ZMQR)
	pipeLog = backendLog.Logger(SubsystemTags.PIPE)
	httpLog = backendLog.Logger(SubsystemTags.HTTP)
	mainLog = backendLog.Logger(SubsystemTags.MAIN)

	initiated = false
)

// SubsystemTags names the explorer's long-running tasks, mirroring the
// teacher's ADXR/AMGR/... tag table.
var SubsystemTags = struct {
	NODE, STAT, BOOT, TIPT, MPOL, ADDR, ZMQR, PIPE, HTTP, MAIN string
}{
	NODE: "NODE", STAT: "STAT", BOOT: "BOOT", TIPT: "TIPT", MPOL: "MPOL",
	ADDR: "ADDR", ZMQR: "ZMQR", PIPE: "PIPE", HTTP: "HTTP", MAIN: "MAIN",
}

var subsystemLoggers = map[string]logs.Logger{
	SubsystemTags.NODE: nodeLog,
	SubsystemTags.STAT: stateLog,
	SubsystemTags.BOOT: bootLog,
	SubsystemTags.TIPT: tiptLog,
	SubsystemTags.MPOL: mpolLog,
	SubsystemTags.ADDR: addrLog,
	SubsystemTags.ZMQR: zmqLog,
	SubsystemTags.PIPE: pipeLog,
	SubsystemTags.HTTP: httpLog,
	SubsystemTags.MAIN: mainLog,
}

// Logger returns the named subsystem logger. Unknown tags get a fresh
// info-level logger rather than panicking, so a typo doesn't crash startup.
func Logger(tag string) logs.Logger {
	if l, ok := subsystemLoggers[tag]; ok {
		return l
	}
	return backendLog.Logger(tag)
}

// InitLogRotators wires stdout plus rotating log files. Must be called
// before any Logger is used if file output is desired.
func InitLogRotators(logFile, errLogFile string) {
	initiated = true
	LogRotator = initLogRotator(logFile)
	ErrLogRotator = initLogRotator(errLogFile)
}

func initLogRotator(logFile string) *rotator.Rotator {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory: %s\n", err)
			os.Exit(1)
		}
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %s\n", err)
		os.Exit(1)
	}
	return r
}

// SetLogLevel sets the level of one subsystem; unknown subsystems are ignored.
func SetLogLevel(subsystemID, level string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	lvl, _ := logs.LevelFromString(level)
	logger.SetLevel(lvl)
}

// SetLogLevels sets every subsystem to the same level.
func SetLogLevels(level string) {
	for id := range subsystemLoggers {
		SetLogLevel(id, level)
	}
}
