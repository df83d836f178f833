package main

import (
	"bytes"
	"io"
	"log"
	"os"

	"github.com/GeoNet/kit/metrics"
)

var Prefix string

var logger = log.New(os.Stderr, "", log.LstdFlags)

func init() {
	if Prefix != "" {
		log.SetPrefix(Prefix + " ")
		logger.SetPrefix(Prefix + " ")
	}

	metrics.DataDogMsg(os.Getenv("DDOG_API_KEY"), metrics.HostName(), metrics.AppName(), logger)
}

// quiet drops the per station progress logging, keeping warnings and errors.
// stdout carries the results and is not affected.
func quiet() {
	log.SetOutput(warnWriter{w: os.Stderr})
}

// warnWriter passes on log lines with a WARN: or ERROR: level.
type warnWriter struct {
	w io.Writer
}

func (l warnWriter) Write(p []byte) (int, error) {
	if !bytes.Contains(p, []byte("WARN: ")) && !bytes.Contains(p, []byte("ERROR: ")) {
		return len(p), nil
	}

	return l.w.Write(p)
}
