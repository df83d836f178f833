package main

import (
	"bytes"
	"net/http"

	"github.com/GeoNet/kit/weft"
)

var mux *http.ServeMux

func init() {
	mux = http.NewServeMux()

	mux.HandleFunc("/", weft.MakeHandler(weft.NoMatch, weft.TextError))
	mux.HandleFunc("/soh/up", weft.MakeHandler(weft.Up, weft.TextError))
	mux.HandleFunc("/soh", weft.MakeHandler(soh, weft.TextError))

	mux.HandleFunc("/postmajor/1/query", weft.MakeHandler(queryHandler, weft.TextError))
	mux.HandleFunc("/postmajor/1/version", weft.MakeHandler(versionHandler, weft.TextError))
}

// soh is for external service probes.
// returns a service unavailable error if the DB can not be reached.
func soh(r *http.Request, h http.Header, b *bytes.Buffer) error {
	if err := weft.CheckQuery(r, []string{"GET"}, []string{}, []string{}); err != nil {
		return err
	}

	if db == nil {
		return weft.StatusError{Code: http.StatusServiceUnavailable}
	}

	if err := db.Ping(r.Context()); err != nil {
		return weft.StatusError{Code: http.StatusServiceUnavailable, Err: err}
	}

	h.Set("Content-Type", "text/html; charset=utf-8")
	b.WriteString("<html><head></head><body>ok</body></html>")

	return nil
}

func versionHandler(r *http.Request, h http.Header, b *bytes.Buffer) error {
	if err := weft.CheckQuery(r, []string{"GET"}, []string{}, []string{}); err != nil {
		return err
	}

	h.Set("Content-Type", "text/plain")
	b.WriteString(version)

	return nil
}
