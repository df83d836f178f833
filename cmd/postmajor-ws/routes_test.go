package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	wt "github.com/GeoNet/kit/weft/wefttest"
)

// routes that do not need the DB.
var routes = wt.Requests{
	{ID: wt.L(), URL: "/soh/up", Content: "text/html; charset=utf-8"},
	{ID: wt.L(), URL: "/postmajor/1/version", Content: "text/plain"},

	{ID: wt.L(), URL: "/nothing/here", Content: "text/plain; charset=utf-8", Status: http.StatusNotFound},
	{ID: wt.L(), URL: "/postmajor/1/query", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/query?eventid=2024p000001&format=xml", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/query?eventid=2024p000001&network=[TW]", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/query?eventid=2024p000001&station=T|P", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/query?eventid=2024p|000001", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/query?eventid=2024p000001&channel=HLZ", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/version?eventid=2024p000001", Content: "text/plain; charset=utf-8", Status: http.StatusBadRequest},
	{ID: wt.L(), URL: "/postmajor/1/query?eventid=2024p000001", Method: "POST", Content: "text/plain; charset=utf-8", Status: http.StatusMethodNotAllowed},
	{ID: wt.L(), URL: "/soh", Content: "text/plain; charset=utf-8", Status: http.StatusServiceUnavailable},
}

func TestRoutes(t *testing.T) {
	ts := httptest.NewServer(mux)
	defer ts.Close()

	for _, r := range routes {
		if b, err := r.Do(ts.URL); err != nil {
			t.Error(err)
			if len(b) > 0 {
				t.Error(string(b))
			}
		}
	}
}
