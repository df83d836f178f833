// postmajor-ws serves the station metrics saved by postmajor.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/GeoNet/kit/cfg"
	"github.com/GeoNet/postmajor/internal/store"
	"github.com/golang/groupcache"
	"github.com/gorilla/schema"
)

var (
	db          *store.Store
	decoder     = newDecoder() // decoder for URL queries.
	resultCache *groupcache.Group
)

func newDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	// Handle comma separated parameters (eg: network, station)
	decoder.RegisterConverter([]string{}, func(input string) reflect.Value {
		return reflect.ValueOf(strings.Split(input, ","))
	})
	return decoder
}

func main() {
	p, err := cfg.PostgresEnv()
	if err != nil {
		log.Fatalf("error reading DB config from the environment vars: %s", err)
	}

	var cacheSize int64 = 100

	if size := os.Getenv("CACHE_SIZE"); size != "" {
		if cacheSize, err = strconv.ParseInt(size, 10, 64); err != nil {
			log.Fatalf("error parsing CACHE_SIZE env var %s", err.Error())
		}
	}

	// CACHE_SIZE is in MB.
	cacheSize = cacheSize * 1000000

	db, err = store.Open(p)
	if err != nil {
		log.Fatalf("error with DB config: %s", err)
	}
	defer db.Close()

	if err = db.Ping(context.Background()); err != nil {
		log.Println("ERROR: problem pinging DB - is it up and contactable? 500s will be served")
	}

	log.Printf("creating result cache size %d bytes", cacheSize)

	resultCache = groupcache.NewGroup("metrics", cacheSize, groupcache.GetterFunc(resultGetter))

	log.Println("starting server")
	server := &http.Server{
		Addr:         ":8080",
		Handler:      mux,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
	log.Fatal(server.ListenAndServe())
}
