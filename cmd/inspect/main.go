package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"docchat/pkg/logger"
	"docchat/pkg/store"
)

// inspect dumps the raw key/value layout of a docchat database:
// chat_threads, current_thread_id and the per-thread histories.
func main() {
	var dbPath string
	var prefix string
	var values bool
	flag.StringVar(&dbPath, "db", "./.database", "docchat DB path")
	flag.StringVar(&prefix, "prefix", "", "only keys with this prefix")
	flag.BoolVar(&values, "values", false, "print values as well as keys")
	flag.Parse()

	logger.InitWithLevel("error")
	kv, err := store.OpenPebble(filepath.Join(dbPath, "store"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	keys, err := kv.Keys(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !values {
			fmt.Println(k)
			continue
		}
		v, err := kv.Get(k)
		if err != nil {
			fmt.Printf("%s\t<error: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
}
