// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))
	driver := strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if admin == "" {
		warn("ADMIN_API_KEYS is empty — site/webhook mutations will be unauthenticated.")
	} else if strings.Contains(admin, " ") {
		warn("ADMIN_API_KEYS contains spaces; use comma-separated with no spaces, e.g. key1,key2")
	} else {
		ok("ADMIN_API_KEYS present")
	}

	if addr == "" {
		warn("ADDR is empty; the API will bind its default address.")
	} else {
		ok("ADDR=" + addr)
	}

	switch driver {
	case "", "memory":
		warn("DATABASE_DRIVER is memory — sites and history are lost on restart.")
	case "sqlite":
		if dbURL == "" {
			warn("DATABASE_URL empty — sqlite will use its default file path.")
		} else {
			ok("sqlite at " + dbURL)
		}
	case "postgres":
		if dbURL == "" {
			fail("DATABASE_DRIVER=postgres but DATABASE_URL is empty.")
		}
		ok("postgres DSN present")
	default:
		fail("unknown DATABASE_DRIVER " + driver + " (want memory, sqlite or postgres)")
	}

	ok("preflight passed")
}
