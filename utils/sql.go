package utils

import (
	"fmt"
	"strings"
)

// SQL driver names accepted by the stores.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Rebind rewrites ? placeholders into the positional form used by driver.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// ValidDriver reports whether driver is supported.
func ValidDriver(driver string) bool {
	return driver == DriverPostgres || driver == DriverMySQL
}
