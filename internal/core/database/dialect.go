package db

import (
	"strconv"
	"strings"
)

// dialect covers the few differences between the postgres and sqlite drivers.
type dialect struct {
	driver       string
	dollarParams bool
}

var (
	postgresDialect = dialect{driver: "pgx", dollarParams: true}
	sqliteDialect   = dialect{driver: "sqlite"}
)

// rebind rewrites ? placeholders to $1..$n for drivers that need it.
// Queries in this package never contain literal question marks.
func (d dialect) rebind(q string) string {
	if !d.dollarParams {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
