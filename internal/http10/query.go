package http10

import "strings"

// SplitTarget separa path y query string de un target (p. ej. "/a.cgi?x=1").
// No realiza decodificación; el query se pasa crudo como QUERY_STRING.
func SplitTarget(t string) (path string, query string) {
	path = t
	if i := strings.IndexByte(t, '?'); i >= 0 {
		path = t[:i]
		query = t[i+1:]
	}
	return
}
