package http10

import (
	"fmt"
	"time"
)

// StatusText cubre los códigos que este servidor emite.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 501:
		return "Not Implemented"
	default:
		return "OK"
	}
}

// StatusLine compone "HTTP/1.0 <code> <short>\r\n".
func StatusLine(code int) string {
	return fmt.Sprintf("HTTP/1.0 %d %s\r\n", code, StatusText(code))
}

// Stamp formatea un instante como "<sec>.<usec>" con microsegundos en seis
// dígitos rellenados con cero.
func Stamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// ElapsedStamp formatea dispatch-arrival en el mismo formato "<sec>.<usec>".
func ElapsedStamp(arrival, dispatch time.Time) string {
	d := dispatch.Sub(arrival)
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%d.%06d", d/time.Second, (d%time.Second)/time.Microsecond)
}
