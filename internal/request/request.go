package request

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"so-webserver/internal/conn"
	"so-webserver/internal/http10"
)

// Headers de estadísticas que van en toda respuesta, normal o de error.
// El doble dos-puntos es parte del formato en el cable.
const (
	hdrArrival  = "Stat-Req-Arrival:: "
	hdrDispatch = "Stat-Req-Dispatch:: "
	hdrThreadID = "Stat-Thread-Id:: "
	hdrCount    = "Stat-Thread-Count:: "
	hdrStatic   = "Stat-Thread-Static:: "
	hdrDynamic  = "Stat-Thread-Dynamic:: "
)

const serverName = "so-webserver"

// Handler atiende una petición HTTP/1.0 completa sobre la conexión de un
// Record: parsea la request-line, clasifica el target como estático o
// dinámico, resuelve el archivo bajo Root y escribe la respuesta con los
// headers de estadísticas del worker que lo invoca.
type Handler struct {
	Root string
	Log  zerolog.Logger
}

// NewHandler crea un Handler con raíz de documentos root (default
// "./public").
func NewHandler(root string, log zerolog.Logger) *Handler {
	if root == "" {
		root = "./public"
	}
	return &Handler{Root: root, Log: log}
}

// Serve procesa una petición. rec y st pertenecen al worker llamador
// durante toda la ejecución; el worker cierra la conexión al retornar.
func (h *Handler) Serve(rec *conn.Record, st *Stats) {
	r := bufio.NewReader(rec.Conn)
	rl, err := http10.ReadRequestLine(r)
	if err != nil {
		// el cliente cortó o mandó basura irreconocible; no hay nada
		// que responder con sentido
		h.Log.Debug().Int64("job", rec.JobID).Err(err).Msg("unreadable request")
		return
	}
	h.Log.Debug().
		Int64("job", rec.JobID).
		Str("method", rl.Method).
		Str("target", rl.Target).
		Str("proto", rl.Proto).
		Msg("request")

	if !strings.EqualFold(rl.Method, "GET") {
		h.writeError(rec, st, rl.Method, 501, "this method is not implemented")
		return
	}
	_ = http10.DiscardHeaders(r)

	filename, query, isStatic := h.classify(rl.Target)

	info, err := os.Stat(filename)
	if err != nil {
		h.writeError(rec, st, filename, 404, "could not find this file")
		return
	}

	if isStatic {
		if !info.Mode().IsRegular() || info.Mode().Perm()&0o400 == 0 {
			h.writeError(rec, st, filename, 403, "could not read this file")
			return
		}
		h.serveStatic(rec, st, filename, info.Size())
		return
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o100 == 0 {
		h.writeError(rec, st, filename, 403, "could not run this program")
		return
	}
	h.serveDynamic(rec, st, filename, query)
}

// classify resuelve el target a un archivo bajo Root y decide estático vs
// dinámico. Reglas: ".." fuerza home.html; la subcadena "cgi" marca
// dinámico (con query tras '?'); el "/" final agrega home.html.
func (h *Handler) classify(target string) (filename, query string, isStatic bool) {
	if strings.Contains(target, "..") {
		return h.Root + "/home.html", "", true
	}
	if !strings.Contains(target, "cgi") {
		filename = h.Root + target
		if strings.HasSuffix(target, "/") {
			filename += "home.html"
		}
		return filename, "", true
	}
	path, q := http10.SplitTarget(target)
	return h.Root + path, q, false
}

// contentType decide el Content-Type por la extensión presente en el
// nombre del archivo.
func contentType(filename string) string {
	switch {
	case strings.Contains(filename, ".html"):
		return "text/html"
	case strings.Contains(filename, ".gif"):
		return "image/gif"
	case strings.Contains(filename, ".jpg"):
		return "image/jpeg"
	default:
		return "text/plain"
	}
}

// appendStats emite los seis headers de estadísticas incrementando cada
// contador justo antes de su línea. Los errores solo suben Total.
func appendStats(b *strings.Builder, rec *conn.Record, st *Stats, bumpStatic, bumpDynamic bool) {
	fmt.Fprintf(b, "%s%s\r\n", hdrArrival, http10.Stamp(rec.Arrival))
	fmt.Fprintf(b, "%s%s\r\n", hdrDispatch, http10.ElapsedStamp(rec.Arrival, rec.Dispatch))
	fmt.Fprintf(b, "%s%d\r\n", hdrThreadID, st.ThreadID)
	st.Total++
	fmt.Fprintf(b, "%s%d\r\n", hdrCount, st.Total)
	if bumpStatic {
		st.Static++
	}
	fmt.Fprintf(b, "%s%d\r\n", hdrStatic, st.Static)
	if bumpDynamic {
		st.Dynamic++
	}
	fmt.Fprintf(b, "%s%d\r\n", hdrDynamic, st.Dynamic)
}

// serveStatic mapea el archivo a memoria y lo escribe al socket en un solo
// write tras el bloque de headers.
func (h *Handler) serveStatic(rec *conn.Record, st *Stats, filename string, size int64) {
	f, err := os.Open(filename)
	if err != nil {
		h.writeError(rec, st, filename, 404, "could not find this file")
		return
	}
	defer f.Close()

	var data []byte
	if size > 0 {
		data, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
		if err != nil {
			h.Log.Error().Err(err).Str("file", filename).Msg("mmap failed")
			h.writeError(rec, st, filename, 403, "could not read this file")
			return
		}
		defer unix.Munmap(data)
	}

	var b strings.Builder
	b.WriteString(http10.StatusLine(200))
	fmt.Fprintf(&b, "Server: %s\r\n", serverName)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", size)
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType(filename))
	appendStats(&b, rec, st, true, false)
	b.WriteString("\r\n")

	if _, err := rec.Conn.Write([]byte(b.String())); err != nil {
		return
	}
	if len(data) > 0 {
		rec.Conn.Write(data)
	}
}

// serveDynamic ejecuta el programa con QUERY_STRING en el entorno y el
// stdout redirigido a la conexión, y espera a que termine. El fallo del
// hijo no se reporta: lo que haya escrito es la respuesta.
func (h *Handler) serveDynamic(rec *conn.Record, st *Stats, filename, query string) {
	var b strings.Builder
	b.WriteString(http10.StatusLine(200))
	fmt.Fprintf(&b, "Server: %s\r\n", serverName)
	appendStats(&b, rec, st, false, true)
	b.WriteString("\r\n")
	if _, err := rec.Conn.Write([]byte(b.String())); err != nil {
		return
	}

	cmd := exec.Command(filename)
	cmd.Env = append(os.Environ(), "QUERY_STRING="+query)
	cmd.Stdout = rec.Conn
	if err := cmd.Run(); err != nil {
		h.Log.Debug().Err(err).Str("file", filename).Msg("cgi child failed")
	}
}

// writeError responde 501/404/403 con cuerpo HTML y el bloque completo de
// estadísticas (solo Total sube).
func (h *Handler) writeError(rec *conn.Record, st *Stats, cause string, code int, long string) {
	short := http10.StatusText(code)
	body := fmt.Sprintf("<html><title>Server Error</title><body bgcolor=\"fffff\">\r\n"+
		"%d: %s\r\n<p>%s: %s\r\n<hr>%s\r\n", code, short, long, cause, serverName)

	var b strings.Builder
	b.WriteString(http10.StatusLine(code))
	b.WriteString("Content-Type: text/html\r\n")
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	appendStats(&b, rec, st, false, false)
	b.WriteString("\r\n")
	b.WriteString(body)
	rec.Conn.Write([]byte(b.String()))
}
