package server

import (
	"context"
	"errors"
	"net"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"so-webserver/internal/conn"
	"so-webserver/internal/dispatch"
	"so-webserver/internal/request"
)

// HandleFunc es el contrato del handler externo: recibe el Record y el
// bloque de stats del worker que lo invoca. El worker cierra la conexión
// cuando el handler retorna.
type HandleFunc func(*conn.Record, *request.Stats)

// Server une el acceptor, los N workers y el núcleo de despacho. Los
// workers no terminan y el acceptor solo termina si el listener se cierra;
// no hay apagado ordenado.
type Server struct {
	Workers int
	State   *dispatch.State
	Policy  dispatch.Policy
	Handle  HandleFunc
	Log     zerolog.Logger
}

// ListenAndServe abre el socket de escucha en addr y corre el servidor.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "listen %s", addr)
	}
	return s.Serve(ln)
}

// Serve lanza los workers y corre el loop del acceptor sobre ln. Solo
// retorna si el listener queda inutilizable (p. ej. cerrado).
func (s *Server) Serve(ln net.Listener) error {
	for i := 0; i < s.Workers; i++ {
		go s.worker(i)
	}

	// un accept que falla en caliente no debe girar la CPU ni inundar el log
	lim := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

	var jobID int64
	for {
		c, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.Log.Error().Err(err).Msg("accept failed")
			lim.Wait(context.Background())
			continue
		}

		rec := &conn.Record{Conn: c, JobID: jobID, Arrival: time.Now()}
		jobID++

		if !s.State.TryAdmit(rec, s.Policy) {
			s.Log.Debug().
				Int64("job", rec.JobID).
				Str("policy", s.Policy.Name()).
				Msg("connection dropped")
		}
	}
}

// worker consume trabajo encolado para siempre: despacha, atiende, cierra
// y libera el lugar en in-flight.
func (s *Server) worker(id int) {
	st := &request.Stats{ThreadID: id}
	for {
		rec := s.State.TakeWork()
		s.Handle(rec, st)
		rec.Conn.Close()
		s.State.Complete(rec.JobID)
	}
}
