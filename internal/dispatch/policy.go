package dispatch

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"so-webserver/internal/conn"
)

// Policy decide qué hacer cuando admitir una conexión nueva excedería la
// capacidad. apply corre con el mutex del State tomado; retorna true si la
// conexión nueva debe admitirse y false si fue descartada (en ese caso la
// política ya cerró su socket). La única política que suelta el lock es
// block, vía la espera en la condición slot.
type Policy interface {
	Name() string
	apply(s *State, rec *conn.Record) bool
}

// Names lista los nombres de política aceptados por ForName.
func Names() []string { return []string{"block", "dt", "dh", "random"} }

// ForName construye la política para el nombre dado.
func ForName(name string) (Policy, error) {
	switch name {
	case "block":
		return blockPolicy{}, nil
	case "dt":
		return dropTailPolicy{}, nil
	case "dh":
		return dropHeadPolicy{}, nil
	case "random":
		// semilla única por proceso; el RNG queda protegido por el mutex
		// del State porque apply solo corre bajo él
		return &randomPolicy{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
	}
	return nil, fmt.Errorf("unknown schedalg %q (use block|dt|dh|random)", name)
}

// dropConn cierra una conexión descartada. Cierra primero el lado de
// escritura para que el cliente reciba FIN (EOF) aunque queden bytes suyos
// sin leer, que con un Close directo harían salir un RST.
func dropConn(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	c.Close()
}

// blockPolicy espera en la condición slot hasta que la nueva conexión
// quepa. Las señales espurias re-evalúan el predicado.
type blockPolicy struct{}

func (blockPolicy) Name() string { return "block" }

func (blockPolicy) apply(s *State, _ *conn.Record) bool {
	for s.waiting.Size()+s.inflight.Size()+1 > s.capacity {
		s.slot.Wait()
	}
	return true
}

// dropTailPolicy descarta la conexión recién llegada sin tocar las listas.
type dropTailPolicy struct{}

func (dropTailPolicy) Name() string { return "dt" }

func (dropTailPolicy) apply(_ *State, rec *conn.Record) bool {
	dropConn(rec.Conn)
	return false
}

// dropHeadPolicy desaloja el trabajo encolado más reciente (cola de
// waiting) y admite la nueva conexión; preserva el progreso in-flight.
// Con waiting vacía se comporta como dt.
type dropHeadPolicy struct{}

func (dropHeadPolicy) Name() string { return "dh" }

func (dropHeadPolicy) apply(s *State, rec *conn.Record) bool {
	victim, ok := s.waiting.PopTail()
	if !ok {
		dropConn(rec.Conn)
		return false
	}
	dropConn(victim.Conn)
	return true
}

// randomPolicy desaloja ceil(waiting/4) trabajos encolados elegidos al
// azar y admite la nueva conexión. Con waiting vacía se comporta como dt.
type randomPolicy struct {
	rng *rand.Rand
}

func (*randomPolicy) Name() string { return "random" }

func (p *randomPolicy) apply(s *State, rec *conn.Record) bool {
	size := s.waiting.Size()
	if size == 0 {
		dropConn(rec.Conn)
		return false
	}
	// descarta de a uno re-sorteando contra el tamaño ya reducido, así
	// salen exactamente k registros distintos
	for k := (size + 3) / 4; k > 0 && size > 0; k-- {
		victim, _ := s.waiting.At(p.rng.Intn(size))
		dropConn(victim.Conn)
		s.waiting.RemoveByID(victim.JobID)
		size--
	}
	return true
}
