package dispatch

import (
	"sync"
	"time"

	"so-webserver/internal/conn"
)

// State es el estado compartido entre el acceptor y los workers: la lista
// de espera, la lista in-flight y la capacidad total Q, protegidas por un
// único mutex. Invariante bajo el lock:
//
//	waiting.Size() + inflight.Size() <= capacity
//
// Dos variables de condición sobre el mismo mutex: work (waiting pasó a
// no-vacía) y slot (un trabajo in-flight terminó y liberó un lugar).
type State struct {
	mu       sync.Mutex
	work     *sync.Cond
	slot     *sync.Cond
	waiting  *conn.List
	inflight *conn.List
	capacity int
}

// NewState crea el estado de despacho con capacidad q (q >= 1).
func NewState(q int) *State {
	if q < 1 {
		q = 1
	}
	s := &State{
		waiting:  conn.NewList(),
		inflight: conn.NewList(),
		capacity: q,
	}
	s.work = sync.NewCond(&s.mu)
	s.slot = sync.NewCond(&s.mu)
	return s
}

// Capacity retorna Q.
func (s *State) Capacity() int { return s.capacity }

// Sizes retorna (waiting, inflight) bajo el lock.
func (s *State) Sizes() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiting.Size(), s.inflight.Size()
}

// TryAdmit intenta admitir rec. Si la capacidad se excede consulta a p bajo
// el lock; p decide si esperar (block), descartar rec o desalojar trabajo
// encolado. Retorna true si rec quedó en waiting (con señal a work), false
// si la política lo descartó (la política ya cerró la conexión).
func (s *State) TryAdmit(rec *conn.Record, p Policy) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.waiting.Size()+s.inflight.Size()+1 > s.capacity {
		if !p.apply(s, rec) {
			return false
		}
	}
	s.waiting.PushTail(rec)
	s.work.Signal()
	return true
}

// TakeWork bloquea hasta que haya trabajo encolado, lo pasa a in-flight
// sellando el instante de despacho y lo retorna.
func (s *State) TakeWork() *conn.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.waiting.Size() == 0 {
		s.work.Wait()
	}
	rec, _ := s.waiting.PopHead()
	rec.Dispatch = time.Now()
	s.inflight.PushHead(rec)
	return rec
}

// Complete saca el trabajo terminado de in-flight y señala que hay un
// lugar libre. Quien llama ya cerró la conexión.
func (s *State) Complete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight.RemoveByID(id)
	s.slot.Signal()
}
