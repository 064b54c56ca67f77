// Package clinicapitest provides an in-memory clinic API for tests.
package clinicapitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-nexus/internal/records"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
}

type failure struct {
	method  string
	prefix  string
	status  int
	message string
}

// Server is a fake clinic API backed by maps.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	nextID       int
	patients     map[int]records.Patient
	staff        map[int]records.Staff
	appointments map[int]records.Appointment
	billing      map[int]records.Billing
	inventory    map[int]records.InventoryItem
	usage        []records.AppointmentInventory
	requests     []Request
	failures     []failure
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	s := &Server{
		nextID:       1,
		patients:     map[int]records.Patient{},
		staff:        map[int]records.Staff{},
		appointments: map[int]records.Appointment{},
		billing:      map[int]records.Billing{},
		inventory:    map[int]records.InventoryItem{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// FailNext makes the next request whose method matches and whose path starts
// with prefix answer status with message.
func (s *Server) FailNext(method, prefix string, status int, message string) {
	s.mu.Lock()
	s.failures = append(s.failures, failure{method: method, prefix: prefix, status: status, message: message})
	s.mu.Unlock()
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns recorded requests matching method and path prefix.
func (s *Server) RequestsTo(method, prefix string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) AddPatient(p records.Patient) records.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.patients[p.ID] = p
	return p
}

func (s *Server) AddStaff(st records.Staff) records.Staff {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = s.id()
	s.staff[st.ID] = st
	return st
}

// AddAppointment stores a as-is; an empty status stays empty on the wire.
func (s *Server) AddAppointment(a records.Appointment) records.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.appointments[a.ID] = a
	return a
}

func (s *Server) AddBilling(b records.Billing) records.Billing {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.billing[b.ID] = b
	return b
}

func (s *Server) AddInventoryItem(item records.InventoryItem) records.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.id()
	s.inventory[item.ID] = item
	return item
}

func (s *Server) Appointment(id int) (records.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	return a, ok
}

func (s *Server) InventoryItem(id int) (records.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.inventory[id]
	return item, ok
}

// Billing returns stored billing records ordered by id.
func (s *Server) Billing() []records.Billing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.billing)
}

// Usage returns recorded appointment-inventory rows.
func (s *Server) Usage() []records.AppointmentInventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]records.AppointmentInventory(nil), s.usage...)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api/patients", func(r chi.Router) {
		r.Get("/", list(s, &s.patients))
		r.Get("/search/{name}", s.searchPatients)
		r.Get("/id/{name}", s.patientID)
	})
	r.Route("/api/staff", func(r chi.Router) {
		r.Get("/", list(s, &s.staff))
		r.Get("/search/{name}", s.searchStaff)
		r.Get("/id/{name}", s.staffID)
	})
	r.Route("/api/appointments", func(r chi.Router) {
		r.Get("/with-names", s.withNames)
		r.Post("/", create(s, &s.appointments, func(a *records.Appointment, id int) { a.ID = id }))
		r.Get("/{id}", get(s, &s.appointments))
		r.Put("/{id}", update(s, &s.appointments, func(a *records.Appointment, id int) { a.ID = id }))
		r.Delete("/{id}", remove(s, &s.appointments))
	})
	r.Route("/api/billing", func(r chi.Router) {
		r.Get("/", list(s, &s.billing))
		r.Post("/", create(s, &s.billing, func(b *records.Billing, id int) { b.ID = id }))
		r.Get("/{id}", get(s, &s.billing))
		r.Put("/{id}", update(s, &s.billing, func(b *records.Billing, id int) { b.ID = id }))
		r.Delete("/{id}", remove(s, &s.billing))
	})
	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", list(s, &s.inventory))
		r.Get("/{id}", get(s, &s.inventory))
		r.Put("/{id}", update(s, &s.inventory, func(i *records.InventoryItem, id int) { i.ID = id }))
	})
	r.Route("/api/appointment-inventory", func(r chi.Router) {
		r.Get("/", s.listUsage)
		r.Post("/", s.createUsage)
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body, Header: r.Header.Clone()})
		var fail *failure
		for i, f := range s.failures {
			if f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
				fail = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if fail != nil {
			http.Error(w, fail.message, fail.status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func sortedValues[T any](m map[int]T) []T {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func list[T any](s *Server, m *map[int]T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		out := sortedValues(*m)
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func get[T any](s *Server, m *map[int]T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		v, found := (*m)[id]
		s.mu.Unlock()
		if !found {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func create[T any](s *Server, m *map[int]T, setID func(*T, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		id := s.id()
		setID(&v, id)
		(*m)[id] = v
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, v)
	}
}

func update[T any](s *Server, m *map[int]T, setID func(*T, int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		_, found := (*m)[id]
		if found {
			setID(&v, id)
			(*m)[id] = v
		}
		s.mu.Unlock()
		if !found {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func remove[T any](s *Server, m *map[int]T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		_, found := (*m)[id]
		delete(*m, id)
		s.mu.Unlock()
		if !found {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) searchPatients(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "name"))
	s.mu.Lock()
	out := []records.Patient{}
	for _, p := range sortedValues(s.patients) {
		if strings.Contains(strings.ToLower(p.Name), name) {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) searchStaff(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "name"))
	s.mu.Lock()
	out := []records.Staff{}
	for _, st := range sortedValues(s.staff) {
		if strings.Contains(strings.ToLower(st.Name), name) {
			out = append(out, st)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) patientID(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	id := 0
	for _, p := range sortedValues(s.patients) {
		if strings.EqualFold(p.Name, name) {
			id = p.ID
			break
		}
	}
	s.mu.Unlock()
	if id == 0 {
		http.Error(w, "Patient not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) staffID(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	id := 0
	for _, st := range sortedValues(s.staff) {
		if strings.EqualFold(st.Name, name) {
			id = st.ID
			break
		}
	}
	s.mu.Unlock()
	if id == 0 {
		http.Error(w, "Staff not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) withNames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]records.AppointmentRow, 0, len(s.appointments))
	for _, a := range sortedValues(s.appointments) {
		out = append(out, records.AppointmentRow{
			ID:          a.ID,
			PatientName: s.patients[a.PatientID].Name,
			DoctorName:  s.staff[a.DoctorID].Name,
			Date:        a.Date,
			Time:        a.Time,
			Duration:    a.Duration,
			VisitType:   a.VisitType,
			Status:      a.Status,
			Notes:       a.Notes,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listUsage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]records.AppointmentInventory{}, s.usage...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUsage(w http.ResponseWriter, r *http.Request) {
	var row records.AppointmentInventory
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.usage = append(s.usage, row)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, row)
}
