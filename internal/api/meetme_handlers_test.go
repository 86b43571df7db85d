package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/meetme/conferencebridge/internal/database/models"
	"github.com/meetme/conferencebridge/internal/meetme"
)

// fakeRoomRepository is an in-memory database.RoomRepository for handler tests.
type fakeRoomRepository struct {
	rooms map[string]*models.Room
}

func newFakeRoomRepository() *fakeRoomRepository {
	return &fakeRoomRepository{rooms: make(map[string]*models.Room)}
}

func (f *fakeRoomRepository) Create(_ context.Context, room *models.Room) error {
	f.rooms[room.Confno] = room
	return nil
}

func (f *fakeRoomRepository) GetByConfno(_ context.Context, confno string) (*models.Room, error) {
	return f.rooms[confno], nil
}

func (f *fakeRoomRepository) List(_ context.Context) ([]models.Room, error) {
	out := make([]models.Room, 0, len(f.rooms))
	for _, r := range f.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoomRepository) Update(_ context.Context, room *models.Room) error {
	f.rooms[room.Confno] = room
	return nil
}

func (f *fakeRoomRepository) Delete(_ context.Context, confno string) error {
	delete(f.rooms, confno)
	return nil
}

func newTestServer(rooms *fakeRoomRepository, registry *meetme.Registry) *Server {
	return &Server{
		router:   chi.NewRouter(),
		rooms:    rooms,
		registry: registry,
		logger:   slog.Default(),
	}
}

func reqWithParam(method, path, key, value string, body []byte) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleCreateRoomAndGetRoom(t *testing.T) {
	s := newTestServer(newFakeRoomRepository(), nil)

	body, _ := json.Marshal(roomRequest{Confno: "1234", PIN: "1111", MaxMembers: 10})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleCreateRoom(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	r2 := reqWithParam(http.MethodGet, "/api/v1/rooms/1234", "confno", "1234", nil)
	w2 := httptest.NewRecorder()
	s.handleGetRoom(w2, r2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(w2.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", env.Data)
	}
	if data["has_pin"] != true {
		t.Errorf("expected has_pin true, got %v", data["has_pin"])
	}
}

func TestHandleCreateRoomRejectsInvalidConfno(t *testing.T) {
	s := newTestServer(newFakeRoomRepository(), nil)

	body, _ := json.Marshal(roomRequest{Confno: "ab"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/rooms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleCreateRoom(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleGetRoomNotFound(t *testing.T) {
	s := newTestServer(newFakeRoomRepository(), nil)

	r := reqWithParam(http.MethodGet, "/api/v1/rooms/9999", "confno", "9999", nil)
	w := httptest.NewRecorder()
	s.handleGetRoom(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleDeleteRoom(t *testing.T) {
	repo := newFakeRoomRepository()
	repo.rooms["1234"] = &models.Room{Confno: "1234"}
	s := newTestServer(repo, nil)

	r := reqWithParam(http.MethodDelete, "/api/v1/rooms/1234", "confno", "1234", nil)
	w := httptest.NewRecorder()
	s.handleDeleteRoom(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := repo.rooms["1234"]; ok {
		t.Error("expected room to be deleted")
	}
}

func newTestRegistry() *meetme.Registry {
	return meetme.NewRegistry(newFakeMixerDevice(), meetme.NullEventBus{}, slog.Default())
}

// fakeMixerDevice is a minimal meetme.MixerDevice for tests that only
// exercise the registry/admin layer, never reading or writing audio.
type fakeMixerDevice struct{}

func newFakeMixerDevice() meetme.MixerDevice { return fakeMixerDevice{} }

func (fakeMixerDevice) OpenChannel(confID int64) (meetme.ChannelHandle, error) {
	return meetme.ChannelHandle(confID), nil
}
func (fakeMixerDevice) SetConf(meetme.ChannelHandle, meetme.ConfMode) error { return nil }
func (fakeMixerDevice) GetConf(meetme.ChannelHandle) (meetme.ConfMode, error) {
	return meetme.ConfMode{}, nil
}
func (fakeMixerDevice) SetBufInfo(meetme.ChannelHandle, meetme.BufInfo) error { return nil }
func (fakeMixerDevice) Flush(meetme.ChannelHandle) error                     { return nil }
func (fakeMixerDevice) Write(context.Context, meetme.ChannelHandle, []int16) error {
	return nil
}
func (fakeMixerDevice) Read(context.Context, meetme.ChannelHandle) ([]int16, error) {
	return make([]int16, 160), nil
}
func (fakeMixerDevice) Close(meetme.ChannelHandle) error { return nil }

func TestHandleListConferencesEmpty(t *testing.T) {
	s := newTestServer(nil, newTestRegistry())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/conferences", nil)
	w := httptest.NewRecorder()
	s.handleListConferences(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	items, ok := env.Data.([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("expected empty list, got %v", env.Data)
	}
}

func TestHandleGetConferenceNotFound(t *testing.T) {
	s := newTestServer(nil, newTestRegistry())

	r := reqWithParam(http.MethodGet, "/api/v1/conferences/1234", "confno", "1234", nil)
	w := httptest.NewRecorder()
	s.handleGetConference(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandleToggleLock(t *testing.T) {
	registry := newTestRegistry()
	if _, err := registry.FindOrBuild("1234", meetme.RoomConfig{Confno: "1234"}); err != nil {
		t.Fatalf("build conference: %v", err)
	}
	s := newTestServer(nil, registry)

	r := reqWithParam(http.MethodPost, "/api/v1/conferences/1234/lock", "confno", "1234", nil)
	w := httptest.NewRecorder()
	s.handleToggleLock(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data := env.Data.(map[string]any)
	if data["locked"] != true {
		t.Errorf("expected locked=true after toggle, got %v", data["locked"])
	}
}

func TestHandleMuteParticipantNotFound(t *testing.T) {
	registry := newTestRegistry()
	if _, err := registry.FindOrBuild("1234", meetme.RoomConfig{Confno: "1234"}); err != nil {
		t.Fatalf("build conference: %v", err)
	}
	s := newTestServer(nil, registry)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/conferences/1234/participants/1/mute", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("confno", "1234")
	rctx.URLParams.Add("userNo", "1")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()
	s.handleMuteParticipant(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}
