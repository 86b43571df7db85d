package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meetme/conferencebridge/internal/database"
	"github.com/meetme/conferencebridge/internal/database/models"
	"github.com/meetme/conferencebridge/internal/meetme"
)

// roomRequest is the request body for creating or updating a static room.
type roomRequest struct {
	Confno            string `json:"confno"`
	PIN               string `json:"pin"`
	AdminPIN          string `json:"admin_pin"`
	MaxMembers        int    `json:"max_members"`
	Record            bool   `json:"record"`
	AnnounceJoinLeave bool   `json:"announce_join_leave"`
}

// roomResponse is a static room rendered for the admin API. Password
// hashes never leave the server.
type roomResponse struct {
	Confno            string    `json:"confno"`
	MaxMembers        int       `json:"max_members"`
	Record            bool      `json:"record"`
	AnnounceJoinLeave bool      `json:"announce_join_leave"`
	IsDynamic         bool      `json:"is_dynamic"`
	HasPIN            bool      `json:"has_pin"`
	HasAdminPIN       bool      `json:"has_admin_pin"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func renderRoom(r *models.Room) roomResponse {
	return roomResponse{
		Confno:            r.Confno,
		MaxMembers:        r.MaxMembers,
		Record:            r.Record,
		AnnounceJoinLeave: r.AnnounceJoinLeave,
		IsDynamic:         r.IsDynamic,
		HasPIN:            r.PINHash != "",
		HasAdminPIN:       r.AdminPINHash != "",
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func validateRoomRequest(req roomRequest) string {
	if msg := validateConfno("confno", req.Confno); msg != "" {
		return msg
	}
	if msg := validatePIN("pin", req.PIN); msg != "" {
		return msg
	}
	if msg := validatePIN("admin_pin", req.AdminPIN); msg != "" {
		return msg
	}
	if msg := validateIntRange("max_members", &req.MaxMembers, 0, 1024); msg != "" {
		return msg
	}
	return ""
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.List(r.Context())
	if err != nil {
		s.logger.Error("list rooms", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]roomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, renderRoom(&rooms[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if msg := readJSON(r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validateRoomRequest(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	room := &models.Room{
		Confno:            req.Confno,
		MaxMembers:        req.MaxMembers,
		Record:            req.Record,
		AnnounceJoinLeave: req.AnnounceJoinLeave,
	}
	if req.PIN != "" {
		hash, err := database.HashPassword(req.PIN)
		if err != nil {
			s.logger.Error("hash pin", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		room.PINHash = hash
	}
	if req.AdminPIN != "" {
		hash, err := database.HashPassword(req.AdminPIN)
		if err != nil {
			s.logger.Error("hash admin pin", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		room.AdminPINHash = hash
	}

	if err := s.rooms.Create(r.Context(), room); err != nil {
		s.logger.Error("create room", "confno", req.Confno, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	writeJSON(w, http.StatusCreated, renderRoom(room))
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	confno := chi.URLParam(r, "confno")
	room, err := s.rooms.GetByConfno(r.Context(), confno)
	if err != nil {
		s.logger.Error("get room", "confno", confno, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, renderRoom(room))
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	confno := chi.URLParam(r, "confno")
	room, err := s.rooms.GetByConfno(r.Context(), confno)
	if err != nil {
		s.logger.Error("get room", "confno", confno, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	var req roomRequest
	if msg := readJSON(r, &req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	req.Confno = confno
	if msg := validateRoomRequest(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	room.MaxMembers = req.MaxMembers
	room.Record = req.Record
	room.AnnounceJoinLeave = req.AnnounceJoinLeave
	if req.PIN != "" {
		hash, err := database.HashPassword(req.PIN)
		if err != nil {
			s.logger.Error("hash pin", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		room.PINHash = hash
	}
	if req.AdminPIN != "" {
		hash, err := database.HashPassword(req.AdminPIN)
		if err != nil {
			s.logger.Error("hash admin pin", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		room.AdminPINHash = hash
	}

	if err := s.rooms.Update(r.Context(), room); err != nil {
		s.logger.Error("update room", "confno", confno, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update room")
		return
	}
	writeJSON(w, http.StatusOK, renderRoom(room))
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	confno := chi.URLParam(r, "confno")
	if err := s.rooms.Delete(r.Context(), confno); err != nil {
		s.logger.Error("delete room", "confno", confno, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete room")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// conferenceResponse is a live conference rendered for the admin API.
type conferenceResponse struct {
	Confno    string `json:"confno"`
	Users     int    `json:"users"`
	Marked    int    `json:"marked"`
	Locked    bool   `json:"locked"`
	Recording string `json:"recording"`
}

func renderConference(c *meetme.Conference) conferenceResponse {
	state := "off"
	switch c.RecordingStateNow() {
	case meetme.RecordingActive:
		state = "active"
	case meetme.RecordingTerminating:
		state = "terminating"
	}
	return conferenceResponse{
		Confno:    c.Confno,
		Users:     c.UserCount(),
		Marked:    c.MarkedCount(),
		Locked:    c.Locked(),
		Recording: state,
	}
}

// participantResponse is one live participant rendered for the admin API.
type participantResponse struct {
	UserNo   int       `json:"user_no"`
	Talking  bool      `json:"talking"`
	Muted    bool      `json:"muted"`
	Marked   bool      `json:"marked"`
	JoinedAt time.Time `json:"joined_at"`
}

func renderParticipant(p *meetme.Participant) participantResponse {
	return participantResponse{
		UserNo:   p.UserNo,
		Talking:  p.IsTalking(),
		Muted:    p.Admin.Has(meetme.AdminFlagMuted),
		Marked:   p.Flags.Has(meetme.FlagMarked),
		JoinedAt: p.JoinedAt,
	}
}

func (s *Server) handleListConferences(w http.ResponseWriter, r *http.Request) {
	confs := s.registry.All()
	out := make([]conferenceResponse, 0, len(confs))
	for _, c := range confs {
		out = append(out, renderConference(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) findConference(w http.ResponseWriter, r *http.Request) (*meetme.Conference, bool) {
	confno := chi.URLParam(r, "confno")
	conf, err := s.registry.Find(confno)
	if err != nil {
		if errors.Is(err, meetme.ErrConferenceNotFound) {
			writeError(w, http.StatusNotFound, "conference not active")
			return nil, false
		}
		s.logger.Error("find conference", "confno", confno, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return conf, true
}

func (s *Server) handleGetConference(w http.ResponseWriter, r *http.Request) {
	conf, ok := s.findConference(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, renderConference(conf))
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	conf, ok := s.findConference(w, r)
	if !ok {
		return
	}
	participants := conf.Participants()
	out := make([]participantResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, renderParticipant(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	conf, ok := s.findConference(w, r)
	if !ok {
		return
	}
	if err := meetme.AdminExec(conf, meetme.AdminCommandToggleLock, 0); err != nil {
		s.logger.Error("toggle lock", "confno", conf.Confno, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle lock")
		return
	}
	writeJSON(w, http.StatusOK, renderConference(conf))
}

func (s *Server) runParticipantCommand(w http.ResponseWriter, r *http.Request, cmd meetme.AdminCommand) {
	conf, ok := s.findConference(w, r)
	if !ok {
		return
	}
	userNo, err := strconv.Atoi(chi.URLParam(r, "userNo"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_no")
		return
	}
	if err := meetme.AdminExec(conf, cmd, userNo); err != nil {
		if errors.Is(err, meetme.ErrParticipantNotFound) {
			writeError(w, http.StatusNotFound, "participant not found")
			return
		}
		s.logger.Error("admin command", "confno", conf.Confno, "user_no", userNo, "error", err)
		writeError(w, http.StatusInternalServerError, "command failed")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleMuteParticipant(w http.ResponseWriter, r *http.Request) {
	s.runParticipantCommand(w, r, meetme.AdminCommandMute)
}

func (s *Server) handleUnmuteParticipant(w http.ResponseWriter, r *http.Request) {
	s.runParticipantCommand(w, r, meetme.AdminCommandUnmute)
}

func (s *Server) handleKickParticipant(w http.ResponseWriter, r *http.Request) {
	s.runParticipantCommand(w, r, meetme.AdminCommandKick)
}
