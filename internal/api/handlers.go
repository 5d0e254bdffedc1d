package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/YahSeh/Nexus-terminal/internal/auth"
	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/server"
	"github.com/YahSeh/Nexus-terminal/internal/types"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyBasecampRequest struct {
	BasecampCode string `json:"basecamp_code"`
}

type VerifyBasecampResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	BasecampName string `json:"basecamp_name"`
}

func (s *NexusApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *NexusApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if lr.Username == "" || lr.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.verifier.Verify(lr.Username, lr.Password) {
		errResp := NewAuthenticationFailedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createJwtForSession(Session{Username: lr.Username}, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.guard.Touch(lr.Username)
	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: fmt.Sprintf("Welcome back, %s", lr.Username),
	})
}

// verifyBasecamp checks the submitted room secret against every
// provisioned basecamp and, on a match, reissues the session token with
// the basecamp claims set.
func (s *NexusApp) verifyBasecamp(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req VerifyBasecampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	candidate := strings.TrimSpace(req.BasecampCode)
	if candidate == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	camp, found := s.matchBasecamp(candidate)
	if !found {
		errResp := NewRoomAccessDeniedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sess.Basecamp = camp.Id
	sess.BasecampName = camp.Name

	token, err := s.createJwtForSession(sess, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, VerifyBasecampResponse{
		Success:      true,
		Message:      fmt.Sprintf("Access granted to %s", camp.Name),
		BasecampName: camp.Name,
	})
}

func (s *NexusApp) matchBasecamp(candidate string) (database.Basecamp, bool) {
	basecamps, err := s.db.ListBasecamps()
	if err != nil {
		s.log.Println("list basecamps:", err)
		return database.Basecamp{}, false
	}

	for _, camp := range basecamps {
		if camp.SecretHash != "" && auth.CompareSecret(camp.SecretHash, candidate) == auth.Matched {
			return camp, true
		}
		// legacy plaintext room codes, kept for camps provisioned before
		// hashing
		if camp.LegacyCode != "" && subtle.ConstantTimeCompare([]byte(camp.LegacyCode), []byte(candidate)) == 1 {
			return camp, true
		}
	}

	return database.Basecamp{}, false
}

func (s *NexusApp) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if ok {
		s.guard.Invalidate(sess.Username)
		if s.cs != nil {
			s.cs.CloseIdentity(sess.Username)
		}
	}

	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", -time.Hour))
	w.WriteHeader(http.StatusNoContent)
}

func (s *NexusApp) activity(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.guard.Touch(sess.Username)
	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *NexusApp) session(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{
		"username":      sess.Username,
		"basecamp":      sess.Basecamp,
		"basecamp_name": sess.BasecampName,
	})
}

func (s *NexusApp) serveWs(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFrom(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if sess.Basecamp == "" {
		errResp := NewRoomAccessDeniedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	camp, err := s.db.GetBasecamp(sess.Basecamp)
	if err != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	connId, err := shortid.Generate()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(connId, types.User{
		Username: sess.Username,
	}, types.Basecamp{
		Id:   camp.Id,
		Name: camp.Name,
	}, conn, s.cs, s.log)

	s.cs.Register(client)
	go client.Write()
	go client.Read()
}
