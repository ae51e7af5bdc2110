package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lingochat/internal/chat"
	"lingochat/internal/metrics"
	"lingochat/internal/presence"
)

const (
	maxMultipartMemory = 16 << 20
	userIDHeader       = "X-User-ID"
	ssePingInterval    = 25 * time.Second
)

// UserWriter upserts user profiles; satisfied by storage.UserRepository.
type UserWriter interface {
	Upsert(ctx context.Context, u chat.User) error
}

// Server wires HTTP routing for LingoChat.
type Server struct {
	logger   *slog.Logger
	chats    *chat.Service
	registry *presence.Registry
	users    UserWriter
	validate *validator.Validate
}

// NewServer constructs a chi router implementing http.Handler. uploadsDir is
// served read-only under /uploads so blob locators resolve for clients.
func NewServer(logger *slog.Logger, chats *chat.Service, registry *presence.Registry, users UserWriter, uploadsDir string) http.Handler {
	srv := &Server{
		logger:   logger,
		chats:    chats,
		registry: registry,
		users:    users,
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics)

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", srv.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", srv.handleEvents)
		r.Put("/users", srv.handleUpsertUser)

		r.Route("/messages", func(r chi.Router) {
			r.Get("/users", srv.handleListPeers)
			r.Get("/{id}", srv.handleConversation)
			r.Put("/mark/{id}", srv.handleMarkSeen)
			r.Post("/send/{id}", srv.handleSend)
			r.Post("/audiocall/{id}", srv.handleAudioCall)
		})
	})

	return r
}

// messageJSON is the wire shape of a message.
type messageJSON struct {
	ID              string    `json:"id"`
	SenderID        string    `json:"senderId"`
	ReceiverID      string    `json:"receiverId"`
	OriginalText    string    `json:"originalText,omitempty"`
	TranslatedText  string    `json:"translatedText,omitempty"`
	OriginalAudio   string    `json:"originalAudio,omitempty"`
	TranslatedAudio string    `json:"translatedAudio,omitempty"`
	Image           string    `json:"image,omitempty"`
	Seen            bool      `json:"seen"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toMessageJSON(m chat.Message) messageJSON {
	return messageJSON{
		ID:              m.ID.String(),
		SenderID:        m.SenderID.String(),
		ReceiverID:      m.ReceiverID.String(),
		OriginalText:    m.OriginalText,
		TranslatedText:  m.TranslatedText,
		OriginalAudio:   m.OriginalAudio,
		TranslatedAudio: m.TranslatedAudio,
		Image:           m.Image,
		Seen:            m.Seen,
		CreatedAt:       m.CreatedAt,
	}
}

type userJSON struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	Language   string `json:"language"`
	ProfilePic string `json:"profilePic,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

func toUserJSON(u chat.User) userJSON {
	return userJSON{
		ID:         u.ID.String(),
		FullName:   u.FullName,
		Email:      u.Email,
		Language:   u.Language,
		ProfilePic: u.ProfilePic,
		Bio:        u.Bio,
	}
}

type sendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"` // data URL or raw base64
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	senderID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	receiverID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid receiver id")
		return
	}

	input := chat.SendInput{SenderID: senderID, ReceiverID: receiverID}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := s.parseMultipartSend(r, &input); err != nil {
			s.clientError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.clientError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		input.Text = req.Text
		if req.Image != "" {
			img, mime, err := decodeImageField(req.Image)
			if err != nil {
				s.clientError(w, http.StatusBadRequest, err.Error())
				return
			}
			input.Image = &chat.Attachment{Data: img, MIME: mime}
		}
	}

	msg, err := s.chats.SendMessage(r.Context(), input)
	if err != nil {
		s.chatError(w, err)
		return
	}

	metrics.MessagesSent.WithLabelValues(payloadKind(input)).Inc()
	s.respond(w, http.StatusCreated, map[string]any{"message": toMessageJSON(msg)})
}

func (s *Server) parseMultipartSend(r *http.Request, input *chat.SendInput) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	input.Text = r.FormValue("text")

	for field, target := range map[string]**chat.Attachment{
		"image": &input.Image,
		"audio": &input.Audio,
	} {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s upload: %w", field, err)
		}
		att, err := readAttachment(file, header)
		file.Close()
		if err != nil {
			return fmt.Errorf("read %s upload: %w", field, err)
		}
		*target = att
	}
	return nil
}

func readAttachment(file multipart.File, header *multipart.FileHeader) (*chat.Attachment, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &chat.Attachment{
		Data: data,
		MIME: header.Header.Get("Content-Type"),
	}, nil
}

// decodeImageField accepts either a data URL ("data:image/png;base64,...")
// or raw base64.
func decodeImageField(field string) ([]byte, string, error) {
	mime := ""
	if strings.HasPrefix(field, "data:") {
		meta, payload, ok := strings.Cut(field, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed image data URL")
		}
		mime = strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		field = payload
	}

	data, err := base64.StdEncoding.DecodeString(field)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return data, mime, nil
}

func payloadKind(input chat.SendInput) string {
	switch {
	case input.HasAudio():
		return "voice"
	case input.HasImage():
		return "image"
	default:
		return "text"
	}
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	peerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid peer id")
		return
	}

	msgs, err := s.chats.ListConversation(r.Context(), userID, peerID)
	if err != nil {
		s.chatError(w, err)
		return
	}

	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageJSON(m))
	}
	s.respond(w, http.StatusOK, map[string]any{"messages": out})
}

func (s *Server) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.callerID(w, r); !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	if err := s.chats.MarkSeen(r.Context(), id); err != nil {
		s.chatError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"seen": true})
}

func (s *Server) handleListPeers(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	peers, err := s.chats.ListPeers(r.Context(), userID)
	if err != nil {
		s.chatError(w, err)
		return
	}

	users := make([]userJSON, 0, len(peers))
	unseen := make(map[string]int)
	for _, p := range peers {
		users = append(users, toUserJSON(p.User))
		if p.UnseenCount > 0 {
			unseen[p.User.ID.String()] = p.UnseenCount
		}
	}
	s.respond(w, http.StatusOK, map[string]any{
		"users":          users,
		"unseenMessages": unseen,
	})
}

func (s *Server) handleAudioCall(w http.ResponseWriter, r *http.Request) {
	senderID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	receiverID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid receiver id")
		return
	}

	online, err := s.chats.RingUser(r.Context(), senderID, receiverID)
	if err != nil {
		s.chatError(w, err)
		return
	}

	metrics.CallsRung.Inc()
	s.respond(w, http.StatusOK, map[string]any{"online": online})
}

type upsertUserRequest struct {
	ID         string `json:"id" validate:"omitempty,uuid4"`
	FullName   string `json:"fullName" validate:"required,max=100"`
	Email      string `json:"email" validate:"omitempty,email"`
	Language   string `json:"language" validate:"required,max=40"`
	ProfilePic string `json:"profilePic"`
	Bio        string `json:"bio" validate:"max=500"`
}

func (s *Server) handleUpsertUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := chat.User{
		ID:         uuid.New(),
		FullName:   req.FullName,
		Email:      req.Email,
		Language:   strings.ToLower(req.Language),
		ProfilePic: req.ProfilePic,
		Bio:        req.Bio,
		CreatedAt:  time.Now().UTC(),
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			s.clientError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		u.ID = id
	}

	if err := s.users.Upsert(r.Context(), u); err != nil {
		s.serverError(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"user": toUserJSON(u)})
}

// handleEvents is the push channel: a server-sent event stream carrying
// newMessage and newCall events for the calling user.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.callerID(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		s.serverError(w, errors.New("streaming unsupported"))
		return
	}

	conn := s.registry.Connect(userID)
	defer s.registry.Disconnect(conn)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ping := time.NewTicker(ssePingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-conn.Events():
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				s.logger.Debug("sse write failed, closing stream",
					slog.String("user_id", userID.String()),
					slog.String("error", err.Error()),
				)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev chat.Event) error {
	data := ev.Data
	if msg, ok := data.(chat.Message); ok {
		data = toMessageJSON(msg)
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, payload)
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]any{"status": "ok"})
}

// callerID reads the authenticated user id from the request. Session design
// is out of scope; the id arrives in a trusted header.
func (s *Server) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(userIDHeader)
	if raw == "" {
		raw = r.URL.Query().Get("userId")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		s.clientError(w, http.StatusUnauthorized, "missing or invalid "+userIDHeader)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response failed", slog.String("error", err.Error()))
	}
}

// chatError maps the pipeline error taxonomy onto status codes.
func (s *Server) chatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrUserNotFound), errors.Is(err, chat.ErrNotFound):
		s.clientError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chat.ErrInvalidInput):
		s.clientError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrStorage):
		s.serverError(w, err)
	default:
		s.serverError(w, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.logger.Error("request error", slog.String("error", err.Error()))
	s.respond(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
}

func (s *Server) clientError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, map[string]any{"error": msg})
}

// statusWriter captures the response status for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// route pattern keeps metric cardinality bounded
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
