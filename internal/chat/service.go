package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates the send-and-translate pipeline and answers
// conversation queries.
type Service struct {
	logger      *slog.Logger
	messages    MessageRepository
	users       UserDirectory
	translator  Translator
	transcriber Transcriber
	synthesizer Synthesizer
	blobs       BlobStore
	presence    Presence
}

// NewService constructs a Service.
func NewService(
	logger *slog.Logger,
	messages MessageRepository,
	users UserDirectory,
	translator Translator,
	transcriber Transcriber,
	synthesizer Synthesizer,
	blobs BlobStore,
	presence Presence,
) *Service {
	return &Service{
		logger:      logger,
		messages:    messages,
		users:       users,
		translator:  translator,
		transcriber: transcriber,
		synthesizer: synthesizer,
		blobs:       blobs,
		presence:    presence,
	}
}

// SendMessage runs the pipeline for one outgoing message:
// resolve participants, store binary payloads, derive the receiver-language
// text (transcribing and translating as needed), synthesize translated
// speech for voice messages, persist, and push to the receiver if online.
//
// Adapter failures during derivation degrade the message instead of failing
// the send: the best text produced so far is kept and translated audio is
// simply omitted. Participant resolution, required uploads, and persistence
// are the only fatal steps.
func (s *Service) SendMessage(ctx context.Context, in SendInput) (Message, error) {
	sender, receiver, err := s.resolveParticipants(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:           uuid.New(),
		SenderID:     sender.ID,
		ReceiverID:   receiver.ID,
		OriginalText: in.Text,
		CreatedAt:    time.Now().UTC(),
	}

	if in.HasImage() {
		locator, err := s.blobs.Store(ctx, in.Image.Data, KindImage, in.Image.MIME)
		if err != nil {
			return Message{}, fmt.Errorf("%w: store image: %v", ErrStorage, err)
		}
		msg.Image = locator
	}

	if in.HasAudio() {
		locator, err := s.blobs.Store(ctx, in.Audio.Data, KindAudio, in.Audio.MIME)
		if err != nil {
			return Message{}, fmt.Errorf("%w: store audio: %v", ErrStorage, err)
		}
		msg.OriginalAudio = locator
	}

	// Translation runs iff the preferred languages differ, compared as exact
	// strings. Matching languages pass the original text through untouched
	// and never call an adapter, even for voice messages.
	if sender.Language != receiver.Language {
		s.deriveTranslated(ctx, &msg, in, receiver.Language)
	} else {
		msg.TranslatedText = msg.OriginalText
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if delivered := s.presence.DeliverIfOnline(receiver.ID, Event{Name: "newMessage", Data: msg}); !delivered {
		s.logger.Debug("receiver offline, skipping push",
			slog.String("message_id", msg.ID.String()),
			slog.String("receiver_id", receiver.ID.String()),
		)
	}

	return msg, nil
}

// deriveTranslated fills TranslatedText and, for voice messages,
// TranslatedAudio. Every step falls back on failure: a failed transcription
// leaves the typed text, a failed translation keeps the best untranslated
// text, and a failed synthesis drops only the translated audio.
func (s *Service) deriveTranslated(ctx context.Context, msg *Message, in SendInput, targetLanguage string) {
	sourceText := in.Text

	if in.HasAudio() {
		transcript, err := s.transcriber.Transcribe(ctx, msg.OriginalAudio)
		if err != nil {
			s.logger.Error("transcription failed, keeping typed text",
				slog.String("message_id", msg.ID.String()),
				slog.String("audio", msg.OriginalAudio),
				slog.String("error", err.Error()),
			)
		} else {
			sourceText = transcript
			if msg.OriginalText == "" {
				msg.OriginalText = transcript
			}
		}
	}

	msg.TranslatedText = sourceText
	if sourceText == "" {
		return
	}

	translated, err := s.translator.Translate(ctx, sourceText, targetLanguage)
	if err != nil {
		s.logger.Error("translation failed, falling back to source text",
			slog.String("message_id", msg.ID.String()),
			slog.String("target_language", targetLanguage),
			slog.String("error", err.Error()),
		)
		return
	}
	msg.TranslatedText = translated

	// Pure-text messages are never voiced; synthesis is tied to voice input.
	if !in.HasAudio() {
		return
	}

	locator, err := s.synthesizer.Synthesize(ctx, translated, VoiceMale, targetLanguage)
	if err != nil {
		s.logger.Error("synthesis failed, omitting translated audio",
			slog.String("message_id", msg.ID.String()),
			slog.String("target_language", targetLanguage),
			slog.String("error", err.Error()),
		)
		return
	}
	msg.TranslatedAudio = locator
}

func (s *Service) resolveParticipants(ctx context.Context, senderID, receiverID uuid.UUID) (User, User, error) {
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, User{}, fmt.Errorf("%w: sender %s", ErrUserNotFound, senderID)
		}
		return User{}, User{}, fmt.Errorf("resolve sender: %w", err)
	}

	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, User{}, fmt.Errorf("%w: receiver %s", ErrUserNotFound, receiverID)
		}
		return User{}, User{}, fmt.Errorf("resolve receiver: %w", err)
	}

	return sender, receiver, nil
}

// ListPeers returns every other user together with the count of their
// messages to userID that are still unseen. Scans all users per call, which
// is fine for small deployments.
func (s *Service) ListPeers(ctx context.Context, userID uuid.UUID) ([]Peer, error) {
	others, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	peers := make([]Peer, 0, len(others))
	for _, u := range others {
		count, err := s.messages.CountUnseen(ctx, u.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("count unseen from %s: %w", u.ID, err)
		}
		peers = append(peers, Peer{User: u, UnseenCount: count})
	}
	return peers, nil
}

// ListConversation returns the two-party history between userID and peerID
// in creation order and marks everything from the peer as seen.
func (s *Service) ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]Message, error) {
	msgs, err := s.messages.Conversation(ctx, userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if err := s.messages.MarkConversationSeen(ctx, peerID, userID); err != nil {
		return nil, fmt.Errorf("mark conversation seen: %w", err)
	}
	return msgs, nil
}

// MarkSeen idempotently flags one message as seen.
func (s *Service) MarkSeen(ctx context.Context, id uuid.UUID) error {
	if err := s.messages.MarkSeen(ctx, id); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// RingUser sends a best-effort call notification to the receiver's live
// connection. It reports whether the receiver was online; there is no
// session or media negotiation behind it.
func (s *Service) RingUser(ctx context.Context, senderID, receiverID uuid.UUID) (bool, error) {
	sender, receiver, err := s.resolveParticipants(ctx, senderID, receiverID)
	if err != nil {
		return false, err
	}

	online := s.presence.DeliverIfOnline(receiver.ID, Event{
		Name: "newCall",
		Data: map[string]string{
			"name":       sender.FullName,
			"senderId":   sender.ID.String(),
			"receiverId": receiver.ID.String(),
		},
	})
	if !online {
		s.logger.Info("call receiver offline",
			slog.String("sender_id", sender.ID.String()),
			slog.String("receiver_id", receiver.ID.String()),
		)
	}
	return online, nil
}
