package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound signals a missing message.
	ErrNotFound = errors.New("message not found")

	// ErrUserNotFound signals that a sender or receiver id does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidInput signals validation errors on a send request.
	ErrInvalidInput = errors.New("invalid message input")

	// ErrStorage signals a blob store failure for a required upload.
	ErrStorage = errors.New("blob storage failed")

	// ErrTranscription signals a speech-to-text failure.
	ErrTranscription = errors.New("transcription failed")

	// ErrTranslation signals a text translation failure.
	ErrTranslation = errors.New("translation failed")

	// ErrSynthesis signals a text-to-speech failure.
	ErrSynthesis = errors.New("speech synthesis failed")

	// ErrUnsupportedVoice signals that no voice is mapped for a language.
	ErrUnsupportedVoice = errors.New("no voice for language")

	// ErrPersistence signals that the message could not be written.
	ErrPersistence = errors.New("message persistence failed")
)

// Message is a persisted chat message between two users. TranslatedText is
// always set when OriginalText is: it falls back to the untranslated text if
// the translator is unavailable. Only Seen changes after creation.
type Message struct {
	ID              uuid.UUID
	SenderID        uuid.UUID
	ReceiverID      uuid.UUID
	OriginalText    string
	TranslatedText  string
	OriginalAudio   string
	TranslatedAudio string
	Image           string
	Seen            bool
	CreatedAt       time.Time
}

// User is a chat participant. Language is the user's preferred language name
// ("english", "french", ...) and drives the translation decision.
type User struct {
	ID         uuid.UUID
	FullName   string
	Email      string
	Language   string
	ProfilePic string
	Bio        string
	CreatedAt  time.Time
}

// Attachment carries an uploaded binary payload plus its declared MIME type.
type Attachment struct {
	Data []byte
	MIME string
}

// SendInput is the payload of one send operation, resolved into its variant
// fields once at pipeline entry. Zero or one of Text, Image, and Audio may be
// set; an empty input produces a content-less message.
type SendInput struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Text       string
	Image      *Attachment
	Audio      *Attachment
}

// HasImage reports whether an image payload is present.
func (in SendInput) HasImage() bool { return in.Image != nil && len(in.Image.Data) > 0 }

// HasAudio reports whether a voice payload is present.
func (in SendInput) HasAudio() bool { return in.Audio != nil && len(in.Audio.Data) > 0 }

// Peer pairs a visible conversation partner with the number of their
// messages the caller has not seen yet.
type Peer struct {
	User        User
	UnseenCount int
}

// Blob content kinds, mapped to upload namespaces by the blob store.
const (
	KindImage      = "images"
	KindAudio      = "audio"
	KindTranslated = "translates"
	KindProfile    = "profiles"
)

// Voice identifiers accepted by the synthesizer.
const (
	VoiceMale   = "male"
	VoiceFemale = "female"
)

// MessageRepository defines the message persistence contract.
type MessageRepository interface {
	Create(ctx context.Context, msg Message) error
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	Conversation(ctx context.Context, a, b uuid.UUID) ([]Message, error)
	MarkSeen(ctx context.Context, id uuid.UUID) error
	MarkConversationSeen(ctx context.Context, from, to uuid.UUID) error
	CountUnseen(ctx context.Context, from, to uuid.UUID) (int, error)
}

// UserDirectory resolves and lists chat participants.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	ListOthers(ctx context.Context, id uuid.UUID) ([]User, error)
}

// Translator converts text into a target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Transcriber converts a stored audio blob into plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioLocator string) (string, error)
}

// Synthesizer renders text as speech in the target language and stores the
// result, returning its locator.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, targetLanguage string) (string, error)
}

// BlobStore persists binary payloads and returns retrievable locators.
type BlobStore interface {
	Store(ctx context.Context, data []byte, kind, mime string) (string, error)
}

// Event is a payload pushed to a live connection.
type Event struct {
	Name string
	Data any
}

// Presence delivers events to users with a live connection. Delivery is
// best-effort: Deliver reports whether the user was online but never fails
// the caller.
type Presence interface {
	DeliverIfOnline(userID uuid.UUID, ev Event) bool
}
