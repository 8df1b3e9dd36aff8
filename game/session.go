// Package game holds the word-guessing state for one player.
package game

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const DefaultWord = "BLOCKCHAIN"

var (
	ErrInvalidLetter  = errors.New("guess must be a single letter A-Z")
	ErrAlreadyGuessed = errors.New("letter already guessed")
	ErrNotGuessed     = errors.New("letter was not guessed")
	ErrGuessLimit     = errors.New("no guesses left")
	ErrInvalidWord    = errors.New("word must be letters A-Z")
)

// Session is a game in progress. Every Reset starts a new game with a new ID,
// so a solved game never shares its ID with the next one.
type Session struct {
	mu      sync.Mutex
	word    string
	id      string
	guessed []byte
}

type Snapshot struct {
	ID          string   `json:"id"`
	Masked      string   `json:"masked"`
	Guessed     []string `json:"guessed"`
	GuessesLeft int      `json:"guessesLeft"`
	Solved      bool     `json:"solved"`
	Length      int      `json:"length"`
}

func NewSession(word string) (*Session, error) {
	if word == "" {
		word = DefaultWord
	}
	word = strings.ToUpper(word)
	for i := 0; i < len(word); i++ {
		if !isLetter(word[i]) {
			return nil, ErrInvalidWord
		}
	}
	return &Session{word: word, id: uuid.NewString()}, nil
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Guess records a letter. A player gets as many guesses as the word has letters.
// It reports whether the word is solved after the guess.
func (s *Session) Guess(letter string) (bool, error) {
	c, err := parseLetter(letter)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c) >= 0 {
		return s.solved(), ErrAlreadyGuessed
	}
	if len(s.guessed) >= len(s.word) {
		return s.solved(), ErrGuessLimit
	}
	s.guessed = append(s.guessed, c)

	return s.solved(), nil
}

// Remove takes back a guess and returns it to the player.
func (s *Session) Remove(letter string) error {
	c, err := parseLetter(letter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(c)
	if i < 0 {
		return ErrNotGuessed
	}
	s.guessed = append(s.guessed[:i], s.guessed[i+1:]...)

	return nil
}

// Reset clears every guess and starts a new game. It returns the new game ID.
func (s *Session) Reset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guessed = nil
	s.id = uuid.NewString()
	return s.id
}

func (s *Session) Solved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solved()
}

// Masked renders the word with unguessed letters as underscores, e.g. "B _ O _ _ _ _ A _ _".
func (s *Session) Masked() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.masked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	guessed := make([]string, len(s.guessed))
	for i, c := range s.guessed {
		guessed[i] = string(c)
	}
	return Snapshot{
		ID:          s.id,
		Masked:      s.masked(),
		Guessed:     guessed,
		GuessesLeft: len(s.word) - len(s.guessed),
		Solved:      s.solved(),
		Length:      len(s.word),
	}
}

func (s *Session) solved() bool {
	for i := 0; i < len(s.word); i++ {
		if s.indexOf(s.word[i]) < 0 {
			return false
		}
	}
	return true
}

func (s *Session) masked() string {
	parts := make([]string, len(s.word))
	for i := 0; i < len(s.word); i++ {
		if s.indexOf(s.word[i]) >= 0 {
			parts[i] = string(s.word[i])
		} else {
			parts[i] = "_"
		}
	}
	return strings.Join(parts, " ")
}

func (s *Session) indexOf(c byte) int {
	for i, g := range s.guessed {
		if g == c {
			return i
		}
	}
	return -1
}

func parseLetter(letter string) (byte, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if len(letter) != 1 || !isLetter(letter[0]) {
		return 0, ErrInvalidLetter
	}
	return letter[0], nil
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
