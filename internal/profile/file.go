package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"

	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/salary"
)

// ageHeader is the prefix of age-encrypted files.
const ageHeader = "age-encryption.org"

// errCorruptDocument marks a document that was read and decrypted but is not valid JSON. Only
// such a document may be replaced by a fresh one.
var errCorruptDocument = errors.New("profiles document is corrupt")

// fileRecord is one entry of the profiles document. Config stays raw so missing fields are
// filled from the defaults when decoded.
type fileRecord struct {
	Name      string          `json:"name"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	Config    json.RawMessage `json:"config"`
}

// FileStore keeps every profile in one JSON document mapping profile id to record. When a
// passphrase is set the document is encrypted at rest with age.
type FileStore struct {
	path      string
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// NewFileStore returns a store backed by the document at path. An empty passphrase leaves the
// document in plain JSON. A passphrase that cannot decrypt an existing encrypted document is
// rejected with ErrBadPassphrase.
func NewFileStore(path, passphrase string) (*FileStore, error) {
	s := &FileStore{path: path}
	if passphrase == "" {
		return s, nil
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("create age identity: %w", err)
	}
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("create age recipient: %w", err)
	}
	s.identity = identity
	s.recipient = recipient

	if err := s.verifyPassphrase(); err != nil {
		return nil, err
	}
	return s, nil
}

// verifyPassphrase decrypts the existing document, if it is encrypted, to check the passphrase.
func (s *FileStore) verifyPassphrase() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profiles document: %w", err)
	}
	if !isAgeEncrypted(data) {
		return nil
	}
	if _, err := decryptData(data, s.identity); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPassphrase, err)
	}
	return nil
}

// SetWorkFactor sets the scrypt cost (log2 N) used when encrypting.
func (s *FileStore) SetWorkFactor(logN int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recipient != nil {
		s.recipient.SetWorkFactor(logN)
	}
}

// Path returns the location of the profiles document.
func (s *FileStore) Path() string {
	return s.path
}

// IsEncrypted reports whether the document on disk is age-encrypted.
func (s *FileStore) IsEncrypted() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read profiles document: %w", err)
	}
	return isAgeEncrypted(data), nil
}

// Get returns the profile stored under id, or ErrNotFound.
func (s *FileStore) Get(_ context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return Profile{}, err
	}
	rec, ok := doc[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return rec.profile(id)
}

// Put inserts or replaces the whole profile record.
func (s *FileStore) Put(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil && !errors.Is(err, errCorruptDocument) {
		return err
	}
	if err != nil {
		logger.Log.Warn().Err(err).Str("file", s.path).Msg("Profiles document unreadable; rewriting it from scratch")
		doc = make(map[string]fileRecord)
	}

	config, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("encode rate config: %w", err)
	}
	doc[p.ID] = fileRecord{
		Name:      p.Name,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
		Config:    config,
	}
	return s.write(doc)
}

// List returns every profile, newest first.
func (s *FileStore) List(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(doc))
	for id, rec := range doc {
		p, err := rec.profile(id)
		if err != nil {
			logger.Log.Warn().Err(err).Str("profile_id", id).Msg("Listing profile with unreadable config")
		}
		profiles = append(profiles, p)
	}
	sortNewestFirst(profiles)
	return profiles, nil
}

// Delete removes the profile stored under id, or returns ErrNotFound.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc[id]; !ok {
		return ErrNotFound
	}
	delete(doc, id)
	return s.write(doc)
}

// profile decodes the record. On a bad config the returned profile carries defaults and
// Recovered is set alongside the error.
func (r fileRecord) profile(id string) (Profile, error) {
	p := Profile{ID: id, Name: r.Name}

	var errs []error
	var err error
	if p.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		errs = append(errs, fmt.Errorf("parse created_at: %w", err))
	}
	if p.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		errs = append(errs, fmt.Errorf("parse updated_at: %w", err))
	}
	if p.Config, err = salary.DecodeRateConfig(r.Config); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		p.Recovered = true
		return p, fmt.Errorf("profile %s: %w", id, errors.Join(errs...))
	}
	return p, nil
}

// read loads the document. A missing file is an empty document.
func (s *FileStore) read() (map[string]fileRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]fileRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles document: %w", err)
	}

	if isAgeEncrypted(data) {
		if s.identity == nil {
			return nil, ErrLocked
		}
		if data, err = decryptData(data, s.identity); err != nil {
			return nil, fmt.Errorf("decrypt profiles document: %w: %w", ErrBadPassphrase, err)
		}
	}

	doc := make(map[string]fileRecord)
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode profiles document: %w: %w", errCorruptDocument, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc map[string]fileRecord) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles document: %w", err)
	}

	if s.recipient != nil {
		if data, err = encryptData(data, s.recipient); err != nil {
			return fmt.Errorf("encrypt profiles document: %w", err)
		}
	}

	return atomicWrite(s.path, data, 0o600)
}

// atomicWrite writes data to a temp file next to path and renames it into place.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("write profiles document: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace profiles document: %w", err)
	}
	return nil
}

func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}

func encryptData(data []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decryptData(data []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
