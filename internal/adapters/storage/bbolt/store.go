// Package bbolt is the offline backend: conversations, chat logs and uploaded
// documents live in a single bbolt file. Values are JSON records.
package bbolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketConversations = []byte("conversations")
	bucketLogs          = []byte("logs")
	bucketUploads       = []byte("uploads")
)

type Store struct {
	db    *bolt.DB
	clock ports.Clock
	ids   ports.IDGenerator
}

var _ ports.ConversationAPI = (*Store)(nil)

// Open opens (or creates) the database at path.
func Open(path string, clock ports.Clock, ids ports.IDGenerator) (*Store, error) {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ids == nil {
		ids = ports.UUIDGenerator{}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketConversations, bucketLogs, bucketUploads} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bbolt init buckets: %w", err)
	}

	return &Store{db: db, clock: clock, ids: ids}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type conversationRecord struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r conversationRecord) toDomain() domain.Conversation {
	return domain.Conversation{
		ID:        domain.ConversationID(r.ID),
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type turnRecord struct {
	ID              string    `json:"id"`
	UserMessage     string    `json:"user_message"`
	ResponseMessage string    `json:"response_message"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Store) CreateConversation(ctx context.Context, owner domain.OwnerID) (domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}
	if owner.IsZero() {
		return domain.Conversation{}, domain.ErrUnauthenticated
	}

	now := s.clock.Now()
	record := conversationRecord{
		ID:        s.ids.NewID(),
		Owner:     string(owner),
		Title:     domain.DefaultConversationTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketConversations), []byte(record.ID), record)
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("store conversation: %w", err)
	}

	return record.toDomain(), nil
}

// ListConversations returns owner's conversations, most recently updated first.
func (s *Store) ListConversations(ctx context.Context, owner domain.OwnerID) ([]domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if owner.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	var conversations []domain.Conversation
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketConversations).ForEach(func(_, v []byte) error {
			var record conversationRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("decode conversation: %w", err)
			}
			if record.Owner == string(owner) {
				conversations = append(conversations, record.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	domain.SortByRecency(conversations)
	return conversations, nil
}

func (s *Store) GetLogs(ctx context.Context, id domain.ConversationID) ([]domain.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var turns []domain.Turn
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketConversations).Get([]byte(id)) == nil {
			return domain.ErrConversationNotFound
		}
		logs := tx.Bucket(bucketLogs).Bucket([]byte(id))
		if logs == nil {
			return nil
		}
		// keys are big-endian sequence numbers, so cursor order is insertion order
		return logs.ForEach(func(_, v []byte) error {
			var record turnRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("decode turn: %w", err)
			}
			turns = append(turns, domain.Turn{
				ID:              domain.TurnID(record.ID),
				UserMessage:     record.UserMessage,
				ResponseMessage: record.ResponseMessage,
				CreatedAt:       record.CreatedAt,
			})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get logs %s: %w", id, err)
	}

	return turns, nil
}

func (s *Store) RenameConversation(ctx context.Context, id domain.ConversationID, title string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ErrEmptyTitle
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketConversations)
		var record conversationRecord
		if err := getJSON(bucket, []byte(id), &record); err != nil {
			return err
		}
		record.Title = title
		record.UpdatedAt = s.clock.Now()
		return putJSON(bucket, []byte(id), record)
	})
	if err != nil {
		return fmt.Errorf("rename conversation %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketConversations)
		if bucket.Get([]byte(id)) == nil {
			return domain.ErrConversationNotFound
		}
		if err := bucket.Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketLogs).DeleteBucket([]byte(id)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return nil
}

// AppendTurn records one exchange and bumps the conversation's updated time.
func (s *Store) AppendTurn(ctx context.Context, id domain.ConversationID, userMessage string, response string) (domain.Turn, error) {
	if err := ctx.Err(); err != nil {
		return domain.Turn{}, err
	}

	now := s.clock.Now()
	record := turnRecord{
		ID:              s.ids.NewID(),
		UserMessage:     userMessage,
		ResponseMessage: response,
		CreatedAt:       now,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		conversations := tx.Bucket(bucketConversations)
		var conversation conversationRecord
		if err := getJSON(conversations, []byte(id), &conversation); err != nil {
			return err
		}
		conversation.UpdatedAt = now
		if err := putJSON(conversations, []byte(id), conversation); err != nil {
			return err
		}

		logs, err := tx.Bucket(bucketLogs).CreateBucketIfNotExists([]byte(id))
		if err != nil {
			return err
		}
		seq, err := logs.NextSequence()
		if err != nil {
			return err
		}
		return putJSON(logs, sequenceKey(seq), record)
	})
	if err != nil {
		return domain.Turn{}, fmt.Errorf("append turn to %s: %w", id, err)
	}

	return domain.Turn{
		ID:              domain.TurnID(record.ID),
		UserMessage:     record.UserMessage,
		ResponseMessage: record.ResponseMessage,
		CreatedAt:       record.CreatedAt,
	}, nil
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func putJSON(bucket *bolt.Bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return bucket.Put(key, data)
}

// getJSON decodes the value under key, reporting a missing key as
// domain.ErrConversationNotFound.
func getJSON(bucket *bolt.Bucket, key []byte, out any) error {
	data := bucket.Get(key)
	if data == nil {
		return domain.ErrConversationNotFound
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
