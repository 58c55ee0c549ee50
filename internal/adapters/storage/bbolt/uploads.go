package bbolt

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/recallo/recallo-cli/internal/ports"
	bolt "go.etcd.io/bbolt"
)

const excerptBytes = 2048

type UploadLimits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Uploads accepts documents into the offline store. Content is hashed per
// owner so the same file uploaded twice is reported as a duplicate.
type Uploads struct {
	store  *Store
	limits UploadLimits
}

var _ ports.UploadAPI = (*Uploads)(nil)

func NewUploads(store *Store, limits UploadLimits) *Uploads {
	return &Uploads{store: store, limits: limits}
}

type documentRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Hash       string    `json:"hash"`
	Excerpt    string    `json:"excerpt,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func (u *Uploads) Upload(ctx context.Context, owner domain.OwnerID, name string, content io.Reader) (domain.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.UploadResult{}, err
	}
	if owner.IsZero() {
		return domain.UploadResult{}, domain.ErrUnauthenticated
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if len(u.limits.AllowedTypes) > 0 && !slices.Contains(u.limits.AllowedTypes, ext) {
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonUnsupportedType, Message: "Invalid file type"}
	}

	reader := content
	if u.limits.MaxBytes > 0 {
		reader = io.LimitReader(content, u.limits.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("read %s: %w", name, err)
	}
	if u.limits.MaxBytes > 0 && int64(len(data)) > u.limits.MaxBytes {
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonTooLarge, Message: "File is too large"}
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	record := documentRecord{
		ID:         u.store.ids.NewID(),
		Name:       filepath.Base(name),
		Size:       int64(len(data)),
		Hash:       hash,
		Excerpt:    excerpt(ext, data),
		UploadedAt: u.store.clock.Now(),
	}

	var duplicate bool
	err = u.store.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(bucketUploads).CreateBucketIfNotExists([]byte(owner))
		if err != nil {
			return err
		}
		if bucket.Get([]byte(hash)) != nil {
			duplicate = true
			return nil
		}
		return putJSON(bucket, []byte(hash), record)
	})
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("store upload: %w", err)
	}
	if duplicate {
		return domain.UploadResult{}, &domain.UploadError{Reason: domain.UploadReasonDuplicate, Message: "You have already uploaded this file earlier."}
	}

	return domain.UploadResult{
		RemoteID: record.ID,
		Message:  fmt.Sprintf("%s stored offline (%d bytes).", record.Name, record.Size),
	}, nil
}

// document looks up one of owner's uploads. A reference without an id, as
// left by a duplicate upload, matches the latest upload with the same name.
func (s *Store) document(owner domain.OwnerID, ref domain.FileRef) (documentRecord, bool, error) {
	var found documentRecord
	var ok bool

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketUploads).Bucket([]byte(owner))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var record documentRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("decode document: %w", err)
			}
			switch {
			case ref.RemoteID != "":
				if record.ID == ref.RemoteID {
					found, ok = record, true
				}
			case record.Name == filepath.Base(ref.Name):
				if !ok || record.UploadedAt.After(found.UploadedAt) {
					found, ok = record, true
				}
			}
			return nil
		})
	})
	return found, ok, err
}

func excerpt(ext string, data []byte) string {
	if ext != "txt" {
		return ""
	}
	if len(data) > excerptBytes {
		data = data[:excerptBytes]
	}
	for !utf8.Valid(data) && len(data) > 0 {
		data = data[:len(data)-1]
	}
	return string(bytes.TrimSpace(data))
}
