package billing

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/storage"
)

// PhotoService stores client photos in object storage.
type PhotoService struct {
	repo    Repository
	store   storage.Storage
	maxSize int64
	log     *logger.Logger
}

// NewPhotoService creates a PhotoService. Uploads larger than maxSize bytes
// are rejected.
func NewPhotoService(repo Repository, store storage.Storage, maxSize int64, log *logger.Logger) *PhotoService {
	if maxSize <= 0 {
		maxSize = storage.DefaultMaxFileSize
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &PhotoService{
		repo:    repo,
		store:   store,
		maxSize: maxSize,
		log:     log.WithComponent("billing.photos"),
	}
}

// PhotoTypes lists the accepted photo formats. Detection looks at the file
// contents; the name the client sent is ignored.
var PhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// PhotoKey builds the storage key for a new photo of the client.
func PhotoKey(clientID int64, ext string) string {
	return fmt.Sprintf("clients/%d/%s%s", clientID, uuid.NewString(), ext)
}

// detectPhoto reads the head of r and returns the detected image type along
// with a reader that replays the whole content.
func detectPhoto(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !stderrors.Is(err, io.ErrUnexpectedEOF) && !stderrors.Is(err, io.EOF) {
		return nil, nil, errors.InvalidInput("file", "file could not be read").WithCause(err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	for _, allowed := range PhotoTypes {
		if mtype.Is(allowed) {
			return mtype, io.MultiReader(bytes.NewReader(head), r), nil
		}
	}
	return nil, nil, errors.InvalidInput("file", "file must be a JPEG, PNG, GIF or WebP image").
		WithDetail("detected", mtype.String())
}

// Upload stores r as the client's photo and returns the updated client. The
// content must be one of PhotoTypes. The previous photo, if any, is deleted
// once the new one is recorded.
func (p *PhotoService) Upload(ctx context.Context, clientID int64, size int64, r io.Reader) (*Client, error) {
	if size > p.maxSize {
		return nil, errors.InvalidInput("file", fmt.Sprintf("file exceeds the %d byte limit", p.maxSize))
	}
	if size == 0 {
		return nil, errors.InvalidInput("file", "file is empty")
	}

	client, err := p.repo.FindClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	mtype, content, err := detectPhoto(io.LimitReader(r, p.maxSize))
	if err != nil {
		return nil, err
	}
	contentType := mtype.String()

	key := PhotoKey(clientID, mtype.Extension())
	if err := p.store.Upload(ctx, key, content); err != nil {
		return nil, errors.StorageError("upload", err)
	}

	if err := p.repo.UpdateClientPhoto(ctx, clientID, key, contentType); err != nil {
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			p.log.WithContext(ctx).Warn("Failed to remove orphaned photo", logger.Fields("key", key, logger.FieldError, delErr.Error()))
		}
		return nil, err
	}

	if previous := client.Photo; previous != "" && previous != key {
		if err := p.store.Delete(ctx, previous); err != nil {
			p.log.WithContext(ctx).Warn("Failed to delete previous photo", logger.Fields("key", previous, logger.FieldError, err.Error()))
		}
	}

	client.Photo = key
	client.PhotoType = contentType
	p.log.WithContext(ctx).Info("Client photo updated", logger.Fields("client_id", clientID, "key", key, "type", contentType))
	return client, nil
}

// Open returns the client's current photo and its content type. The caller
// closes the reader.
func (p *PhotoService) Open(ctx context.Context, clientID int64) (io.ReadCloser, string, error) {
	client, err := p.repo.FindClient(ctx, clientID)
	if err != nil {
		return nil, "", err
	}
	if client.Photo == "" {
		return nil, "", errors.NotFound("photo", strconv.FormatInt(clientID, 10))
	}

	rc, err := p.store.Download(ctx, client.Photo)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, "", errors.NotFound("photo", strconv.FormatInt(clientID, 10))
		}
		return nil, "", errors.StorageError("download", err)
	}

	contentType := client.PhotoType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}
