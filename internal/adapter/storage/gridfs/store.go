// Package gridfs stores uploaded listing images in MongoDB GridFS.
// Listing rows only keep the public URL; the bytes live here.
package gridfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

const connectTimeout = 10 * time.Second

// Store wraps a GridFS bucket.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	bucket string
}

// File is an open download. The caller must Close it.
type File struct {
	io.ReadCloser
	Name        string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri, database, bucket string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("gridfs: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("gridfs: ping: %w", err)
	}

	return New(client, database, bucket), nil
}

// New builds a Store on an existing client.
func New(client *mongo.Client, database, bucket string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
		bucket: bucket,
	}
}

// Ping checks that the primary is reachable. Used by readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Save streams r into a new GridFS file and returns its hex id.
func (s *Store) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	b, err := s.open(ctx)
	if err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	id, err := b.UploadFromStream(name, r, opts)
	if err != nil {
		return "", fmt.Errorf("gridfs: upload %s: %w", name, err)
	}
	return id.Hex(), nil
}

// Open returns a reader for the file with the given hex id.
// Unknown and malformed ids both yield domain.ErrNotFound.
func (s *Store) Open(ctx context.Context, id string) (*File, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	b, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("gridfs: open %s: %w", id, err)
	}

	meta := stream.GetFile()
	contentType := "application/octet-stream"
	if v, ok := meta.Metadata.Lookup("contentType").StringValueOK(); ok && v != "" {
		contentType = v
	}

	return &File{
		ReadCloser:  stream,
		Name:        meta.Name,
		ContentType: contentType,
		Size:        meta.Length,
		UploadedAt:  meta.UploadDate,
	}, nil
}

// open creates a bucket handle bound to the deadline of ctx.
// Deadlines are per bucket, so handles are not shared between requests.
func (s *Store) open(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs: bucket: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, fmt.Errorf("gridfs: read deadline: %w", err)
		}
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, fmt.Errorf("gridfs: write deadline: %w", err)
		}
	}
	return b, nil
}
