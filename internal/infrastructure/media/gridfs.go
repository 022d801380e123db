package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paghive/paghive/internal/core/domain"
)

const (
	bucketName = "images"
	mediaRoute = "/media/"
)

// GridFSStore keeps images in the document store and serves them through the
// API at <publicURL>/media/<id>.
type GridFSStore struct {
	bucket    *gridfs.Bucket
	publicURL string
}

func NewGridFSStore(db *mongo.Database, publicURL string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *GridFSStore) Name() string { return MediaGridFS }

func (s *GridFSStore) Upload(ctx context.Context, img domain.ImagePayload) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: img.ContentType}})

	stream, err := s.bucket.OpenUploadStream(primitive.NewObjectID().Hex(), opts)
	if err != nil {
		return "", fmt.Errorf("gridfs open upload: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := io.Copy(stream, bytes.NewReader(img.Data)); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("gridfs write: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("gridfs close: %w", err)
	}

	oid, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("gridfs: unexpected file id type %T", stream.FileID)
	}
	return s.publicURL + mediaRoute + oid.Hex(), nil
}

// Destroy removes the file. A file that is already gone is not an error.
func (s *GridFSStore) Destroy(ctx context.Context, publicID string) error {
	oid, err := primitive.ObjectIDFromHex(publicID)
	if err != nil {
		return nil
	}
	if err := s.bucket.DeleteContext(ctx, oid); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete: %w", err)
	}
	return nil
}

func (s *GridFSStore) PublicID(imageURL string) (string, bool) {
	return gridfsPublicID(imageURL, s.publicURL)
}

func gridfsPublicID(imageURL, publicURL string) (string, bool) {
	hex, ok := strings.CutPrefix(imageURL, publicURL+mediaRoute)
	if !ok {
		return "", false
	}
	if _, err := primitive.ObjectIDFromHex(hex); err != nil {
		return "", false
	}
	return hex, true
}

// Open streams a stored image. The caller must close the returned reader.
func (s *GridFSStore) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", domain.ErrImageNotFound
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", domain.ErrImageNotFound
		}
		return nil, "", fmt.Errorf("gridfs open download: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return stream, contentType, nil
}
