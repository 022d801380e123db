package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

const booksCollection = "books"

type BookRepository struct {
	col *mongo.Collection
}

func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{col: db.Collection(booksCollection)}
}

type mongoBook struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	Title          string              `bson:"title"`
	Caption        string              `bson:"caption"`
	Rating         int                 `bson:"rating"`
	Image          string              `bson:"image"`
	User           *primitive.ObjectID `bson:"user,omitempty"`
	IdempotencyKey string              `bson:"idempotencyKey,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt"`

	// populated by the $lookup stage of List only
	Author []mongoUser `bson:"author,omitempty"`
}

func fromDomainBook(b *domain.Book) mongoBook {
	doc := mongoBook{
		Title:          b.Title,
		Caption:        b.Caption,
		Rating:         b.Rating,
		Image:          b.Image,
		IdempotencyKey: b.IdempotencyKey,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if oid, ok := parseID(b.AuthorID); ok {
		doc.User = &oid
	}
	return doc
}

func (mb *mongoBook) toDomain() *domain.Book {
	b := &domain.Book{
		ID:             mb.ID.Hex(),
		Title:          mb.Title,
		Caption:        mb.Caption,
		Rating:         mb.Rating,
		Image:          mb.Image,
		IdempotencyKey: mb.IdempotencyKey,
		CreatedAt:      mb.CreatedAt.UTC(),
		UpdatedAt:      mb.UpdatedAt.UTC(),
	}
	if mb.User != nil {
		b.AuthorID = mb.User.Hex()
	}
	if len(mb.Author) > 0 {
		b.Author = mb.Author[0].toDomain().Summary()
	}
	return b
}

// Create inserts a new book document and assigns its ID. A reused
// idempotency key yields domain.ErrDuplicateBook.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, fromDomainBook(b))
	if err != nil {
		// idempotencyKey carries the only unique index on books
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateBook
		}
		return fmt.Errorf("insert book: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert book: unexpected id type %T", res.InsertedID)
	}
	b.ID = oid.Hex()
	return nil
}

func (r *BookRepository) FindByID(ctx context.Context, id string) (*domain.Book, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByIdempotencyKey retrieves an existing book that was created with the given key.
func (r *BookRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Book, error) {
	return r.findOne(ctx, bson.M{"idempotencyKey": key})
}

func (r *BookRepository) findOne(ctx context.Context, filter bson.M) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mb mongoBook
	if err := r.col.FindOne(ctx, filter).Decode(&mb); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return mb.toDomain(), nil
}

// List counts the matching books and returns one window of them, newest
// first, with the author summary joined from the users collection.
func (r *BookRepository) List(ctx context.Context, f ports.ListBooksFilter) ([]*domain.Book, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	match, ok := listMatch(f)
	if !ok {
		return []*domain.Book{}, 0, nil
	}

	total, err := r.col.CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	cur, err := r.col.Aggregate(ctx, listPipeline(match, f))
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate books: %w", err)
	}
	defer cur.Close(ctx)

	books := make([]*domain.Book, 0, f.Limit)
	for cur.Next(ctx) {
		var mb mongoBook
		if err := cur.Decode(&mb); err != nil {
			return nil, 0, fmt.Errorf("decode book: %w", err)
		}
		books = append(books, mb.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate books: %w", err)
	}
	return books, total, nil
}

// listMatch builds the $match document. ok is false when the author filter
// can never match.
func listMatch(f ports.ListBooksFilter) (bson.M, bool) {
	match := bson.M{}
	if f.AuthorID != "" {
		oid, ok := parseID(f.AuthorID)
		if !ok {
			return nil, false
		}
		match["user"] = oid
	}
	return match, true
}

func listPipeline(match bson.M, f ports.ListBooksFilter) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if f.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: f.Skip}})
	}
	if f.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: f.Limit}})
	}
	return append(pipeline, bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: usersCollection},
		{Key: "localField", Value: "user"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "author"},
	}}})
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return domain.ErrBookNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the books collection.
func (r *BookRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
