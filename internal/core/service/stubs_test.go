package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/paghive/paghive/internal/core/domain"
	"github.com/paghive/paghive/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubBookRepo struct {
	books      map[string]*domain.Book
	users      *stubUserRepo // used to join author summaries
	seq        int
	createErr  error
	findKeyErr error
	listErr    error
	deleteErr  error
	lastFilter ports.ListBooksFilter

	// beforeCreate runs ahead of the insert, standing in for a concurrent writer
	beforeCreate func()
}

func newStubBookRepo(users *stubUserRepo) *stubBookRepo {
	return &stubBookRepo{books: make(map[string]*domain.Book), users: users}
}

func (r *stubBookRepo) Create(_ context.Context, b *domain.Book) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	if r.createErr != nil {
		return r.createErr
	}
	if b.IdempotencyKey != "" {
		for _, existing := range r.books {
			if existing.IdempotencyKey == b.IdempotencyKey {
				return domain.ErrDuplicateBook
			}
		}
	}
	r.seq++
	b.ID = fmt.Sprintf("book-%03d", r.seq)
	clone := *b
	r.books[b.ID] = &clone
	return nil
}

func (r *stubBookRepo) FindByID(_ context.Context, id string) (*domain.Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *stubBookRepo) FindByIdempotencyKey(_ context.Context, key string) (*domain.Book, error) {
	if r.findKeyErr != nil {
		return nil, r.findKeyErr
	}
	for _, b := range r.books {
		if b.IdempotencyKey == key {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrBookNotFound
}

// List mirrors the Mongo pipeline: sort createdAt desc then _id desc, skip,
// limit, join author.
func (r *stubBookRepo) List(_ context.Context, f ports.ListBooksFilter) ([]*domain.Book, int64, error) {
	r.lastFilter = f
	if r.listErr != nil {
		return nil, 0, r.listErr
	}

	var matched []*domain.Book
	for _, b := range r.books {
		if f.AuthorID != "" && b.AuthorID != f.AuthorID {
			continue
		}
		clone := *b
		if r.users != nil {
			if u, ok := r.users.byID[b.AuthorID]; ok {
				clone.Author = u.Summary()
			}
		}
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	skip := int(f.Skip)
	if skip > len(matched) {
		return []*domain.Book{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && skip+int(f.Limit) < end {
		end = skip + int(f.Limit)
	}
	return matched[skip:end], total, nil
}

func (r *stubBookRepo) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.books, id)
	return nil
}

type stubUserRepo struct {
	byID    map[string]*domain.User
	seq     int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("user-%03d", r.seq)
	r.byID[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) seed(name, email string) *domain.User {
	u, _ := r.Create(context.Background(), &domain.User{Name: name, Email: email, ProfileImage: domain.AvatarURL(email)})
	return u
}

// ---------------------------------------------------------------------------
// Media stubs
// ---------------------------------------------------------------------------

const stubMediaBase = "https://res.cloudinary.com/demo/image/upload/"

type stubMedia struct {
	uploads   []domain.ImagePayload
	uploadErr error
}

func (m *stubMedia) Upload(_ context.Context, img domain.ImagePayload) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploads = append(m.uploads, img)
	return fmt.Sprintf("%simg%d.png", stubMediaBase, len(m.uploads)), nil
}

func (m *stubMedia) Destroy(context.Context, string) error { return nil }

func (m *stubMedia) PublicID(imageURL string) (string, bool) {
	rest, ok := strings.CutPrefix(imageURL, stubMediaBase)
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(rest, ".png"), true
}

type stubCleaner struct {
	scheduled []string
}

func (c *stubCleaner) Schedule(publicID string) {
	c.scheduled = append(c.scheduled, publicID)
}

// ---------------------------------------------------------------------------
// Token stubs
// ---------------------------------------------------------------------------

type stubIssuer struct {
	ttl time.Duration
	n   int
}

func (i *stubIssuer) Issue(user *domain.User) (string, domain.TokenClaims, error) {
	i.n++
	claims := domain.TokenClaims{
		Subject:   user.ID,
		Email:     user.Email,
		ID:        fmt.Sprintf("jti-%d", i.n),
		ExpiresAt: time.Now().Add(i.ttl),
	}
	return "token-for-" + user.ID, claims, nil
}

type stubVerifier struct {
	claims map[string]*domain.TokenClaims
}

func (v *stubVerifier) Verify(_ context.Context, raw string) (*domain.TokenClaims, error) {
	c, ok := v.claims[raw]
	if !ok {
		return nil, errors.New("bad token")
	}
	return c, nil
}

type stubRevocations struct {
	revoked map[string]time.Time
	err     error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Time)}
}

func (r *stubRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = until
	return nil
}

func (r *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}
