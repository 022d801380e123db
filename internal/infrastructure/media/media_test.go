package media

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/paghive/paghive/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Public ID extraction
// ---------------------------------------------------------------------------

func TestCloudinaryPublicID(t *testing.T) {
	cases := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/books/dune.png", "books/dune", true},
		{"https://res.cloudinary.com/demo/image/upload/abc123.jpg", "abc123", true},
		{"https://res.cloudinary.com/demo/image/upload/v1/abc123", "abc123", true},
		{"https://res.cloudinary.com/demo/image/upload/v2", "v2", true},
		{"https://res.cloudinary.com/other/image/upload/v1/abc.png", "", false},
		{"https://res.cloudinary.com/demo/image/fetch/abc.png", "", false},
		{"https://images.example.org/demo/image/upload/abc.png", "", false},
		{"data:image/png;base64,AAAA", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		id, ok := cloudinaryPublicID(tc.url, "demo")
		if ok != tc.wantOK || id != tc.wantID {
			t.Errorf("cloudinaryPublicID(%q) = (%q, %v), want (%q, %v)", tc.url, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

func TestGridFSPublicID(t *testing.T) {
	base := "https://api.example.com"
	cases := []struct {
		url    string
		wantID string
		wantOK bool
	}{
		{base + "/media/65f1c2a9e4b0a1b2c3d4e5f6", "65f1c2a9e4b0a1b2c3d4e5f6", true},
		{base + "/media/not-hex", "", false},
		{"https://elsewhere.example.com/media/65f1c2a9e4b0a1b2c3d4e5f6", "", false},
		{"https://res.cloudinary.com/demo/image/upload/abc.png", "", false},
	}

	for _, tc := range cases {
		id, ok := gridfsPublicID(tc.url, base)
		if ok != tc.wantOK || id != tc.wantID {
			t.Errorf("gridfsPublicID(%q) = (%q, %v), want (%q, %v)", tc.url, id, ok, tc.wantID, tc.wantOK)
		}
	}
}

// ---------------------------------------------------------------------------
// CloudinaryStore against a fake upload API
// ---------------------------------------------------------------------------

type fakeUploadAPI struct {
	uploadRes  *uploader.UploadResult
	uploadErr  error
	destroyRes *uploader.DestroyResult
	destroyErr error

	gotFolder  string
	gotBytes   []byte
	gotDestroy string
}

func (f *fakeUploadAPI) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.gotFolder = params.Folder
	if r, ok := file.(io.Reader); ok {
		f.gotBytes, _ = io.ReadAll(r)
	}
	return f.uploadRes, f.uploadErr
}

func (f *fakeUploadAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.gotDestroy = params.PublicID
	return f.destroyRes, f.destroyErr
}

func TestCloudinaryStore_Upload(t *testing.T) {
	fake := &fakeUploadAPI{uploadRes: &uploader.UploadResult{
		SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/books/x.png",
	}}
	store := &CloudinaryStore{api: fake, cloudName: "demo", folder: "books"}

	url, err := store.Upload(context.Background(), domain.ImagePayload{ContentType: "image/png", Data: []byte("pixels")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != fake.uploadRes.SecureURL {
		t.Errorf("want secure url, got %q", url)
	}
	if fake.gotFolder != "books" || string(fake.gotBytes) != "pixels" {
		t.Errorf("unexpected upload request folder=%q bytes=%q", fake.gotFolder, fake.gotBytes)
	}
}

func TestCloudinaryStore_UploadErrors(t *testing.T) {
	cases := map[string]*fakeUploadAPI{
		"transport": {uploadErr: errors.New("dial tcp: timeout")},
		"api error": {uploadRes: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}},
		"no url":    {uploadRes: &uploader.UploadResult{}},
	}
	for name, fake := range cases {
		store := &CloudinaryStore{api: fake, cloudName: "demo"}
		if _, err := store.Upload(context.Background(), domain.ImagePayload{Data: []byte("x")}); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestCloudinaryStore_Destroy(t *testing.T) {
	cases := []struct {
		name    string
		fake    *fakeUploadAPI
		wantErr bool
	}{
		{"ok", &fakeUploadAPI{destroyRes: &uploader.DestroyResult{Result: "ok"}}, false},
		{"already gone", &fakeUploadAPI{destroyRes: &uploader.DestroyResult{Result: "not found"}}, false},
		{"api error", &fakeUploadAPI{destroyRes: &uploader.DestroyResult{Error: api.ErrorResp{Message: "Invalid Signature"}}}, true},
		{"transport", &fakeUploadAPI{destroyErr: errors.New("connection reset")}, true},
	}
	for _, tc := range cases {
		store := &CloudinaryStore{api: tc.fake, cloudName: "demo"}
		err := store.Destroy(context.Background(), "books/dune")
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: wantErr=%v got %v", tc.name, tc.wantErr, err)
		}
		if tc.fake.gotDestroy != "books/dune" {
			t.Errorf("%s: destroy called with %q", tc.name, tc.fake.gotDestroy)
		}
	}
}

// ---------------------------------------------------------------------------
// Instrumented
// ---------------------------------------------------------------------------

type fakeBackend struct {
	err error
}

func (f *fakeBackend) Upload(context.Context, domain.ImagePayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/a.png", nil
}
func (f *fakeBackend) Destroy(context.Context, string) error { return nil }
func (f *fakeBackend) PublicID(string) (string, bool)        { return "", false }
func (f *fakeBackend) Name() string                          { return "fake" }

func TestInstrumented_PassesThrough(t *testing.T) {
	ok := Instrument(&fakeBackend{})
	if url, err := ok.Upload(context.Background(), domain.ImagePayload{}); err != nil || url == "" {
		t.Errorf("unexpected result %q %v", url, err)
	}

	boom := errors.New("boom")
	failing := Instrument(&fakeBackend{err: boom})
	if _, err := failing.Upload(context.Background(), domain.ImagePayload{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}
