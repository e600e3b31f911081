package upload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/stretchr/testify/require"
)

// spyBackend records every call and returns canned results.
type spyBackend struct {
	mu       sync.Mutex
	requests []Request
	media    []string
	metadata []*Manifest

	result Result
	link   string
	err    error
}

func (s *spyBackend) Upload(ctx context.Context, req Request) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result, s.err
}

func (s *spyBackend) UploadMedia(ctx context.Context, fpath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = append(s.media, fpath)
	return s.link, s.err
}

func (s *spyBackend) UploadMetadata(ctx context.Context, m *Manifest) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = append(s.metadata, m)
	return s.result, s.err
}

func (s *spyBackend) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests) + len(s.media) + len(s.metadata)
}

func newTestLogger(t *testing.T) logSDK.Logger {
	t.Helper()
	logger, err := logSDK.NewConsoleWithName("upload_test", logSDK.LevelDebug)
	require.NoError(t, err)
	return logger
}

func newSpyDispatcher(t *testing.T, st StorageType, spy Backend) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(NewRegistry().Register(st, spy), newTestLogger(t))
	require.NoError(t, err)
	return d
}

func writeManifest(t *testing.T, dir, name, cnt string) string {
	t.Helper()
	fpath := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fpath, []byte(cnt), 0o600))
	return fpath
}

// TestNewDispatcherArguments verifies required dependencies are checked.
func TestNewDispatcherArguments(t *testing.T) {
	_, err := NewDispatcher(nil, newTestLogger(t))
	require.Error(t, err)

	_, err = NewDispatcher(NewRegistry(), nil)
	require.Error(t, err)
}

// TestUploadToStorageImageOnly verifies an image-only asset succeeds with link and imageLink.
func TestUploadToStorageImageOnly(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"name":"cat","image":"0.png"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I"}}
	d := newSpyDispatcher(t, StoragePinata, spy)

	report, err := d.UploadToStorage(context.Background(), file, "pinata")
	require.NoError(t, err)
	require.Equal(t, "0", report.Index)
	require.Equal(t, StoragePinata, report.Storage)
	require.Equal(t, Result{Link: "L", ImageLink: "I"}, report.Result)

	require.Len(t, spy.requests, 1)
	req := spy.requests[0]
	require.Equal(t, "0", req.Asset.Index)
	require.Equal(t, filepath.Join(dir, "0.png"), req.Sources.Image)
	require.Empty(t, req.Sources.Animation)
	require.Equal(t, `{"name":"cat","image":"0.png"}`, string(req.Manifest.Raw))
}

// TestUploadToStorageNullAnimation verifies a null animation_url uploads the image alone.
func TestUploadToStorageNullAnimation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png","animation_url":null}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I"}}
	d := newSpyDispatcher(t, StorageIpfs, spy)

	report, err := d.UploadToStorage(context.Background(), file, "ipfs")
	require.NoError(t, err)
	require.Equal(t, "L", report.Link)
	require.Len(t, spy.requests, 1)
	require.Empty(t, spy.requests[0].Sources.Animation)
}

// TestUploadToStorageBareIndex verifies a file argument without extension finds the manifest.
func TestUploadToStorageBareIndex(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "3.png")
	writeManifest(t, dir, "3.json", `{"image":"3.png"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I"}}
	d := newSpyDispatcher(t, StorageAws, spy)

	report, err := d.UploadToStorage(context.Background(), filepath.Join(dir, "3"), "aws")
	require.NoError(t, err)
	require.Equal(t, "3", report.Index)
}

// TestUploadToStorageWithAnimation verifies all three links are required when an animation is uploaded.
func TestUploadToStorageWithAnimation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png", "0.mp4")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png","animation_url":"0.mp4"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I", AnimationLink: "A"}}
	d := newSpyDispatcher(t, StorageIpfs, spy)

	report, err := d.UploadToStorage(context.Background(), file, "ipfs")
	require.NoError(t, err)
	require.Equal(t, "A", report.AnimationLink)
	require.Equal(t, filepath.Join(dir, "0.mp4"), spy.requests[0].Sources.Animation)

	spy.result = Result{Link: "L", ImageLink: "I"}
	_, err = d.UploadToStorage(context.Background(), file, "ipfs")
	require.True(t, IsCode(err, ErrCodeIncompleteUpload))
	require.True(t, IsInvocationError(err))
}

// TestUploadToStorageIncomplete verifies link and imageLink are both required.
func TestUploadToStorageIncomplete(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png"}`)

	for _, result := range []Result{
		{Link: "L"},
		{ImageLink: "I"},
		{Link: "L", AnimationLink: "A"},
	} {
		spy := &spyBackend{result: result}
		d := newSpyDispatcher(t, StorageAws, spy)

		_, err := d.UploadToStorage(context.Background(), file, "aws")
		require.True(t, IsCode(err, ErrCodeIncompleteUpload), "%+v", result)
	}
}

// TestUploadToStorageAnimationMissing verifies no backend is called when the animation file is absent.
func TestUploadToStorageAnimationMissing(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png","animation_url":"0.mp4"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I", AnimationLink: "A"}}
	d := newSpyDispatcher(t, StorageAws, spy)

	_, err := d.UploadToStorage(context.Background(), file, "aws")
	require.True(t, IsCode(err, ErrCodeAnimationMissing))
	require.Zero(t, spy.calls())
}

// TestUploadToStorageValidationBeforeBackend verifies manifest failures never reach a backend.
func TestUploadToStorageValidationBeforeBackend(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "bad.json", `{"image":`)
	writeManifest(t, dir, "noimg.json", `{"image":"missing.png"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I"}}
	d := newSpyDispatcher(t, StorageAws, spy)

	for file, code := range map[string]ErrorCode{
		filepath.Join(dir, "absent.json"): ErrCodeNotFound,
		filepath.Join(dir, "bad.json"):    ErrCodeParseError,
		filepath.Join(dir, "noimg.json"):  ErrCodeImageMissing,
	} {
		_, err := d.UploadToStorage(context.Background(), file, "aws")
		require.True(t, IsCode(err, code), "%s: %v", file, err)
	}
	require.Zero(t, spy.calls())
}

// TestUploadToStorageUnknownFallsBack verifies unknown storage tokens use the default backend.
func TestUploadToStorageUnknownFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I"}}
	d := newSpyDispatcher(t, DefaultStorage, spy)

	report, err := d.UploadToStorage(context.Background(), file, "filecoin")
	require.NoError(t, err)
	require.Equal(t, DefaultStorage, report.Storage)
	require.Len(t, spy.requests, 1)
}

// TestUploadToStorageNotConfigured verifies a storage without a registered backend fails.
func TestUploadToStorageNotConfigured(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png"}`)

	d := newSpyDispatcher(t, StorageAws, &spyBackend{})
	_, err := d.UploadToStorage(context.Background(), file, "pinata")
	require.True(t, IsCode(err, ErrCodeUnsupportedBackend))
}

// TestUploadToStorageBackendFailure verifies backend errors and empty results are reported.
func TestUploadToStorageBackendFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "0.png")
	file := writeManifest(t, dir, "0.json", `{"image":"0.png"}`)

	cause := errors.New("connection reset")
	d := newSpyDispatcher(t, StorageAws, &spyBackend{err: cause})
	_, err := d.UploadToStorage(context.Background(), file, "aws")
	require.True(t, IsCode(err, ErrCodeBackendUpload))
	require.ErrorIs(t, err, cause)

	d = newSpyDispatcher(t, StorageAws, &spyBackend{})
	_, err = d.UploadToStorage(context.Background(), file, "aws")
	require.True(t, IsCode(err, ErrCodeBackendUpload))

	typed := NewError(ErrCodeUnsupportedBackend, "nope")
	d = newSpyDispatcher(t, StorageAws, &spyBackend{err: typed})
	_, err = d.UploadToStorage(context.Background(), file, "aws")
	require.True(t, IsCode(err, ErrCodeUnsupportedBackend))
}

// TestUploadMediaToStorage verifies a capable backend receives the raw file path.
func TestUploadMediaToStorage(t *testing.T) {
	spy := &spyBackend{link: "https://nftstorage.link/ipfs/bafy"}
	d := newSpyDispatcher(t, StorageNftStorage, spy)

	report, err := d.UploadMediaToStorage(context.Background(), "assets/0.png", "nft-storage")
	require.NoError(t, err)
	require.Equal(t, "https://nftstorage.link/ipfs/bafy", report.Link)
	require.Equal(t, []string{"assets/0.png"}, spy.media)
}

// TestUploadMediaToStorageUnsupported verifies backends without media upload are refused without a call.
func TestUploadMediaToStorageUnsupported(t *testing.T) {
	var called bool
	d := newSpyDispatcher(t, StorageAws, BackendFunc(func(ctx context.Context, req Request) (Result, error) {
		called = true
		return Result{Link: "L", ImageLink: "I"}, nil
	}))

	_, err := d.UploadMediaToStorage(context.Background(), "assets/0.png", "aws")
	require.True(t, IsCode(err, ErrCodeUnsupportedBackend))
	require.Equal(t, "Not implemented: aws media upload", err.Error())
	require.False(t, called)

	_, err = d.UploadMediaToStorage(context.Background(), "assets/0.png", "pinata")
	require.True(t, IsCode(err, ErrCodeUnsupportedBackend))
}

// TestUploadMediaToStorageEmptyLink verifies an empty link without error is a backend failure.
func TestUploadMediaToStorageEmptyLink(t *testing.T) {
	d := newSpyDispatcher(t, StorageNftStorage, &spyBackend{})

	_, err := d.UploadMediaToStorage(context.Background(), "assets/0.png", "nft-storage")
	require.True(t, IsCode(err, ErrCodeBackendUpload))
}

// TestUploadMetadataToStorage verifies hosted manifests are uploaded as is.
func TestUploadMetadataToStorage(t *testing.T) {
	dir := t.TempDir()
	file := writeManifest(t, dir, "0.json",
		`{"image":"https://arweave.net/img","animation_url":"https://arweave.net/anim"}`)

	spy := &spyBackend{result: Result{
		Link:          "https://nftstorage.link/ipfs/meta",
		ImageLink:     "https://arweave.net/img",
		AnimationLink: "https://arweave.net/anim",
	}}
	d := newSpyDispatcher(t, StorageNftStorage, spy)

	report, err := d.UploadMetadataToStorage(context.Background(), file, "nft-storage")
	require.NoError(t, err)
	require.Equal(t, "https://nftstorage.link/ipfs/meta", report.Link)
	require.Len(t, spy.metadata, 1)
	require.Equal(t, "https://arweave.net/img", spy.metadata[0].Image)
}

// TestUploadMetadataToStorageAnimationAlias verifies an `animation` keyed manifest is reported complete.
func TestUploadMetadataToStorageAnimationAlias(t *testing.T) {
	dir := t.TempDir()
	file := writeManifest(t, dir, "0.json",
		`{"image":"https://x.io/0.png","animation":"https://x.io/0.mp4"}`)

	fake := new(fakeNftStorage)
	backend := NewNftStorageBackend(func(ctx context.Context) (NftStorageClient, error) { return fake, nil })
	d := newSpyDispatcher(t, StorageNftStorage, backend)

	report, err := d.UploadMetadataToStorage(context.Background(), file, "nft-storage")
	require.NoError(t, err)
	require.Equal(t, "L", report.Link)
	require.Equal(t, "https://x.io/0.png", report.ImageLink)
	require.Equal(t, "https://x.io/0.mp4", report.AnimationLink)
	require.JSONEq(t, `{"image":"https://x.io/0.png","animation":"https://x.io/0.mp4"}`, string(fake.metadata))
}

// TestUploadMetadataToStorageInvalidImage verifies relative image paths are rejected before any call.
func TestUploadMetadataToStorageInvalidImage(t *testing.T) {
	dir := t.TempDir()
	file := writeManifest(t, dir, "0.json", `{"image":"0.png"}`)

	spy := &spyBackend{result: Result{Link: "L", ImageLink: "I"}}
	d := newSpyDispatcher(t, StorageNftStorage, spy)

	_, err := d.UploadMetadataToStorage(context.Background(), file, "nft-storage")
	require.True(t, IsCode(err, ErrCodeInvalidImageURL))
	require.Zero(t, spy.calls())
}

// TestUploadMetadataToStorageUnsupported verifies backends without metadata upload are refused.
func TestUploadMetadataToStorageUnsupported(t *testing.T) {
	dir := t.TempDir()
	file := writeManifest(t, dir, "0.json", `{"image":"https://arweave.net/img"}`)

	d := newSpyDispatcher(t, StorageArweave, BackendFunc(func(ctx context.Context, req Request) (Result, error) {
		return Result{}, nil
	}))

	_, err := d.UploadMetadataToStorage(context.Background(), file, "arweave")
	require.True(t, IsCode(err, ErrCodeUnsupportedBackend))
	require.Equal(t, "Not implemented: arweave metadata upload", err.Error())
}

// TestResultComplete verifies the completeness predicate.
func TestResultComplete(t *testing.T) {
	require.True(t, Result{Link: "L", ImageLink: "I"}.Complete(false))
	require.True(t, Result{Link: "L", ImageLink: "I", AnimationLink: "A"}.Complete(false))
	require.False(t, Result{Link: "L", ImageLink: "I"}.Complete(true))
	require.True(t, Result{Link: "L", ImageLink: "I", AnimationLink: "A"}.Complete(true))
	require.False(t, Result{ImageLink: "I", AnimationLink: "A"}.Complete(true))
	require.True(t, Result{}.IsEmpty())
}

// TestParseStorageType verifies known tokens and the default fallback.
func TestParseStorageType(t *testing.T) {
	for _, st := range StorageTypes {
		got, known := ParseStorageType(string(st))
		require.True(t, known)
		require.Equal(t, st, got)
	}

	got, known := ParseStorageType("ARWEAVE")
	require.False(t, known)
	require.Equal(t, DefaultStorage, got)
}

// TestRegistry verifies registration and lookup.
func TestRegistry(t *testing.T) {
	r := NewRegistry().
		Register(StoragePinata, &spyBackend{}).
		Register(StorageAws, &spyBackend{}).
		Register(StorageIpfs, nil)

	require.Equal(t, []string{"aws", "ipfs", "pinata"}, r.Names())
	require.Equal(t, "registry[aws,ipfs,pinata]", r.String())

	_, ok := r.Get(StorageAws)
	require.True(t, ok)
	_, ok = r.Get(StorageIpfs)
	require.False(t, ok)
	_, ok = r.Get(StorageArweave)
	require.False(t, ok)
}

// TestStageString verifies stage names used in logs.
func TestStageString(t *testing.T) {
	require.Equal(t, "idle", StageIdle.String())
	require.Equal(t, "reported", StageReported.String())
	require.Equal(t, "unknown", Stage(42).String())
}
