// Package upload dispatches NFT media and metadata uploads to interchangeable
// storage backends and decides whether the returned links count as a success.
package upload

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// Stage is the position of an invocation in the upload state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageLoaded
	StageResolved
	StageInvoked
	StageReported
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageLoaded:
		return "loaded"
	case StageResolved:
		return "resolved"
	case StageInvoked:
		return "invoked"
	case StageReported:
		return "reported"
	default:
		return "unknown"
	}
}

// Report is the completion record of a successful upload.
type Report struct {
	Index   string
	Storage StorageType
	Result
}

// Dispatcher runs one upload command to completion.
type Dispatcher struct {
	registry *Registry
	logger   logSDK.Logger
}

// NewDispatcher creates a dispatcher over registry.
// logger is used for every message the dispatcher emits.
func NewDispatcher(registry *Registry, logger logSDK.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("registry is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	return &Dispatcher{
		registry: registry,
		logger:   logger,
	}, nil
}

// UploadToStorage uploads the manifest at file and its local media.
//
// Validation failures abort before any backend is called. A backend result
// that misses a slot required by the request shape returns INCOMPLETE_UPLOAD.
func (d *Dispatcher) UploadToStorage(ctx context.Context, file, storage string) (*Report, error) {
	dir, asset, filename := ManifestLocation(file)
	logger := d.logger.With(zap.String("index", asset.Index), zap.String("storage", storage))

	manifest, err := LoadManifest(dir, filename)
	if err != nil {
		return nil, d.abort(logger, StageIdle, err)
	}
	d.transit(logger, StageLoaded)

	sources, err := ResolveLocal(dir, asset, manifest)
	if err != nil {
		return nil, d.abort(logger, StageLoaded, err)
	}
	d.transit(logger, StageResolved)

	st := d.storageType(logger, storage)
	backend, ok := d.registry.Get(st)
	if !ok {
		return nil, d.abort(logger, StageResolved,
			newErrorf(ErrCodeUnsupportedBackend, "storage %q is not configured", st))
	}

	result, err := backend.Upload(ctx, Request{
		Asset:    asset,
		Sources:  sources,
		Manifest: manifest,
	})
	if err = checkBackendResult(result, err); err != nil {
		return nil, d.abort(logger, StageResolved, err)
	}
	d.transit(logger, StageInvoked)

	return d.report(logger, asset, st, result, sources.HasAnimation())
}

// UploadMediaToStorage uploads the single media file at file as is.
func (d *Dispatcher) UploadMediaToStorage(ctx context.Context, file, storage string) (*Report, error) {
	asset := Asset{Index: file}
	logger := d.logger.With(zap.String("file", file), zap.String("storage", storage))

	st := d.storageType(logger, storage)
	backend, _ := d.registry.Get(st)
	uploader, ok := backend.(MediaUploader)
	if !ok {
		return nil, d.abort(logger, StageIdle,
			newErrorf(ErrCodeUnsupportedBackend, "Not implemented: %s media upload", st))
	}

	link, err := uploader.UploadMedia(ctx, file)
	if err = checkBackendResult(Result{Link: link}, err); err != nil {
		return nil, d.abort(logger, StageIdle, err)
	}
	d.transit(logger, StageInvoked)

	d.transit(logger, StageReported)
	logger.Info("upload complete", zap.String("link", link))
	return &Report{Index: asset.Index, Storage: st, Result: Result{Link: link}}, nil
}

// UploadMetadataToStorage uploads a manifest whose media are already hosted.
//
// Image and animation must be absolute URLs, checked before any backend call.
func (d *Dispatcher) UploadMetadataToStorage(ctx context.Context, file, storage string) (*Report, error) {
	dir, asset, filename := ManifestLocation(file)
	logger := d.logger.With(zap.String("index", asset.Index), zap.String("storage", storage))

	manifest, err := LoadManifest(dir, filename)
	if err != nil {
		return nil, d.abort(logger, StageIdle, err)
	}
	d.transit(logger, StageLoaded)

	sources, err := ResolveHosted(asset, manifest)
	if err != nil {
		return nil, d.abort(logger, StageLoaded, err)
	}
	d.transit(logger, StageResolved)

	st := d.storageType(logger, storage)
	backend, _ := d.registry.Get(st)
	uploader, ok := backend.(MetadataUploader)
	if !ok {
		return nil, d.abort(logger, StageResolved,
			newErrorf(ErrCodeUnsupportedBackend, "Not implemented: %s metadata upload", st))
	}

	result, err := uploader.UploadMetadata(ctx, manifest)
	if err = checkBackendResult(result, err); err != nil {
		return nil, d.abort(logger, StageResolved, err)
	}
	d.transit(logger, StageInvoked)

	return d.report(logger, asset, st, result, sources.HasAnimation())
}

// storageType resolves the token and warns when the default applies.
func (d *Dispatcher) storageType(logger logSDK.Logger, token string) StorageType {
	st, known := ParseStorageType(token)
	if !known {
		logger.Warn("unknown storage, fall back to default",
			zap.String("default", string(DefaultStorage)))
	}

	return st
}

// report applies the completeness predicate to result.
func (d *Dispatcher) report(logger logSDK.Logger,
	asset Asset, st StorageType, result Result, hasAnimation bool) (*Report, error) {
	if !result.Complete(hasAnimation) {
		logger.Debug("incomplete result",
			zap.Bool("has_animation", hasAnimation),
			zap.String("link", result.Link),
			zap.String("imageLink", result.ImageLink),
			zap.String("animationLink", result.AnimationLink))
		return nil, newErrorf(ErrCodeIncompleteUpload,
			"upload incomplete for %s: link=%q imageLink=%q animationLink=%q",
			asset.Index, result.Link, result.ImageLink, result.AnimationLink)
	}

	d.transit(logger, StageReported)
	logger.Info("upload complete",
		zap.String("link", result.Link),
		zap.String("imageLink", result.ImageLink),
		zap.String("animationLink", result.AnimationLink))

	return &Report{Index: asset.Index, Storage: st, Result: result}, nil
}

func (d *Dispatcher) transit(logger logSDK.Logger, to Stage) {
	logger.Debug("upload stage", zap.Stringer("stage", to))
}

// abort records the last stage reached before err and returns err unchanged.
func (d *Dispatcher) abort(logger logSDK.Logger, at Stage, err error) error {
	logger.Debug("upload aborted", zap.Stringer("stage", at), zap.Error(err))
	return err
}

// checkBackendResult normalizes a backend's return values.
// Untyped errors become BACKEND_UPLOAD_ERROR, and an all-empty result
// without error is rejected.
func checkBackendResult(result Result, err error) error {
	if err != nil {
		if _, ok := AsError(err); ok {
			return err
		}
		return wrapError(ErrCodeBackendUpload, err, "backend upload")
	}

	if result.IsEmpty() {
		return NewError(ErrCodeBackendUpload, "backend upload: empty result")
	}

	return nil
}
