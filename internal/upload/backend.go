package upload

import (
	"context"
	"sort"
	"strings"
)

// StorageType identifies a storage backend.
type StorageType string

const (
	StorageArweave    StorageType = "arweave"
	StorageAws        StorageType = "aws"
	StorageIpfs       StorageType = "ipfs"
	StoragePinata     StorageType = "pinata"
	StorageNftStorage StorageType = "nft-storage"
)

// DefaultStorage is used when `--storage` names no known backend.
const DefaultStorage = StorageArweave

// StorageTypes lists every known backend identifier.
var StorageTypes = []StorageType{
	StorageArweave,
	StorageAws,
	StorageIpfs,
	StoragePinata,
	StorageNftStorage,
}

// ParseStorageType maps a `--storage` token to a StorageType.
//
// Unknown tokens resolve to DefaultStorage with known=false, callers
// should report the fallback.
func ParseStorageType(token string) (st StorageType, known bool) {
	for _, candidate := range StorageTypes {
		if string(candidate) == token {
			return candidate, true
		}
	}

	return DefaultStorage, false
}

// Request is the input of a full manifest upload.
type Request struct {
	Asset    Asset
	Sources  Sources
	Manifest *Manifest
}

// Result is the link tuple returned by a backend.
// Empty strings mark absent slots.
type Result struct {
	Link          string `json:"link"`
	ImageLink     string `json:"imageLink"`
	AnimationLink string `json:"animationLink"`
}

// IsEmpty reports whether no slot was filled.
func (r Result) IsEmpty() bool {
	return r.Link == "" && r.ImageLink == "" && r.AnimationLink == ""
}

// Complete reports whether r is a full success for a request that did,
// or did not, carry an animation asset.
func (r Result) Complete(hasAnimation bool) bool {
	if hasAnimation {
		return r.Link != "" && r.ImageLink != "" && r.AnimationLink != ""
	}
	return r.Link != "" && r.ImageLink != ""
}

// Backend uploads a manifest together with its local media.
//
// Implementations must not mutate the request.
type Backend interface {
	Upload(ctx context.Context, req Request) (Result, error)
}

// MediaUploader is implemented by backends able to host a single raw media file.
type MediaUploader interface {
	UploadMedia(ctx context.Context, fpath string) (link string, err error)
}

// MetadataUploader is implemented by backends able to host a manifest whose
// media are already hosted.
type MetadataUploader interface {
	UploadMetadata(ctx context.Context, m *Manifest) (Result, error)
}

// BackendFunc adapts a function into a Backend.
type BackendFunc func(ctx context.Context, req Request) (Result, error)

// Upload calls f.
func (f BackendFunc) Upload(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Registry maps backend identifiers to their capabilities.
// It is built once at startup and read-only afterwards.
type Registry struct {
	backends map[StorageType]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[StorageType]Backend{}}
}

// Register binds backend to st, replacing any previous binding.
func (r *Registry) Register(st StorageType, backend Backend) *Registry {
	r.backends[st] = backend
	return r
}

// Get returns the backend bound to st.
func (r *Registry) Get(st StorageType) (Backend, bool) {
	b, ok := r.backends[st]
	return b, ok && b != nil
}

// Names returns the registered identifiers in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for st := range r.backends {
		names = append(names, string(st))
	}
	sort.Strings(names)

	return names
}

// String implements fmt.Stringer.
func (r *Registry) String() string {
	return "registry[" + strings.Join(r.Names(), ",") + "]"
}
