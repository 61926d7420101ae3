package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/utils"
)

// metadataSegment is the URL path index holding the id on provider pages
const metadataSegment = 2

// ErrUnrecognizedID is returned when an attachment carries no usable id
var ErrUnrecognizedID = errors.New("unrecognized metadata id")

// IDTransformer turns a raw attachment value into a provider id
type IDTransformer interface {
	TransformID(raw string) (string, error)
}

// IDTransformFunc adapts a function to IDTransformer
type IDTransformFunc func(raw string) (string, error)

// TransformID calls f(raw)
func (f IDTransformFunc) TransformID(raw string) (string, error) {
	return f(raw)
}

// NumericID accepts an integer verbatim, or a provider URL whose id segment is an integer
func NumericID() IDTransformer {
	return IDTransformFunc(func(raw string) (string, error) {
		raw = strings.TrimSpace(raw)
		if isUnsigned(raw) {
			return raw, nil
		}

		seg, ok := utils.URLPathSegment(raw, metadataSegment)
		if !ok || !isUnsigned(seg) {
			return "", fmt.Errorf("%w: %q is neither an integer nor a provider url", ErrUnrecognizedID, raw)
		}
		return seg, nil
	})
}

// PrefixedID accepts an id carrying prefix verbatim, or a provider URL whose id segment carries it
func PrefixedID(prefix string) IDTransformer {
	return IDTransformFunc(func(raw string) (string, error) {
		raw = strings.TrimSpace(raw)
		if hasIDPrefix(raw, prefix) && !strings.ContainsAny(raw, "/:") {
			return raw, nil
		}

		seg, ok := utils.URLPathSegment(raw, metadataSegment)
		if !ok || !hasIDPrefix(seg, prefix) {
			return "", fmt.Errorf("%w: %q has no %s id", ErrUnrecognizedID, raw, prefix)
		}
		return seg, nil
	})
}

func isUnsigned(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func hasIDPrefix(s, prefix string) bool {
	return len(s) > len(prefix) && strings.HasPrefix(s, prefix)
}

// Provider is a registered metadata provider
type Provider struct {
	Name        string
	ID          models.MetadataProvider
	Transformer IDTransformer
}

// Registry is the ordered set of metadata providers attachments are matched against
type Registry struct {
	providers []Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with the MAL, IMDB and ANILIST providers
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("MAL", models.MetadataMAL, NumericID())
	r.Register("IMDB", models.MetadataIMDB, PrefixedID("tt"))
	r.Register("ANILIST", models.MetadataAniList, NumericID())
	return r
}

// Register appends a provider, replacing any provider registered under the same name
func (r *Registry) Register(name string, id models.MetadataProvider, t IDTransformer) {
	p := Provider{Name: name, ID: id, Transformer: t}
	key := r.key(name)
	for i := range r.providers {
		if r.key(r.providers[i].Name) == key {
			r.providers[i] = p
			return
		}
	}
	r.providers = append(r.providers, p)
}

// Lookup finds a provider by attachment name, case-insensitively
func (r *Registry) Lookup(name string) (Provider, bool) {
	key := r.key(name)
	for _, p := range r.providers {
		if r.key(p.Name) == key {
			return p, true
		}
	}
	return Provider{}, false
}

// Names returns the registered provider names in order
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name
	}
	return names
}

func (r *Registry) key(name string) string {
	return foldName(name)
}

// foldName case-folds a name for matching. Casers are stateful, so one is made per call.
func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
