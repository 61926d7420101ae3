package transform

import (
	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"

	"github.com/amaumene/tritonevents/internal/models"
	"github.com/amaumene/tritonevents/internal/utils"
)

// movieLabel is the exact label name marking a card as a movie
const movieLabel = "Movie"

// maxHintDistance is the edit distance under which an attachment name is reported as a likely typo
const maxHintDistance = 2

// Attachment is a named link on a card
type Attachment struct {
	Name string
	URL  string
}

// Card is the board card content the transformer reads
type Card struct {
	ID          string
	Name        string
	Body        string
	Labels      []string
	Attachments []Attachment
}

// Payload is the structured acquisition data extracted from a card
type Payload struct {
	Name             string
	MediaType        models.MediaType
	SourceProtocol   models.SourceProtocol
	SourceLocator    string
	MetadataProvider models.MetadataProvider
	MetadataID       string
}

// CardTransformer extracts payloads from cards
type CardTransformer struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewCardTransformer creates a new card transformer
func NewCardTransformer(registry *Registry, logger zerolog.Logger) *CardTransformer {
	return &CardTransformer{
		registry: registry,
		logger:   logger.With().Str("component", "transform").Logger(),
	}
}

// Transform extracts the full payload of a card or returns a *ValidationError
func (t *CardTransformer) Transform(card Card) (*Payload, error) {
	protocol, locator, err := ParseSource(card.Body)
	if err != nil {
		return nil, err
	}

	provider, metadataID, err := t.parseMetadata(card)
	if err != nil {
		return nil, err
	}

	return &Payload{
		Name:             card.Name,
		MediaType:        ClassifyMediaType(card.Labels),
		SourceProtocol:   protocol,
		SourceLocator:    locator,
		MetadataProvider: provider,
		MetadataID:       metadataID,
	}, nil
}

// ParseSource extracts the source protocol and locator from a [token](locator) link in body
func ParseSource(body string) (models.SourceProtocol, string, error) {
	token, locator, ok := utils.ExtractMarkdownLink(body)
	if !ok {
		return 0, "", invalid(FieldSource, "no [protocol](locator) link in card body", nil)
	}
	if token == "" || locator == "" {
		return 0, "", invalid(FieldSource, "source link is missing its protocol or locator", nil)
	}

	switch foldName(token) {
	case "http", "https":
		return models.SourceHTTP, locator, nil
	case "magnet":
		return models.SourceMagnet, locator, nil
	case "file":
		return models.SourceFile, locator, nil
	default:
		return 0, "", invalid(FieldSource, "unsupported protocol "+token, nil)
	}
}

// ClassifyMediaType returns movie when a label is named exactly "Movie", series otherwise
func ClassifyMediaType(labels []string) models.MediaType {
	for _, label := range labels {
		if label == movieLabel {
			return models.MediaTypeMovie
		}
	}
	return models.MediaTypeSeries
}

func (t *CardTransformer) parseMetadata(card Card) (models.MetadataProvider, string, error) {
	for _, attachment := range card.Attachments {
		provider, ok := t.registry.Lookup(attachment.Name)
		if !ok {
			continue
		}

		id, err := provider.Transformer.TransformID(attachment.URL)
		if err != nil {
			return 0, "", invalid(FieldMetadata, "bad "+provider.Name+" attachment", err)
		}
		return provider.ID, id, nil
	}

	t.logNearMisses(card)
	return 0, "", invalid(FieldMetadata, "no metadata provider attachment", nil)
}

func (t *CardTransformer) logNearMisses(card Card) {
	for _, attachment := range card.Attachments {
		name := foldName(attachment.Name)
		for _, providerName := range t.registry.Names() {
			if levenshtein.ComputeDistance(name, foldName(providerName)) <= maxHintDistance {
				t.logger.Warn().
					Str("card_id", card.ID).
					Str("attachment", attachment.Name).
					Str("provider", providerName).
					Msg("Attachment name looks like a metadata provider")
				break
			}
		}
	}
}
