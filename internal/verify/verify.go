package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civicsnap/internal/storage"
	"civicsnap/pkg/types"

	"github.com/sirupsen/logrus"
)

// Model streams a completion for a text prompt plus one image. onChunk is
// called with each text fragment in order.
type Model interface {
	Stream(ctx context.Context, prompt string, image []byte, mimeType string, onChunk func(string)) error
}

type Sentinels struct {
	Mismatch    []string
	NotEligible []string
}

var DefaultSentinels = Sentinels{
	Mismatch:    []string{"DescriptionMismatch"},
	NotEligible: []string{"NotCityIssue"},
}

// Gateway checks that an image matches its description and is a city issue.
type Gateway struct {
	model     Model
	sentinels Sentinels
	logger    *logrus.Logger
}

// NewGateway builds a gateway. A nil model means no inference credential is
// configured; every Verify call then fails with a configuration error.
func NewGateway(model Model, sentinels Sentinels, logger *logrus.Logger) *Gateway {
	if len(sentinels.Mismatch) == 0 {
		sentinels.Mismatch = DefaultSentinels.Mismatch
	}
	if len(sentinels.NotEligible) == 0 {
		sentinels.NotEligible = DefaultSentinels.NotEligible
	}
	return &Gateway{model: model, sentinels: sentinels, logger: logger}
}

func (g *Gateway) Verify(ctx context.Context, description, location string, image []byte, mimeType string) (*types.Outcome, error) {

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, types.NewValidationError("description", "Missing required fields")
	}

	if len(image) == 0 {
		return nil, types.NewValidationError("image", "Missing or invalid image file")
	}

	if g.model == nil {
		g.logger.Error("verification requested but no inference credential is configured")
		return nil, types.ConfigurationError("missing inference API key")
	}

	mimeType = storage.EffectiveMimeType(image, mimeType)

	started := time.Now()

	var reply strings.Builder
	err := g.model.Stream(ctx, BuildPrompt(description, location, g.sentinels), image, mimeType, func(chunk string) {
		reply.WriteString(chunk)
	})
	if err != nil {
		g.logger.WithError(err).Error("inference call failed")
		return nil, types.UpstreamError("inference call failed", err)
	}

	raw := reply.String()
	if strings.TrimSpace(raw) == "" {
		return nil, types.UpstreamError("inference returned no content", nil)
	}

	outcome := g.Classify(raw)

	g.logger.WithFields(logrus.Fields{
		"outcome":      outcome.Kind,
		"reply_length": len(raw),
		"duration_ms":  time.Since(started).Milliseconds(),
	}).Info("verification completed")

	return outcome, nil
}

// Classify maps a full reply to an outcome by exact match of the trimmed
// reply against the sentinel tokens. Anything else is accepted.
func (g *Gateway) Classify(raw string) *types.Outcome {
	trimmed := strings.TrimSpace(raw)

	for _, token := range g.sentinels.Mismatch {
		if trimmed == token {
			return &types.Outcome{Kind: types.OutcomeMismatch}
		}
	}

	for _, token := range g.sentinels.NotEligible {
		if trimmed == token {
			return &types.Outcome{Kind: types.OutcomeNotEligible}
		}
	}

	return &types.Outcome{Kind: types.OutcomeAccepted, RawText: raw}
}

func BuildPrompt(description, location string, sentinels Sentinels) string {
	location = strings.TrimSpace(location)
	if location == "" {
		location = "an unknown location"
	}

	mismatch := sentinels.Mismatch[0]
	notEligible := sentinels.NotEligible[0]

	return fmt.Sprintf(`A resident reported this issue to the city: %q at %s.

Check the attached image against the report.
- If the image does not show the described problem, reply with exactly "%s" and nothing else.
- If the problem is not something a city government handles (private property disputes, personal items, non-public matters), reply with exactly "%s" and nothing else.
- Otherwise rewrite the report clearly and informatively for city staff, in this exact format:

%s
<what the problem is, its severity and any hazard visible in the image>
%s
<the most specific location you can give, based on the stated location and visible landmarks>`,
		description, location, mismatch, notEligible, descriptionLabel, locationLabel)
}
