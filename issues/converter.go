package issues

import (
	"log/slog"

	"github.com/lanceccraig/Tooling.DevOps/labels"
)

// Converter turns raw issues into releasable issues.
type Converter struct {
	classifier      *labels.Classifier
	registry        Registry
	resolutionClass labels.Classification
	typeClass       labels.Classification
	onSkip          SkipFunc
	onStats         func(accepted, skipped int)
	logger          *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithClassifications overrides the classifications holding resolution and
// type labels.
func WithClassifications(resolution, typ labels.Classification) Option {
	return func(c *Converter) {
		c.resolutionClass = resolution
		c.typeClass = typ
	}
}

// WithSkipFunc sets the sink that receives every skip.
func WithSkipFunc(fn SkipFunc) Option {
	return func(c *Converter) {
		c.onSkip = fn
	}
}

// WithStats sets a callback invoked once per completed batch.
func WithStats(fn func(accepted, skipped int)) Option {
	return func(c *Converter) {
		c.onStats = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConverter creates a Converter. Resolution and type labels default to
// the built-in Resolution and Type classifications.
func NewConverter(classifier *labels.Classifier, registry Registry, opts ...Option) *Converter {
	if classifier == nil {
		classifier = labels.NewClassifier()
	}
	c := &Converter{
		classifier:      classifier,
		registry:        registry,
		resolutionClass: labels.Resolution,
		typeClass:       labels.Type,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertAll converts raw in order.
//
// Classifier errors abort the call and are returned as is. Issues with a
// missing, duplicate or unrecognised resolution or type are reported to the
// skip sink; if any were skipped the result is discarded and a
// *BatchSkippedError is returned.
func (c *Converter) ConvertAll(raw []RawIssue) ([]Releasable, error) {
	result := make([]Releasable, 0, len(raw))
	if len(raw) == 0 {
		return result, nil
	}

	var skips []Skip
	skipped := 0
	report := func(s Skip) {
		skips = append(skips, s)
		c.logger.Debug("Skipping issue", slog.Int("number", s.Number), slog.String("reason", string(s.Reason)))
		if c.onSkip != nil {
			c.onSkip(s)
		}
	}

	for _, issue := range raw {
		groups, err := c.group(issue.Labels)
		if err != nil {
			return nil, err
		}

		resLabels := groups[c.resolutionClass.Name]
		typeLabels := groups[c.typeClass.Name]
		resOK := c.checkArity(issue.Number, resLabels, ReasonResolutionMissing, ReasonResolutionDuplicate, report)
		typeOK := c.checkArity(issue.Number, typeLabels, ReasonTypeMissing, ReasonTypeDuplicate, report)
		if !resOK || !typeOK {
			skipped++
			continue
		}

		resName := c.classifier.Strip(resLabels[0], c.resolutionClass)
		resolution, ok := c.registry.Resolution(resName)
		if !ok {
			report(Skip{Number: issue.Number, Reason: ReasonInvalidResolution, Value: resName})
			skipped++
			continue
		}

		typeName := c.classifier.Strip(typeLabels[0], c.typeClass)
		typ, ok := c.registry.Type(typeName)
		if !ok {
			report(Skip{Number: issue.Number, Reason: ReasonInvalidType, Value: typeName})
			skipped++
			continue
		}

		result = append(result, Releasable{
			Number:     issue.Number,
			Title:      issue.Title,
			Resolution: resolution,
			Type:       typ,
		})
	}

	if c.onStats != nil {
		c.onStats(len(result), skipped)
	}
	if skipped > 0 {
		return nil, &BatchSkippedError{Count: skipped, Skips: skips}
	}
	return result, nil
}

// group classifies labels and buckets them by classification name.
func (c *Converter) group(names []string) (map[string][]string, error) {
	groups := make(map[string][]string)
	for _, name := range names {
		cls, _, err := c.classifier.Classify(name)
		if err != nil {
			return nil, err
		}
		groups[cls.Name] = append(groups[cls.Name], name)
	}
	return groups, nil
}

func (c *Converter) checkArity(number int, found []string, missing, duplicate Reason, report SkipFunc) bool {
	switch {
	case len(found) == 0:
		report(Skip{Number: number, Reason: missing})
		return false
	case len(found) > 1:
		report(Skip{Number: number, Reason: duplicate})
		return false
	}
	return true
}
