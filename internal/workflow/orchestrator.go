// Package workflow sequences the analysis stages (extract, persona, genre,
// command) with a partial-failure policy: a Critical failure aborts, an
// Important failure degrades to a documented fallback, and an Optional
// failure is recorded and omitted.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/versebound/musemcp/internal/analysis"
	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/persona"
	"github.com/versebound/musemcp/internal/prompt"
	"github.com/versebound/musemcp/internal/profile"
	"github.com/versebound/musemcp/internal/wiki"
)

// Workflow statuses.
const (
	StatusSuccess        = "success"
	StatusPartial        = "partial"
	StatusFailedCritical = "failed_critical"
)

// StageError is one structured failure entry, in occurrence order.
type StageError struct {
	Stage   string `json:"stage"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

// Options bound the orchestrator's per-request resource usage.
type Options struct {
	MaxConcurrency int64         // parallel persona/command work (default 5)
	StageTimeout   time.Duration // per-stage budget (default 30s)
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 5
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = 30 * time.Second
	}
	return o
}

// CompleteResult is the fan-through output. Every field is always present;
// failed stages leave empty sequences, never nulls.
type CompleteResult struct {
	Analysis *analysis.Result       `json:"analysis"`
	Personas []persona.ArtistPersona `json:"personas"`
	Commands []prompt.Command        `json:"commands"`
	Status   string                  `json:"status"`
	Errors   []StageError            `json:"errors"`
}

// Orchestrator wires the stages over a single knowledge snapshot per
// request.
type Orchestrator struct {
	knowledge *wiki.Manager
	logger    *slog.Logger
	opts      Options
}

// New creates an orchestrator.
func New(knowledge *wiki.Manager, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		knowledge: knowledge,
		logger:    logger,
		opts:      opts.withDefaults(),
	}
}

// requestView is the knowledge captured once at request start, so concurrent
// refreshes cannot produce torn reads inside one request.
type requestView struct {
	mapper   *genre.Mapper
	metaTags []wiki.MetaTag
}

func (o *Orchestrator) capture() requestView {
	return requestView{
		mapper:   genre.NewMapper(o.knowledge.GetGenres()),
		metaTags: o.knowledge.GetMetaTags(""),
	}
}

// Analyze runs the character extractor (Critical stage).
func (o *Orchestrator) Analyze(ctx context.Context, text string) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	type outcome struct {
		res *analysis.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("character extraction panicked: %v", r)}
			}
		}()
		ch <- outcome{res: analysis.Analyze(text)}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Personas derives one persona per character (Important stage). Independent
// characters run concurrently under the request semaphore; order follows the
// characters' importance ranking regardless of completion order.
func (o *Orchestrator) Personas(ctx context.Context, res *analysis.Result) ([]persona.ArtistPersona, []StageError) {
	return o.personas(ctx, res, o.capture())
}

func (o *Orchestrator) personas(ctx context.Context, res *analysis.Result, view requestView) ([]persona.ArtistPersona, []StageError) {
	personas := make([]persona.ArtistPersona, len(res.Characters))
	var stageErrors []StageError

	sem := semaphore.NewWeighted(o.opts.MaxConcurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range res.Characters {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			defer recoverInto(&personas[i], c)
			personas[i] = persona.FromCharacter(c, view.mapper)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		stageErrors = append(stageErrors, classify("personas", err))
		// Important stage: degrade to fallback personas for any slot the
		// failure left empty.
		for i, p := range personas {
			if p.CharacterInspiration == "" && i < len(res.Characters) {
				personas[i] = fallbackPersona(res.Characters[i])
			}
		}
	}
	return personas, stageErrors
}

// recoverInto converts a panicked persona derivation into the documented
// fallback instead of poisoning the whole stage.
func recoverInto(slot *persona.ArtistPersona, c *profile.Character) {
	if r := recover(); r != nil {
		*slot = fallbackPersona(c)
	}
}

// fallbackPersona is the documented empty-but-valid persona shape.
func fallbackPersona(c *profile.Character) persona.ArtistPersona {
	return persona.ArtistPersona{
		Name:                  c.Name,
		Genre:                 "",
		SecondaryInfluences:   []string{},
		StyleDescription:      fmt.Sprintf("A style drawn directly from %s's narrative.", c.Name),
		VocalCharacteristics:  []string{"natural"},
		LyricalThemes:         []string{"the character's story"},
		ProductionPreferences: []string{},
		CharacterInspiration:  c.Name,
		MappingConfidence:     0,
	}
}

// Commands builds prompt variants for every persona (Optional stage).
func (o *Orchestrator) Commands(ctx context.Context, personas []persona.ArtistPersona, res *analysis.Result) ([]prompt.Command, []StageError) {
	return o.commands(ctx, personas, res, o.capture())
}

func (o *Orchestrator) commands(ctx context.Context, personas []persona.ArtistPersona, res *analysis.Result, view requestView) ([]prompt.Command, []StageError) {
	builder := prompt.NewBuilder(view.metaTags)
	characters := map[string]*profile.Character{}
	for _, c := range res.Characters {
		characters[c.Name] = c
	}

	perPersona := make([][]prompt.Command, len(personas))
	var stageErrors []StageError

	sem := semaphore.NewWeighted(o.opts.MaxConcurrency)
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range personas {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			c, ok := characters[p.CharacterInspiration]
			if !ok {
				c = &profile.Character{Name: p.CharacterInspiration}
			}
			matches := view.mapper.Map(persona.TraitsOf(c), genre.Options{MaxResults: 4, UseHierarchical: true})
			perPersona[i] = builder.Build(p, c, matches)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		stageErrors = append(stageErrors, classify("commands", err))
	}

	commands := []prompt.Command{}
	for _, batch := range perPersona {
		commands = append(commands, batch...)
	}
	return commands, stageErrors
}

// Complete runs the full fan-through: analyze, personas, commands. The
// knowledge snapshot is captured once and reused by every stage.
func (o *Orchestrator) Complete(ctx context.Context, text string) *CompleteResult {
	view := o.capture()
	result := &CompleteResult{
		Personas: []persona.ArtistPersona{},
		Commands: []prompt.Command{},
		Status:   StatusSuccess,
		Errors:   []StageError{},
	}

	res, err := o.Analyze(ctx, text)
	if err != nil {
		// Critical stage: abort, returning the documented empty shape.
		result.Analysis = emptyAnalysis()
		result.Status = StatusFailedCritical
		result.Errors = append(result.Errors, classify("analyze", err))
		return result
	}
	result.Analysis = res

	personas, perrs := o.personas(ctx, res, view)
	result.Personas = personas
	if len(perrs) > 0 {
		result.Errors = append(result.Errors, perrs...)
		result.Status = StatusPartial
	}

	commands, cerrs := o.commands(ctx, personas, res, view)
	result.Commands = commands
	if len(cerrs) > 0 {
		// Optional stage: recorded and omitted; the status keeps whatever
		// the earlier stages earned.
		result.Errors = append(result.Errors, cerrs...)
	}

	o.logger.Debug("workflow complete",
		"characters", len(res.Characters),
		"personas", len(result.Personas),
		"commands", len(result.Commands),
		"status", result.Status,
	)
	return result
}

func emptyAnalysis() *analysis.Result {
	return &analysis.Result{
		Characters:      []*profile.Character{},
		NarrativeThemes: []string{},
		EmotionalArc:    analysis.Arc{Beginning: "neutral", Middle: "neutral", End: "neutral"},
	}
}

// classify maps a stage error to the wire-level error kinds.
func classify(stage string, err error) StageError {
	kind := "internal"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "timeout"
	case errors.Is(err, context.Canceled):
		kind = "cancelled"
	}
	return StageError{Stage: stage, Kind: kind, Message: err.Error()}
}
