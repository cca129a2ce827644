// Package engine answers natural-language questions about a loaded dataset.
// Tabular questions become a declarative analysis plan produced by the model
// and executed here against the in-memory table; document questions go to the
// model directly with the extracted text embedded in a fixed template. Model
// output is only ever parsed, never executed.
package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablechat/internal/ai"
	"github.com/KaramelBytes/tablechat/internal/dataset"
	"github.com/KaramelBytes/tablechat/internal/ingest"
	"github.com/KaramelBytes/tablechat/internal/utils"
)

// Options is the analysis session configuration: the model handle, the
// verbosity flag, the response formatter binding, and the advanced
// processing gate for derive steps.
type Options struct {
	LLM                      ai.Client
	Model                    string
	Verbose                  bool
	ResponseFormatter        ResponseFormatter
	EnableAdvancedProcessing bool
	Logger                   *zap.Logger
}

// Session binds one table to one set of options for the duration of a
// question.
type Session struct {
	table *dataset.Table
	name  string
	opts  Options
	log   *zap.Logger
}

// NewSession creates a session over the table. name labels the dataset in the
// prompt's summary block.
func NewSession(t *dataset.Table, name string, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if !opts.Verbose {
		log = log.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}
	return &Session{table: t, name: name, opts: opts, log: log}
}

// Chat asks one question: build the planning prompt, make a single model
// call, parse the reply into a plan, execute it, and run the shaped result
// through the formatter. A reply with no parseable plan becomes the answer
// verbatim. There is no retry at this level.
func (s *Session) Chat(ctx context.Context, prompt string) (string, error) {
	profile := dataset.NewProfile(s.table, s.name, 5)
	planning := buildPlanningPrompt(profile, prompt)
	s.log.Debug("planning prompt built",
		zap.String("dataset", s.name),
		zap.Int("prompt_chars", len(planning)),
		zap.Int("prompt_tokens_est", utils.CountTokens(planning)))

	resp, err := s.opts.LLM.Generate(ctx, ai.GenerateRequest{
		Model:    s.opts.Model,
		Messages: []ai.Message{{Role: "user", Content: planning}},
	})
	if err != nil {
		return "", err
	}
	reply := replyText(resp)
	if reply == "" {
		return "", errors.New("model returned an empty reply")
	}

	plan, ok := parsePlan(reply)
	if !ok {
		// No plan in the reply: the model's own words are the answer.
		s.log.Debug("no plan parsed, returning reply as answer")
		return s.opts.ResponseFormatter.Format(Result{Kind: KindScalar, Answer: strings.TrimSpace(reply)}), nil
	}
	if err := plan.validate(); err != nil {
		return "", err
	}
	s.log.Debug("executing plan",
		zap.Int("steps", len(plan.Steps)),
		zap.String("output", plan.Output.Type))

	result, err := executePlan(s.table, plan, s.opts.EnableAdvancedProcessing)
	if err != nil {
		return "", err
	}
	return s.opts.ResponseFormatter.Format(result), nil
}

// Dispatcher routes a question to the right analysis path for the dataset's
// kind. One dispatcher serves all requests; per-question state lives in the
// session it constructs.
type Dispatcher struct {
	client   ai.Client
	model    string
	advanced bool
	verbose  bool
	log      *zap.Logger
}

// NewDispatcher wires the dispatcher to an explicit model client.
func NewDispatcher(client ai.Client, model string, advanced, verbose bool, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if !verbose {
		log = log.WithOptions(zap.IncreaseLevel(zap.InfoLevel))
	}
	return &Dispatcher{client: client, model: model, advanced: advanced, verbose: verbose, log: log}
}

// Dispatch answers prompt against ds. Structured datasets run through a plan
// session; unstructured text goes to the model in one direct call whose raw
// reply is the answer. A blank prompt short-circuits with ErrEmptyPrompt
// before any model traffic.
func (d *Dispatcher) Dispatch(ctx context.Context, ds *ingest.Dataset, prompt string, formatter ResponseFormatter) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	if ds.Kind == ingest.KindStructured {
		sess := NewSession(ds.Table, ds.Name, Options{
			LLM:                      d.client,
			Model:                    d.model,
			Verbose:                  d.verbose,
			ResponseFormatter:        formatter,
			EnableAdvancedProcessing: d.advanced,
			Logger:                   d.log,
		})
		return sess.Chat(ctx, prompt)
	}

	doc := buildDocumentPrompt(ds.Text, prompt)
	d.log.Debug("document prompt built",
		zap.String("dataset", ds.Name),
		zap.Int("prompt_tokens_est", utils.CountTokens(doc)))
	resp, err := d.client.Generate(ctx, ai.GenerateRequest{
		Model:    d.model,
		Messages: []ai.Message{{Role: "user", Content: doc}},
	})
	if err != nil {
		return "", err
	}
	reply := replyText(resp)
	if reply == "" {
		return "", errors.New("model returned an empty reply")
	}
	return reply, nil
}

func replyText(resp *ai.GenerateResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
